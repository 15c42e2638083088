package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/usecase/generation"
	"github.com/m-mizutani/alchemy/pkg/usecase/profile"
	"github.com/m-mizutani/alchemy/pkg/usecase/session"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const studioHelp = `Commands:
  generate <idea>     transmute an idea into content and an image
  history             list history, newest first
  restore <id>        make a history item current
  delete <id>         delete a history item
  current             show the current generation
  branding            show the branding draft
  caption <text>      set the caption
  position left|right set the overlay position
  opacity <percent>   set the overlay opacity (10-100)
  logo <file>         pick a logo file
  clear-logo          remove the logo
  name <text>         set the display name
  photo <file>        pick a profile picture
  save                save profile and branding
  render <file>       write the current image with branding applied
  signout             end the session`

var errSignedOut = errors.New("signed out")

// studio runs REPL commands against one session
type studio struct {
	sess     *session.Session
	w        io.Writer
	progress *progress
}

func newStudio(sess *session.Session, w io.Writer, p *progress) *studio {
	return &studio{sess: sess, w: w, progress: p}
}

// exec runs one line. It returns errSignedOut after signout.
func (s *studio) exec(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		return nil

	case "help":
		fmt.Fprintln(s.w, studioHelp)

	case "generate":
		result, err := s.sess.Generate(ctx, arg)
		s.progress.Stop()
		if err != nil {
			fmt.Fprintln(s.w, generation.Message(err))
			return nil
		}
		sel, _ := s.sess.Current()
		printSelection(s.w, sel)
		if result.Notice != "" {
			fmt.Fprintf(s.w, "\n%s\n", result.Notice)
		}

	case "history":
		items := s.sess.History()
		if len(items) == 0 {
			fmt.Fprintln(s.w, "No history yet")
		}
		for _, item := range items {
			printHistoryLine(s.w, item)
		}

	case "restore":
		sel, err := s.sess.Restore(model.HistoryID(arg))
		if err != nil {
			return err
		}
		printSelection(s.w, sel)

	case "delete":
		if err := s.sess.Delete(ctx, model.HistoryID(arg)); err != nil {
			return err
		}
		fmt.Fprintf(s.w, "Deleted %s\n", arg)

	case "current":
		sel, ok := s.sess.Current()
		if !ok {
			fmt.Fprintln(s.w, "Nothing generated yet")
			return nil
		}
		printSelection(s.w, sel)

	case "branding":
		printBranding(s.w, s.sess.Profile().Branding())
		fmt.Fprintf(s.w, "State:    %s\n", s.sess.Profile().State())

	case "caption":
		s.sess.Profile().SetCaption(arg)

	case "position":
		s.sess.Profile().SetPosition(model.ParseLogoPosition(arg))

	case "opacity":
		percent, err := strconv.Atoi(strings.TrimSuffix(arg, "%"))
		if err != nil {
			return goerr.Wrap(err, "opacity must be a number", goerr.V("value", arg))
		}
		s.sess.Profile().SetOpacity(percent)

	case "logo":
		file, err := readLocalFile(arg)
		if err != nil {
			return err
		}
		s.sess.Profile().SetLogoFile(file)

	case "clear-logo":
		s.sess.Profile().ClearLogo()

	case "name":
		s.sess.Profile().SetDisplayName(arg)

	case "photo":
		file, err := readLocalFile(arg)
		if err != nil {
			return err
		}
		s.sess.Profile().SetPhotoFile(file)

	case "save":
		if _, err := s.sess.Profile().Save(ctx); err != nil {
			fmt.Fprintln(s.w, profile.Message(err))
			return nil
		}
		fmt.Fprintln(s.w, profile.SavedMessage)

	case "render":
		layout, ok := s.sess.Composite()
		if !ok {
			return goerr.New("no current image to render")
		}
		if arg == "" {
			return goerr.New("output file is required")
		}
		if err := saveComposite(ctx, layout, arg); err != nil {
			return err
		}
		fmt.Fprintf(s.w, "Branded image written to %s\n", arg)

	case "signout", "exit", "quit":
		s.sess.Close()
		return errSignedOut

	default:
		fmt.Fprintf(s.w, "Unknown command %q, type help\n", cmd)
	}

	return nil
}

func studioCommand() *cli.Command {
	var cfg config

	flags := identityFlags(&cfg)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "studio",
		Usage: "Interactive session: generate, browse history and edit branding",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			p := newProgress(os.Stderr)
			sess, err := cfg.startSession(ctx, sessionOptions{
				generator: true,
				progress:  p.Stage,
			})
			if err != nil {
				return err
			}
			defer sess.Close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "alchemy> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "signout",
				Stdout:          c.Root().Writer,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			user := sess.User()
			fmt.Fprintf(rl.Stdout(), "Welcome, %s. Type help for commands.\n", user.Name())

			st := newStudio(sess, rl.Stdout(), p)
			logger := logging.From(ctx)
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				err = st.exec(ctx, line)
				if errors.Is(err, errSignedOut) {
					fmt.Fprintln(rl.Stdout(), "Signed out")
					return nil
				}
				if err != nil {
					logger.Debug("studio command failed", logging.ErrAttr(err))
					fmt.Fprintf(rl.Stdout(), "Error: %s\n", err.Error())
				}
			}
		},
	}
}
