package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/usecase/compositor"
	"github.com/m-mizutani/alchemy/pkg/usecase/generation"
	"github.com/m-mizutani/alchemy/pkg/usecase/history"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func generateCommand() *cli.Command {
	var (
		cfg    config
		idea   string
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "idea",
			Aliases:     []string{"i"},
			Usage:       "Idea to transmute",
			Destination: &idea,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the branded image to this file (.png or .jpg)",
			Destination: &output,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate content and an image from an idea. Signed-in runs are saved to history.",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			p := newProgress(os.Stderr)
			defer p.Stop()

			var (
				result   *generation.Result
				branding = model.DefaultBranding()
			)

			if cfg.email != "" {
				sess, err := cfg.startSession(ctx, sessionOptions{generator: true, progress: p.Stage})
				if err != nil {
					return err
				}
				defer sess.Close()

				if result, err = sess.Generate(ctx, idea); err != nil {
					return goerr.Wrap(err, generation.Message(err))
				}
				branding = sess.Branding()
			} else {
				generator, err := cfg.newGenerator(ctx)
				if err != nil {
					return err
				}
				events, err := cfg.newEventSink(ctx)
				if err != nil {
					return err
				}

				orchestrator := generation.New(generation.NewInput{
					Generator: generator,
					Events:    events,
					Progress:  p.Stage,
				})
				if result, err = orchestrator.Generate(ctx, idea); err != nil {
					return goerr.Wrap(err, generation.Message(err))
				}
			}
			p.Stop()

			printSelection(w, history.Restore(result.Item))
			if result.Notice != "" {
				fmt.Fprintf(w, "\n%s\n", result.Notice)
			} else if result.Saved {
				fmt.Fprintf(w, "\nSaved to history as %s\n", result.Item.ID)
			}

			if output != "" {
				layout := compositor.Compose(result.Item.Image(), branding)
				if err := saveComposite(ctx, layout, output); err != nil {
					return err
				}
				fmt.Fprintf(w, "Branded image written to %s\n", output)
			}

			return nil
		},
	}
}
