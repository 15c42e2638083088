package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/usecase/profile"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// brandingEdits are branding changes given by flags. Only flags that were set apply.
type brandingEdits struct {
	logoPath  string
	clearLogo bool
	caption   string
	position  string
	opacity   int64
}

func brandingFlags(e *brandingEdits) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "logo",
			Usage:       "Logo image file",
			Destination: &e.logoPath,
		},
		&cli.BoolFlag{
			Name:        "clear-logo",
			Usage:       "Remove the logo",
			Destination: &e.clearLogo,
		},
		&cli.StringFlag{
			Name:        "caption",
			Usage:       "Caption text under the logo",
			Destination: &e.caption,
		},
		&cli.StringFlag{
			Name:        "position",
			Usage:       "Overlay position (left, right)",
			Destination: &e.position,
		},
		&cli.IntFlag{
			Name:        "opacity",
			Usage:       "Overlay opacity percentage (10-100)",
			Destination: &e.opacity,
		},
	}
}

// applyTo edits r with the flags set on c
func (e *brandingEdits) applyTo(c *cli.Command, r *profile.Reconciler) error {
	if e.clearLogo {
		r.ClearLogo()
	}
	if e.logoPath != "" {
		file, err := readLocalFile(e.logoPath)
		if err != nil {
			return err
		}
		r.SetLogoFile(file)
	}
	if c.IsSet("caption") {
		r.SetCaption(e.caption)
	}
	if c.IsSet("position") {
		r.SetPosition(model.ParseLogoPosition(e.position))
	}
	if c.IsSet("opacity") {
		r.SetOpacity(int(e.opacity))
	}
	return nil
}

// branding builds a config from the flags set on c, starting from defaults
func (e *brandingEdits) branding(c *cli.Command) (model.BrandingConfig, error) {
	cfg := model.DefaultBranding()
	if e.logoPath != "" {
		file, err := readLocalFile(e.logoPath)
		if err != nil {
			return cfg, err
		}
		cfg.LogoFile = file
	}
	cfg.Caption = e.caption
	if c.IsSet("position") {
		cfg.Position = model.ParseLogoPosition(e.position)
	}
	if c.IsSet("opacity") {
		cfg.Opacity = model.ClampOpacity(int(e.opacity))
	}
	return cfg.Normalize(), nil
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show or change the profile and branding",
		Commands: []*cli.Command{
			profileShowCommand(),
			profileSetCommand(),
		},
	}
}

func profileShowCommand() *cli.Command {
	var cfg config

	flags := identityFlags(&cfg)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Show the profile and saved branding",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			sess, err := cfg.startSession(ctx, sessionOptions{})
			if err != nil {
				return err
			}
			defer sess.Close()

			w := c.Root().Writer
			r := sess.Profile()
			fmt.Fprintf(w, "Name:     %s\n", r.DisplayName())
			fmt.Fprintf(w, "Email:    %s\n", r.User().Email)
			fmt.Fprintf(w, "Photo:    %s\n", imageLabel(r.PhotoURL()))
			printBranding(w, sess.Branding())
			return nil
		},
	}
}

func profileSetCommand() *cli.Command {
	var (
		cfg         config
		edits       brandingEdits
		displayName string
		photoPath   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "display-name",
			Aliases:     []string{"n"},
			Usage:       "Display name",
			Destination: &displayName,
		},
		&cli.StringFlag{
			Name:        "photo",
			Usage:       "Profile picture file",
			Destination: &photoPath,
		},
	}
	flags = append(flags, brandingFlags(&edits)...)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "set",
		Usage: "Change the profile and branding and save them",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			sess, err := cfg.startSession(ctx, sessionOptions{})
			if err != nil {
				return err
			}
			defer sess.Close()

			r := sess.Profile()
			if err := edits.applyTo(c, r); err != nil {
				return err
			}
			if c.IsSet("display-name") {
				r.SetDisplayName(displayName)
			}
			if photoPath != "" {
				file, err := readLocalFile(photoPath)
				if err != nil {
					return err
				}
				r.SetPhotoFile(file)
			}

			saved, err := r.Save(ctx)
			if err != nil {
				return goerr.Wrap(err, profile.Message(err))
			}

			w := c.Root().Writer
			fmt.Fprintln(w, profile.SavedMessage)
			printBranding(w, saved)
			return nil
		},
	}
}
