package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/alchemy/pkg/usecase/compositor"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func renderCommand() *cli.Command {
	var (
		cfg        config
		edits      brandingEdits
		image      string
		output     string
		layoutOnly bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "image",
			Usage:       "Base image: file path, http(s) URL or data URL",
			Destination: &image,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file (.png or .jpg)",
			Destination: &output,
		},
		&cli.BoolFlag{
			Name:        "layout",
			Usage:       "Print the overlay layout as JSON instead of rendering",
			Destination: &layoutOnly,
		},
	}
	flags = append(flags, brandingFlags(&edits)...)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "render",
		Usage: "Brand an image. Signed-in runs start from the saved branding; flags override it without saving.",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			if output == "" && !layoutOnly {
				return goerr.New("output or layout is required")
			}

			var layout *compositor.Layout
			if cfg.email != "" {
				sess, err := cfg.startSession(ctx, sessionOptions{})
				if err != nil {
					return err
				}
				defer sess.Close()

				if err := edits.applyTo(c, sess.Profile()); err != nil {
					return err
				}
				layout = sess.Preview(image)
			} else {
				branding, err := edits.branding(c)
				if err != nil {
					return err
				}
				layout = compositor.Compose(image, branding)
			}

			if layoutOnly {
				raw, err := json.MarshalIndent(layout, "", "  ")
				if err != nil {
					return goerr.Wrap(err, "failed to marshal layout")
				}
				fmt.Fprintf(c.Root().Writer, "%s\n", string(raw))
				return nil
			}

			if err := saveComposite(ctx, layout, output); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Branded image written to %s\n", output)
			return nil
		},
	}
}
