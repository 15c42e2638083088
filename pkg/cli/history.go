package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage the generation history of the account",
		Commands: []*cli.Command{
			historyListCommand(),
			historyShowCommand(),
			historyDeleteCommand(),
		},
	}
}

func historyIDFlag(id *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "id",
		Usage:       "History item ID",
		Destination: id,
		Required:    true,
	}
}

func historyListCommand() *cli.Command {
	var cfg config

	flags := identityFlags(&cfg)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List history items, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			sess, err := cfg.startSession(ctx, sessionOptions{})
			if err != nil {
				return err
			}
			defer sess.Close()

			items := sess.History()
			if len(items) == 0 {
				fmt.Fprintln(c.Root().Writer, "No history yet")
				return nil
			}
			for _, item := range items {
				printHistoryLine(c.Root().Writer, item)
			}
			return nil
		},
	}
}

func historyShowCommand() *cli.Command {
	var (
		cfg    config
		id     string
		output string
	)

	flags := []cli.Flag{
		historyIDFlag(&id),
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the image branded with the saved branding to this file",
			Destination: &output,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Restore a history item and show its content",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			sess, err := cfg.startSession(ctx, sessionOptions{})
			if err != nil {
				return err
			}
			defer sess.Close()

			sel, err := sess.Restore(model.HistoryID(id))
			if err != nil {
				return err
			}
			printSelection(c.Root().Writer, sel)

			if output == "" {
				return nil
			}
			layout, ok := sess.Composite()
			if !ok {
				return goerr.New("history item has no image", goerr.V("id", id))
			}
			if err := saveComposite(ctx, layout, output); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "\nBranded image written to %s\n", output)
			return nil
		},
	}
}

func historyDeleteCommand() *cli.Command {
	var (
		cfg config
		id  string
	)

	flags := []cli.Flag{historyIDFlag(&id)}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a history item",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			sess, err := cfg.startSession(ctx, sessionOptions{})
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.Delete(ctx, model.HistoryID(id)); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", id)
			return nil
		},
	}
}
