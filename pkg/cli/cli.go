package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "alchemy",
		Usage: "Transmute ideas into branded multi-platform content",
		Commands: []*cli.Command{
			signUpCommand(),
			signInCommand(),
			resetPasswordCommand(),
			actionCommand(),
			generateCommand(),
			historyCommand(),
			profileCommand(),
			renderCommand(),
			studioCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
