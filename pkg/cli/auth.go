package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/usecase/auth"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// signIn authenticates with the configured email and password. An unverified
// account gets the verification mail again when resend is set.
func (cfg *config) signIn(ctx context.Context, svc *auth.Service, resend bool) (*model.User, error) {
	if cfg.email == "" {
		return nil, goerr.New("email is required")
	}
	password, err := passwordOrPrompt(cfg.password, "Password: ")
	if err != nil {
		return nil, err
	}

	user, err := svc.SignIn(ctx, cfg.email, password)
	if errors.Is(err, auth.ErrEmailNotVerified) && resend {
		if err := svc.ResendVerification(ctx, user); err != nil {
			return nil, goerr.Wrap(err, "failed to resend verification email")
		}
	}
	if err != nil {
		return nil, goerr.Wrap(err, auth.Message(err), goerr.V("email", cfg.email))
	}
	return user, nil
}

func signUpCommand() *cli.Command {
	var (
		cfg         config
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
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account and send the verification email",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			input := auth.SignUpInput{
				Email:       cfg.email,
				DisplayName: displayName,
			}
			password, err := passwordOrPrompt(cfg.password, "New password: ")
			if err != nil {
				return err
			}
			input.Password = password

			var svc *auth.Service
			if photoPath != "" {
				if input.Photo, err = readLocalFile(photoPath); err != nil {
					return err
				}
				storage, err := cfg.newStorage(ctx)
				if err != nil {
					return err
				}
				if svc, err = cfg.newAuth(ctx, storage); err != nil {
					return err
				}
			} else if svc, err = cfg.newAuth(ctx, nil); err != nil {
				return err
			}

			if _, err := svc.SignUp(ctx, input); err != nil {
				return goerr.Wrap(err, auth.Message(err), goerr.V("email", cfg.email))
			}

			fmt.Fprintln(c.Root().Writer, auth.VerificationSentMessage)
			return nil
		},
	}
}

func signInCommand() *cli.Command {
	var (
		cfg    config
		resend bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "resend",
			Usage:       "Send the verification email again if the address is not verified",
			Destination: &resend,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "signin",
		Usage: "Check the account credentials and verification state",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			svc, err := cfg.newAuth(ctx, nil)
			if err != nil {
				return err
			}

			user, err := cfg.signIn(ctx, svc, resend)
			if err != nil {
				if resend && errors.Is(err, auth.ErrEmailNotVerified) {
					fmt.Fprintln(c.Root().Writer, auth.VerificationSentMessage)
				}
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Signed in as %s <%s>\n", user.Name(), user.Email)
			return nil
		},
	}
}

func resetPasswordCommand() *cli.Command {
	var cfg config

	flags := identityFlags(&cfg)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "reset-password",
		Usage: "Send a password reset link",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			svc, err := cfg.newAuth(ctx, nil)
			if err != nil {
				return err
			}

			if err := svc.SendPasswordReset(ctx, cfg.email); err != nil {
				return goerr.Wrap(err, auth.ResetMessage(err), goerr.V("email", cfg.email))
			}

			fmt.Fprintln(c.Root().Writer, auth.ResetLinkSentMessage)
			return nil
		},
	}
}

func actionCommand() *cli.Command {
	var (
		cfg         config
		mode        string
		code        string
		newPassword string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "Action mode (verifyEmail, resetPassword)",
			Destination: &mode,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "code",
			Usage:       "Action code (oobCode of the emailed link)",
			Destination: &code,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "new-password",
			Usage:       "New password for resetPassword (prompted if empty)",
			Destination: &newPassword,
		},
	}
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "action",
		Usage: "Handle an emailed action link",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			action, err := auth.ParseAction(mode, code)
			if err != nil {
				return goerr.Wrap(err, "Invalid action link.")
			}

			svc, err := cfg.newAuth(ctx, nil)
			if err != nil {
				return err
			}

			switch a := action.(type) {
			case auth.VerifyEmail:
				if err := svc.VerifyEmail(ctx, a); err != nil {
					return goerr.Wrap(err, auth.InvalidVerifyCodeMessage)
				}
				fmt.Fprintln(w, auth.VerifiedMessage)

			case auth.ResetPassword:
				reset, err := svc.BeginPasswordReset(ctx, a)
				if err != nil {
					return goerr.Wrap(err, auth.InvalidResetCodeMessage)
				}
				fmt.Fprintf(w, "Resetting password for %s\n", reset.Email())

				for {
					pw, err := passwordOrPrompt(newPassword, "New password: ")
					if err != nil {
						return err
					}
					err = reset.Confirm(ctx, pw)
					if errors.Is(err, auth.ErrPasswordTooShort) && newPassword == "" {
						fmt.Fprintln(w, auth.PasswordTooShortMessage)
						continue
					}
					if errors.Is(err, auth.ErrPasswordTooShort) {
						return goerr.Wrap(err, auth.PasswordTooShortMessage)
					}
					if err != nil {
						return goerr.Wrap(err, auth.PasswordResetFailedMessage)
					}
					break
				}
				fmt.Fprintln(w, auth.PasswordResetMessage)
			}

			return nil
		},
	}
}
