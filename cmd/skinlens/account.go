package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/skinlens/internal/adapters/vendor"
	"github.com/okian/skinlens/internal/domain/model"
)

func (c *cli) signUpCmd() *cobra.Command {
	var in vendor.SignUpRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account; the vendor emails a one-time code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.svc.SignUp(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	var email, otp string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm the account with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.svc.VerifyOTP(cmd.Context(), email, otp)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sessionView(s))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&otp, "otp", "", "one-time code")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.svc.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sessionView(s))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.svc.Logout(cmd.Context())
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return err
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var (
		p      model.Profile
		avatar string
	)
	cmd := &cobra.Command{
		Use:   "profile [show|create|update]",
		Short: "Show, create or update the skin profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			action := "show"
			if len(args) == 1 {
				action = args[0]
			}
			var (
				out model.Profile
				err error
			)
			switch action {
			case "show":
				out, err = c.svc.Profile(ctx)
			case "create":
				out, err = c.svc.CreateProfile(ctx, p)
			case "update":
				var av *vendor.Avatar
				if avatar != "" {
					data, readErr := os.ReadFile(avatar)
					if readErr != nil {
						return fmt.Errorf("read avatar: %w", readErr)
					}
					av = &vendor.Avatar{Filename: filepath.Base(avatar), Data: data}
				}
				out, err = c.svc.UpdateProfile(ctx, p, av)
			default:
				return fmt.Errorf("unknown profile action %q", action)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.FullName, "full-name", "", "full name")
	f.IntVar(&p.Age, "age", 0, "age in years")
	f.StringVar(&p.Gender, "gender", "", "gender")
	f.StringVar(&p.SkinType, "skin-type", "", "skin type, e.g. oily or dry")
	f.StringSliceVar(&p.Concerns, "concern", nil, "skin concern, repeatable")
	f.StringVar(&avatar, "avatar", "", "avatar image for update")
	return cmd
}

// sessionView hides tokens from command output.
func sessionView(s model.Session) map[string]any {
	out := map[string]any{"signedIn": s.SignedIn()}
	if s.User != nil {
		out["user"] = s.User
	}
	if s.Profile != nil {
		out["profile"] = s.Profile
	}
	return out
}
