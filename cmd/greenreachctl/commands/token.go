package commands

import (
	"errors"
	"fmt"
	"time"

	userstore "github.com/dalemusser/greenreach/internal/app/store/users"
	"github.com/dalemusser/greenreach/internal/app/system/auth"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/spf13/cobra"
)

// TokenCmd creates the token command
func TokenCmd(app *AppContext) *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an existing active account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.JWTSecret == "" {
				return errNoSecret
			}
			u, err := userstore.New(app.DB).GetByEmail(cmd.Context(), email)
			if errors.Is(err, userstore.ErrNotFound) {
				return fmt.Errorf("no account with email %q", email)
			}
			if err != nil {
				return fmt.Errorf("failed to load account: %w", err)
			}
			if u.Status != userstore.StatusActive {
				return fmt.Errorf("account %q is %s", email, u.Status)
			}

			id, err := identity.New(u.ID.Hex(), u.Role, u.FullName)
			if err != nil {
				return fmt.Errorf("account %q has an unusable role: %w", email, err)
			}
			tm, err := auth.NewTokenManager(app.JWTSecret, app.JWTIssuer, ttl, app.Logger)
			if err != nil {
				return err
			}
			tok, exp, err := tm.Issue(id)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "role=%s expires=%s\n", id.Role, exp.Format(time.RFC3339))
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the account")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
