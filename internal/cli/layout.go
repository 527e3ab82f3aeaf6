package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	authrepo "home-panel/internal/auth/repository"
	"home-panel/internal/common/database"
	"home-panel/internal/common/logging"
	dashrepo "home-panel/internal/dashboard/repository"

	"github.com/spf13/cobra"
)

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect or reset a user's saved dashboard layout",
	}
	cmd.AddCommand(newLayoutShowCmd())
	cmd.AddCommand(newLayoutResetCmd())
	return cmd
}

func newLayoutShowCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved layout as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLayouts(cmd.Context(), func(users *authrepo.Repository, layouts *dashrepo.LayoutRepository) error {
				return showLayout(cmd.Context(), cmd.OutOrStdout(), users, layouts, user)
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "username or user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newLayoutResetCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved layout so widgets fall back to the default flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withLayouts(ctx, func(users *authrepo.Repository, layouts *dashrepo.LayoutRepository) error {
				id, err := resolveUser(ctx, users, user)
				if err != nil {
					return err
				}
				if err := layouts.Reset(ctx, id); err != nil {
					return err
				}
				logging.FromContext(ctx).Info("layout reset", "user", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "username or user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func withLayouts(ctx context.Context, fn func(*authrepo.Repository, *dashrepo.LayoutRepository) error) error {
	cfg := configFromContext(ctx)
	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	users := authrepo.New(db)
	if err := users.Init(ctx); err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	return fn(users, dashrepo.NewLayoutRepository(users))
}

func showLayout(ctx context.Context, w io.Writer, users *authrepo.Repository, layouts *dashrepo.LayoutRepository, user string) error {
	id, err := resolveUser(ctx, users, user)
	if err != nil {
		return err
	}
	doc, ok, err := layouts.LoadDocument(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s has no saved layout", user)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// resolveUser принимает имя пользователя или его id.
func resolveUser(ctx context.Context, users *authrepo.Repository, user string) (string, error) {
	u, err := users.GetByUsername(ctx, user)
	if errors.Is(err, authrepo.ErrNotFound) {
		u, err = users.GetByID(ctx, user)
	}
	if errors.Is(err, authrepo.ErrNotFound) {
		return "", fmt.Errorf("user %q not found", user)
	}
	if err != nil {
		return "", err
	}
	return u.ID, nil
}
