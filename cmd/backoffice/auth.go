package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/storeops/backoffice/internal/cmdutils"
	"github.com/storeops/backoffice/internal/config"
	"github.com/storeops/backoffice/pkg/api"
)

func loginCmd() *cobra.Command {
	var email, password string

	cmd := cmdutils.CobraCommand("login", "Log in to the back office",
		"Exchanges credentials for a session and stores it for later commands.",
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			if password == "" {
				password = os.Getenv("BACKOFFICE_PASSWORD")
			}

			if password == "" {
				return errors.New("no password given, use --password or BACKOFFICE_PASSWORD")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			s, err := a.public.Login(ctx, email, password)
			if err != nil {
				return err
			}

			if err := a.manager.Apply(ctx, s); err != nil {
				return err
			}

			slogctx.Info(ctx, "Logged in", "email", s.Email, "tenant", s.TenantID)

			return nil
		})

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (defaults to BACKOFFICE_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func logoutCmd() *cobra.Command {
	return cmdutils.CobraCommand("logout", "Discard the stored session",
		"Removes the session from memory and from the state directory.",
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			if err := a.manager.Reset(ctx); err != nil {
				return err
			}

			slogctx.Info(ctx, "Logged out")

			return nil
		})
}

func whoamiCmd() *cobra.Command {
	return cmdutils.CobraCommand("whoami", "Show the current session",
		"Prints the identity and token expiry of the stored session.",
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			s, ok := a.manager.Current()
			if !ok {
				return errors.New("not logged in")
			}

			identity := map[string]any{
				"email":    s.Email,
				"role":     s.Role,
				"tenantId": s.TenantID,
			}

			if expiry, err := s.AccessTokenExpiry(); err == nil {
				identity["accessTokenExpiresAt"] = expiry.Format(time.RFC3339)
			}

			return printJSON(identity)
		})
}

func registerCmd() *cobra.Command {
	var req api.RegisterRequest

	cmd := cmdutils.CobraCommand("register", "Register a new tenant",
		"Creates a tenant together with its admin user.",
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("BACKOFFICE_PASSWORD")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			resp, err := a.public.Register(ctx, req)
			if err != nil {
				return err
			}

			fmt.Printf("Registered tenant %s, log in with `backoffice login --email %s`\n",
				resp.TenantID, req.Email)

			return nil
		})

	cmd.Flags().StringVar(&req.TenantName, "tenant", "", "tenant name")
	cmd.Flags().StringVar(&req.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&req.Password, "password", "", "admin password (defaults to BACKOFFICE_PASSWORD)")
	cmd.Flags().StringVar(&req.PlanID, "plan", "", "subscription plan id")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func plansCmd() *cobra.Command {
	return cmdutils.CobraCommand("plans", "List the subscription plans",
		"Lists the publicly available subscription plans.",
		func(ctx context.Context, cfg *config.Config, _ []string) error {
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			plans, err := a.public.ListPlans(ctx)
			if err != nil {
				return err
			}

			return printJSON(plans)
		})
}
