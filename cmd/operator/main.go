// Command operator provisions an account with a role and prints a bearer
// token for it. Login belongs to the identity service; this is for staff
// onboarding and local testing.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zjoart/go-paystack-logistics/internal/auth"
	"github.com/zjoart/go-paystack-logistics/internal/user"
	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/database"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operator --email someone@example.com",
		Short:   "Provision an account and print a bearer token for it",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE:    runOperator,
	}

	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("name", "", "Display name for a new account")
	cmd.Flags().String("role", string(user.RoleCustomer), "Role for a new account")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// provisionRequest is the validated flag set.
type provisionRequest struct {
	email string
	name  string
	role  user.Role
	ttl   time.Duration
}

func parseFlags(cmd *cobra.Command) (provisionRequest, error) {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	req := provisionRequest{email: strings.TrimSpace(email), name: name, role: user.Role(role), ttl: ttl}
	if req.email == "" {
		return req, fmt.Errorf("--email must not be blank")
	}
	if !req.role.Valid() {
		return req, fmt.Errorf("unknown role %q", role)
	}
	if req.ttl <= 0 {
		return req, fmt.Errorf("--ttl must be positive, got %s", ttl)
	}
	return req, nil
}

func runOperator(cmd *cobra.Command, args []string) error {
	req, err := parseFlags(cmd)
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	logger.Init(cfg.Env)
	database.Connect(cfg.DBUrl)
	if err := database.Migrate(database.DB, &user.User{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}

	token, err := provision(cmd.Context(), user.NewRepository(database.DB), cfg.JWTSecret, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

// provision finds or creates the account and signs a token for it. An
// existing account keeps its role.
func provision(ctx context.Context, users user.Repository, secret string, req provisionRequest) (string, error) {
	usr, err := users.FindByEmail(ctx, req.email)
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		usr = &user.User{Email: req.email, Name: req.name, Role: req.role}
		err = users.CreateUser(ctx, usr)
		if err == nil {
			logger.Info("Account provisioned", logger.Fields{logger.UserIdKey: usr.ID.String(), "role": req.role})
		}
	}
	if err != nil {
		return "", fmt.Errorf("load account %s: %w", req.email, err)
	}
	if usr.Role != req.role {
		logger.Warn("Existing account keeps its role", logger.Fields{logger.UserIdKey: usr.ID.String(), "role": usr.Role})
	}

	token, err := auth.IssueToken(secret, usr.ID.String(), req.ttl)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
