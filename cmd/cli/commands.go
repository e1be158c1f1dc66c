package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/tenantcms/internal/repository"
	"github.com/aryan0dhankhar/tenantcms/internal/security/auth"
	"github.com/aryan0dhankhar/tenantcms/internal/security/strength"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
	"github.com/aryan0dhankhar/tenantcms/internal/upload"
	"github.com/aryan0dhankhar/tenantcms/pkg/config"
	"github.com/aryan0dhankhar/tenantcms/pkg/database"
)

// errRejected makes the process exit non-zero after a verdict was printed.
var errRejected = errors.New("rejected")

// openDatabase loads configuration and connects to PostgreSQL.
func openDatabase(cmd *cobra.Command) (*database.ConnectionPool, *slog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cmd.ErrOrStderr(), cfg.LogLevel, false)
	if cfg.Database.Driver != "postgres" {
		return nil, nil, fmt.Errorf("DB_DRIVER=%s has no persistent schema to manage", cfg.Database.Driver)
	}
	dbCfg := cfg.Database
	dbCfg.MaxOpenConns = 2
	dbCfg.MaxIdleConns = 1
	pool, err := database.NewConnectionPool(cmd.Context(), dbCfg, log)
	if err != nil {
		return nil, nil, err
	}
	return pool, log, nil
}

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, log, err := openDatabase(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := database.Migrate(cmd.Context(), pool.GetDB(), log)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(out, "Applied %s\n", v)
			}
			return nil
		},
	}
}

// NewBootstrapCommand creates the bootstrap command
func NewBootstrapCommand() *cobra.Command {
	var in service.BootstrapInput

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first organization and its owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, log, err := openDatabase(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			db := pool.GetDB()
			svc := service.NewAuthService(
				repository.NewPostgresUserRepository(db, log),
				repository.NewPostgresOrganizationRepository(db, log),
				auth.NewTokenManager("", "", 0),
				false,
				log,
			)
			return runBootstrap(cmd.Context(), cmd.OutOrStdout(), svc, in)
		},
	}

	cmd.Flags().StringVar(&in.OrganizationName, "org-name", "", "organization name")
	cmd.Flags().StringVar(&in.OrganizationSlug, "org-slug", "", "organization slug (default: derived from the name)")
	cmd.Flags().StringVar(&in.Email, "email", "", "owner email")
	cmd.Flags().StringVar(&in.Username, "username", "", "owner username")
	cmd.Flags().StringVar(&in.Password, "password", "", "owner password")
	for _, name := range []string{"org-name", "email", "username", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

type bootstrapper interface {
	Bootstrap(ctx context.Context, in service.BootstrapInput) (*domain.Organization, *domain.User, error)
}

func runBootstrap(ctx context.Context, out io.Writer, svc bootstrapper, in service.BootstrapInput) error {
	org, owner, err := svc.Bootstrap(ctx, in)
	if err != nil {
		if details := domain.Details(err); len(details) > 0 {
			return fmt.Errorf("%s: %s", domain.Message(err), strings.Join(details, "; "))
		}
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Organization\t%s (%s)\n", org.Slug, org.ID)
	fmt.Fprintf(w, "Owner\t%s (%s)\n", owner.Email, owner.ID)
	return w.Flush()
}

// NewSecretCommand creates the secret command group
func NewSecretCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Check or generate JWT signing secrets",
	}

	var value string
	check := &cobra.Command{
		Use:   "check",
		Short: "Score a JWT secret (JWT_SECRET by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("value") {
				value = os.Getenv("JWT_SECRET")
			}
			return printStrength(cmd.OutOrStdout(), strength.JWTSecret(value))
		},
	}
	check.Flags().StringVar(&value, "value", "", "secret to check instead of JWT_SECRET")

	var length int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Print a random secret that passes the strength check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := strength.GenerateSecret(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	generate.Flags().IntVar(&length, "length", 64, "secret length in characters")

	cmd.AddCommand(check, generate)
	return cmd
}

// NewPasswordCommand creates the password command group
func NewPasswordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password policy tools",
	}

	var info strength.UserInfo
	check := &cobra.Command{
		Use:   "check <password>",
		Short: "Score a password against the account policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStrength(cmd.OutOrStdout(), strength.Password(args[0], info))
		},
	}
	check.Flags().StringVar(&info.Email, "email", "", "account email")
	check.Flags().StringVar(&info.Username, "username", "", "account username")
	check.Flags().StringVar(&info.FirstName, "first-name", "", "account first name")
	check.Flags().StringVar(&info.LastName, "last-name", "", "account last name")

	cmd.AddCommand(check)
	return cmd
}

func printStrength(out io.Writer, res strength.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Valid\t%t\n", res.Valid)
	fmt.Fprintf(w, "Score\t%d\n", res.Score)
	fmt.Fprintf(w, "Strength\t%s\n", res.Strength)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "Error\t%s\n", e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "Warning\t%s\n", warn)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !res.Valid {
		return errRejected
	}
	return nil
}

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	var mimeType string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Run the upload validation pipeline on a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(path))
			}
			res := upload.NewValidator().Validate(upload.Candidate{
				OriginalName: filepath.Base(path),
				Data:         data,
				MimeType:     mimeType,
				Size:         int64(len(data)),
			})
			if err := printScan(cmd.OutOrStdout(), res, asJSON); err != nil {
				return err
			}
			if !res.Accepted {
				return errRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mimeType, "mime", "", "declared MIME type (default: guessed from the extension)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printScan(out io.Writer, res upload.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Accepted\t%t\n", res.Accepted)
	fmt.Fprintf(w, "Size\t%d\n", res.FileInfo.Size)
	fmt.Fprintf(w, "SHA-256\t%s\n", res.FileInfo.Hash)
	if res.FileInfo.Kind != "" {
		fmt.Fprintf(w, "Kind\t%s\n", res.FileInfo.Kind)
	}
	for _, f := range res.Findings {
		fmt.Fprintf(w, "%s\t[%s] %s\n", f.Check, f.Severity, f.Message)
	}
	return w.Flush()
}
