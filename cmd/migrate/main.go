package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/erp/workstation/internal/infrastructure/auth"
	"github.com/erp/workstation/internal/infrastructure/config"
	"github.com/erp/workstation/internal/infrastructure/logger"
	"github.com/erp/workstation/internal/infrastructure/migration"
	"github.com/erp/workstation/internal/infrastructure/persistence"
	"github.com/erp/workstation/migrations"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var (
	configPath     string
	migrationsPath string
	logLevel       string

	tokenUser        string
	tokenUsername    string
	tokenTTL         time.Duration
	tokenPermissions []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Workstation database migration tool",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default: search ./, ./config, /etc/workstation)")
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "read migrations from this directory instead of the embedded set")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newUpCmd())
	rootCmd.AddCommand(newDownCmd())
	rootCmd.AddCommand(newStepsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newForceCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDevTokenCmd())

	return rootCmd
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *migration.Migrator) error {
				return m.Up()
			})
		},
	}
}

func newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *migration.Migrator) error {
				return m.Down()
			})
		},
	}
}

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps <n>",
		Short: "Apply n migrations (positive=up, negative=down)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return withMigrator(func(m *migration.Migrator) error {
				return m.Steps(n)
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *migration.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if version == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	}
}

func newForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(func(m *migration.Migrator) error {
				return m.Force(version)
			})
		},
	}
}

func newCreateCmd() *cobra.Command {
	var driver string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := sourceDir(driver)
			if err != nil {
				return err
			}
			mf, err := migration.CreateMigration(dir, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\ncreated %s\n", mf.UpPath, mf.DownPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "postgres", "database driver the migration is written for")
	return cmd
}

func newListCmd() *cobra.Command {
	var driver string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the migrations on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := sourceDir(driver)
			if err != nil {
				return err
			}
			names, err := migration.ListMigrations(dir)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations found in", dir)
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Version", "Name")
			for _, name := range names {
				version, rest, _ := strings.Cut(name, "_")
				if err := table.Append(version, rest); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "postgres", "database driver whose migrations to list")
	return cmd
}

func newDevTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Sign a bearer token with the configured secret for local use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.App.Env == "production" {
				return errors.New("dev-token is disabled in production")
			}
			token, err := auth.NewJWTService(cfg.JWT).IssueToken(auth.IssueInput{
				UserID:      tokenUser,
				Username:    tokenUsername,
				Permissions: tokenPermissions,
				TTL:         tokenTTL,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenUser, "user", "", "user id carried by the token (required)")
	cmd.Flags().StringVar(&tokenUsername, "username", "", "display name carried by the token")
	cmd.Flags().DurationVar(&tokenTTL, "ttl", 8*time.Hour, "token lifetime")
	cmd.Flags().StringSliceVar(&tokenPermissions, "perm", nil, "permission granted by the token (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// withMigrator loads the configuration, opens the database and runs fn
// against a migrator for it
func withMigrator(fn func(m *migration.Migrator) error) error {
	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// sqlite schemas are created by gorm on connect
		db, err := persistence.NewDatabase(&cfg.Database)
		if err != nil {
			return err
		}
		log.Info("SQLite schema is up to date", zap.String("path", cfg.Database.Path))
		return db.Close()
	}

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	src := migration.Source{FS: migrations.FS}
	if migrationsPath != "" {
		dir, err := filepath.Abs(filepath.Join(migrationsPath, cfg.Database.Driver))
		if err != nil {
			return err
		}
		src = migration.Source{Dir: dir}
	}

	m, err := migration.New(db, cfg.Database.Driver, src, log.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return fn(m)
}

// sourceDir resolves the on-disk directory holding a driver's migrations
func sourceDir(driver string) (string, error) {
	switch driver {
	case "postgres", "mysql":
	default:
		return "", fmt.Errorf("%w: %s", migration.ErrUnsupportedDriver, driver)
	}
	base := migrationsPath
	if base == "" {
		base = defaultMigrationsPath
	}
	return filepath.Abs(filepath.Join(base, driver))
}
