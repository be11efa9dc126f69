package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/ogurasousui/hr-datahub/internal/platform/config"
)

const defaultMigrationsDir = "assets/migrations"

type migrateOptions struct {
	ConfigPath    string
	MigrationsDir string
}

func newRootCmd() *cobra.Command {
	var opts migrateOptions

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Provision the HR tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (defaults to CONFIG_PATH env or "+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&opts.MigrationsDir, "dir", defaultMigrationsDir, "directory containing migration files")

	for _, action := range []struct {
		name  string
		short string
	}{
		{"up", "Create the tables"},
		{"down", "Drop the tables created by up"},
		{"version", "Print the applied migration version"},
		{"drop", "Drop everything in the database"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   action.name,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := config.LoadDotEnv(); err != nil {
					return err
				}
				cfg, err := config.Load(effectiveConfigPath(opts.ConfigPath))
				if err != nil {
					return err
				}
				msg, err := runMigration(action.name, opts.MigrationsDir, cfg.Database.DSN())
				if err != nil {
					return fmt.Errorf("migration %s failed: %w", action.name, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			},
		})
	}
	return cmd
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return config.DefaultPath
}

func sourceURL(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	return "file://" + filepath.ToSlash(absDir), nil
}

var actions = []string{"up", "down", "version", "drop"}

func runMigration(action, dir, dsn string) (string, error) {
	if !slices.Contains(actions, action) {
		return "", fmt.Errorf("unsupported action %q", action)
	}

	src, err := sourceURL(dir)
	if err != nil {
		return "", err
	}

	m, err := migrate.New(src, dsn)
	if err != nil {
		return "", fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return "", err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return "", err
		}
	case "drop":
		if err := m.Drop(); err != nil {
			return "", err
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				return "no migration applied", nil
			}
			return "", err
		}
		return fmt.Sprintf("version=%d dirty=%t", version, dirty), nil
	default:
		return "", fmt.Errorf("unsupported action %q", action)
	}
	return fmt.Sprintf("migration %s completed", action), nil
}

// Execute はルートコマンドを実行します。
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
