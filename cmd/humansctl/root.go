package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/panyam/humans"
	gormstore "github.com/panyam/humans/stores/gorm"
)

var errInvalidCredentials = errors.New("invalid credentials")

// app is the state shared by subcommands once flags are resolved
type app struct {
	db   *gorm.DB
	dirs *gormstore.Directories
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		dbPath     string
		configPath string
		verbose    bool
	)
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "humansctl",
		Short:         "Manage users, groups and permissions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			gormLevel := logger.Silent
			if verbose {
				level = slog.LevelDebug
				gormLevel = logger.Info
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			cfg, err := humans.LoadConfig(configPath)
			if err != nil {
				return err
			}
			dirs, err := gormstore.Compose(gormstore.NewBase(), cfg)
			if err != nil {
				return err
			}
			db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
				Logger: logger.Default.LogMode(gormLevel),
			})
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			a.db, a.dirs = db, dirs
			slog.Debug("opened database", "path", dbPath, "tables", dirs.Base.Tables())
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "humans.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newUserCmd(a))
	rootCmd.AddCommand(newGroupCmd(a))
	rootCmd.AddCommand(newPermissionCmd(a))
	return rootCmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the configured tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.dirs.Base.Migrate(cmd.Context(), a.db); err != nil {
				return err
			}
			for _, name := range a.dirs.Base.Tables() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// findUser resolves a username or email address, failing when absent
func (a *app) findUser(ctx context.Context, identifier string) (*humans.User, error) {
	u, err := a.dirs.Users.Query(a.db).FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q not found", identifier)
	}
	return u, nil
}

func (a *app) groups() (*gormstore.GroupDef, error) {
	if a.dirs.Groups == nil {
		return nil, humans.ErrGroupsNotConfigured
	}
	return a.dirs.Groups, nil
}

func (a *app) permissions() (*gormstore.PermissionDef, error) {
	if a.dirs.Permissions == nil {
		return nil, humans.ErrPermissionsNotConfigured
	}
	return a.dirs.Permissions, nil
}
