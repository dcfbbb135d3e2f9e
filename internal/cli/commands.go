// Package cli wires the memberctl commands using cobra.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rpattn/memberload/internal/app"
	"github.com/rpattn/memberload/internal/config"
	"github.com/rpattn/memberload/internal/db"
	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/export"
	"github.com/rpattn/memberload/internal/ingestion"
	"github.com/rpattn/memberload/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

// NewRootCmd builds the memberctl command tree.
func NewRootCmd() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "memberctl",
		Short:         "Validate and register members from bulk upload files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", ".", "Directory containing config.yaml")

	rootCmd.AddCommand(newProcessCmd(&opts, domain.ModeUpload, "Register every valid row of a member file"))
	rootCmd.AddCommand(newProcessCmd(&opts, domain.ModeValidate, "Check a member file without registering anyone"))
	rootCmd.AddCommand(newMigrateCmd(&opts))
	rootCmd.AddCommand(newServeCmd(&opts))

	return rootCmd
}

func newProcessCmd(root *rootOptions, mode domain.Mode, short string) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   string(mode) + " FILE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(root.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var format export.Format
			if outPath != "" {
				if format, err = export.FormatFromPath(outPath); err != nil {
					return err
				}
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer file.Close()

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Service.Process(cmd.Context(), ingestion.Request{
				FileName: filepath.Base(args[0]),
				Mode:     mode,
				Data:     file,
			})
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := writeReportFile(outPath, format, report); err != nil {
					return err
				}
			}
			printSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the annotated report to this path (.csv, .xlsx or .json)")

	return cmd
}

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(db.Up), string(db.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(root.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			direction := db.Direction(args[0])
			if err := db.RunMigrations(cfg.Database, direction); err != nil {
				return err
			}
			logger.WithField("direction", direction).Info("migrations applied")
			return nil
		},
	}
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(root.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if migrateFirst {
				if err := db.RunMigrations(cfg.Database, db.Up); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply pending migrations before serving")

	return cmd
}

func setup(configPath string, logOut io.Writer) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}

	logger, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return cfg, nil, err
	}

	if cfg.Source == "" {
		logger.Debug("no config.yaml found, using defaults and environment")
	} else {
		logger.WithField("path", cfg.Source).Debug("loaded config")
	}
	return cfg, logger, nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
