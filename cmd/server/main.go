package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rpattn/driverlog/internal/config"
	"github.com/rpattn/driverlog/internal/db"
	"github.com/rpattn/driverlog/internal/export"
	"github.com/rpattn/driverlog/internal/query"
	"github.com/rpattn/driverlog/internal/repository"
)

var (
	configPath string
	settings   = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "driverlog",
	Short: "Driver daily work log service",
	Long: `driverlog collects daily driver logs with their stops, serves the
admin view and streams CSV or XLSX exports.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config directory or file (default ./config.yaml)")
	flags.String("base-dir", "", "directory holding the SQLite database file")
	_ = settings.BindPFlag("storage.base_dir", flags.Lookup("base-dir"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

// app holds the wired services shared by the commands.
type app struct {
	cfg     config.Config
	conn    *db.Connection
	queries *query.Service
	repo    repository.LogRepository
	exports *export.Service
}

func openApp(ctx context.Context, v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}

	conn, err := db.NewConnection(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := repository.NewLogRepository(conn)
	queries := query.NewService(repo)
	return &app{
		cfg:     cfg,
		conn:    conn,
		repo:    repo,
		queries: queries,
		exports: export.NewService(queries, export.WithFlushEvery(cfg.Export.FlushEvery)),
	}, nil
}

func (a *app) Close() {
	a.conn.Close()
}
