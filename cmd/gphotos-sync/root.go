package main

import (
	"context"
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/f1sherman/gphotos-sync/internal/catalog"
	"github.com/f1sherman/gphotos-sync/internal/config"
	"github.com/f1sherman/gphotos-sync/internal/drive"
	"github.com/f1sherman/gphotos-sync/internal/index"
)

var (
	cfgFile    string
	rootFolder string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "gphotos-sync",
	Short: "Mirror a Google Photos collection to a local folder",
	Long: `gphotos-sync maintains a local mirror of the media Google Photos
exposes through its Google Drive folder.

A durable SQLite index (gphotos.sqlite, stored inside the root folder)
tracks every synced item, so interrupted runs resume without re-downloading
and repeat runs are incremental.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.gphotos-sync.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootFolder, "root", "", "local root folder for the mirror")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file (rotated)")
}

// loadConfig resolves the effective configuration, with persistent flags
// taking precedence over environment and file values.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if rootFolder != "" {
		cfg.RootFolder = rootFolder
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	return cfg, nil
}

// openIndex opens (or rebuilds) the durable index under the root folder.
func openIndex(cfg *config.Config, flush bool) (*index.DB, error) {
	db, err := index.Open(cfg.RootFolder, flush)
	if err != nil {
		return nil, fmt.Errorf("failed to open index under %s: %w", cfg.RootFolder, err)
	}
	return db, nil
}

// openCatalog builds the authenticated Drive catalog.
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, error) {
	svc, err := drive.NewService(ctx, drive.AuthConfig{
		ClientSecretFile: cfg.ClientSecretFile,
		TokenFile:        cfg.TokenFile,
	})
	if err != nil {
		return nil, err
	}
	return drive.NewCatalog(svc), nil
}

// parseDate accepts YYYY-MM-DD, falling back to natural language ("last
// month", "3 days ago"). A zero time means the flag was not set.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(s, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD or natural language)", s)
	}
	return result.Time, nil
}
