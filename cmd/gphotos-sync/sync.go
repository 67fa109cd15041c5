package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/f1sherman/gphotos-sync/internal/dashboard"
	"github.com/f1sherman/gphotos-sync/internal/localfs"
	"github.com/f1sherman/gphotos-sync/internal/syncer"
	"github.com/f1sherman/gphotos-sync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download remote media into the local mirror",
	Long: `Download every media item from the remote collection into the root
folder, skipping items the index already knows about.

Repeat runs are incremental: without --start-date, only items modified since
the previous successful run are considered. Interrupted runs resume safely;
completed files are detected and never re-downloaded.

Examples:
  gphotos-sync sync
  gphotos-sync sync --start-date 2021-01-01 --end-date "last month"
  gphotos-sync sync --start-folder 2021/06 --include-video
  gphotos-sync sync --index-only           # rebuild bookkeeping, no transfers
  gphotos-sync sync --flush-index --yes    # discard the index and start over`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		startDate, err := parseDate(syncFlags.startDate)
		if err != nil {
			return err
		}
		endDate, err := parseDate(syncFlags.endDate)
		if err != nil {
			return err
		}

		if syncFlags.flushIndex && !syncFlags.yes {
			ok, err := confirmFlush(cfg.RootFolder)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		db, err := openIndex(cfg, syncFlags.flushIndex)
		if err != nil {
			return err
		}
		defer db.Close()

		remote, err := openCatalog(ctx, cfg)
		if err != nil {
			return err
		}

		logger := cfg.NewLogger("[sync] ")

		var events syncer.Events
		if syncFlags.dashboard {
			server := dashboard.NewServer(&dashboard.Config{
				Port:   cfg.DashboardPort,
				Logger: cfg.NewLogger("[dashboard] "),
			})
			if err := server.Start(); err != nil {
				return err
			}
			defer server.Stop()
			fmt.Printf("Dashboard: ws://localhost:%d/ws\n", cfg.DashboardPort)
			events = dashboard.NewEvents(server)
		}

		s := syncer.New(db, remote, localfs.New(), syncer.Options{
			RootFolder:   cfg.RootFolder,
			StartFolder:  syncFlags.startFolder,
			StartDate:    startDate,
			EndDate:      endDate,
			IncludeVideo: syncFlags.includeVideo || cfg.IncludeVideo,
			IndexOnly:    syncFlags.indexOnly,
		}, nil, events, logger)

		stats, err := s.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%s Sync complete\n", ui.RenderPass("✓"))
		fmt.Printf("   Synced:  %d\n", stats.Synced)
		fmt.Printf("   Skipped: %d\n", stats.Skipped)
		if stats.Failed > 0 {
			fmt.Printf("   %s %d\n", ui.RenderWarn("Failed:"), stats.Failed)
		}
		return nil
	},
}

var syncFlags struct {
	startFolder  string
	startDate    string
	endDate      string
	includeVideo bool
	indexOnly    bool
	flushIndex   bool
	yes          bool
	dashboard    bool
}

// confirmFlush asks before throwing away the sync bookkeeping; every item
// will be re-checked (and potentially re-downloaded) on the next run.
func confirmFlush(rootFolder string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Discard the sync index under %s?", rootFolder)).
			Description("All sync history is lost; the next run starts from scratch.").
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

func init() {
	syncCmd.Flags().StringVar(&syncFlags.startFolder, "start-folder", "", "restrict the run to a remote subfolder (e.g. 2021/06)")
	syncCmd.Flags().StringVar(&syncFlags.startDate, "start-date", "", "only consider items modified or created on/after this date")
	syncCmd.Flags().StringVar(&syncFlags.endDate, "end-date", "", "only consider items modified on/before this date")
	syncCmd.Flags().BoolVar(&syncFlags.includeVideo, "include-video", false, "also sync video media")
	syncCmd.Flags().BoolVar(&syncFlags.indexOnly, "index-only", false, "record items in the index without downloading")
	syncCmd.Flags().BoolVar(&syncFlags.flushIndex, "flush-index", false, "discard the index before syncing")
	syncCmd.Flags().BoolVarP(&syncFlags.yes, "yes", "y", false, "skip confirmation prompts")
	syncCmd.Flags().BoolVar(&syncFlags.dashboard, "dashboard", false, "serve a WebSocket progress dashboard")

	rootCmd.AddCommand(syncCmd)
}
