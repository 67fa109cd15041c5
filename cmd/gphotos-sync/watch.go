package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/f1sherman/gphotos-sync/internal/daemon"
	"github.com/f1sherman/gphotos-sync/internal/localfs"
	"github.com/f1sherman/gphotos-sync/internal/syncer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the root folder and upload new media as it appears",
	Long: `Run in the foreground, watching the root folder for new media files.

Each new image (and video, with --include-video) is uploaded to the remote
collection once its file events have settled, so files still being copied in
are never uploaded half-written.

Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		db, err := openIndex(cfg, false)
		if err != nil {
			return err
		}
		defer db.Close()

		remote, err := openCatalog(ctx, cfg)
		if err != nil {
			return err
		}

		includeVideo := watchFlags.includeVideo || cfg.IncludeVideo

		s := syncer.New(db, remote, localfs.New(), syncer.Options{
			RootFolder:   cfg.RootFolder,
			IncludeVideo: includeVideo,
		}, nil, nil, cfg.NewLogger("[watch] "))

		d, err := daemon.New(s, cfg.RootFolder, &daemon.Config{
			DebounceInterval: watchFlags.debounce,
			IncludeVideo:     includeVideo,
			Logger:           cfg.NewLogger("[daemon] "),
		})
		if err != nil {
			return err
		}

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfg.RootFolder)
		return d.Start(ctx)
	},
}

var watchFlags struct {
	includeVideo bool
	debounce     time.Duration
}

func init() {
	watchCmd.Flags().BoolVar(&watchFlags.includeVideo, "include-video", false, "also upload video media")
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 2*time.Second, "quiet period before a changed file is uploaded")

	rootCmd.AddCommand(watchCmd)
}
