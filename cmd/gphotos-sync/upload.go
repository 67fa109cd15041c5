package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/f1sherman/gphotos-sync/internal/localfs"
	"github.com/f1sherman/gphotos-sync/internal/syncer"
	"github.com/f1sherman/gphotos-sync/internal/ui"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Mirror local media back to the remote collection",
	Long: `Walk the root folder (or a subfolder) and mirror every local image to
the remote collection.

Files whose name already exists remotely are updated in place, keeping their
remote id; new names create new items.

Examples:
  gphotos-sync upload
  gphotos-sync upload --start-folder 2021 --include-video`,
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

		s := syncer.New(db, remote, localfs.New(), syncer.Options{
			RootFolder:   cfg.RootFolder,
			StartFolder:  uploadFlags.startFolder,
			IncludeVideo: uploadFlags.includeVideo || cfg.IncludeVideo,
		}, nil, nil, cfg.NewLogger("[upload] "))

		stats, err := s.Upload(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%s Upload complete\n", ui.RenderPass("✓"))
		fmt.Printf("   Uploaded: %d\n", stats.Synced)
		if stats.Failed > 0 {
			fmt.Printf("   %s %d\n", ui.RenderWarn("Failed:"), stats.Failed)
		}
		return nil
	},
}

var uploadFlags struct {
	startFolder  string
	includeVideo bool
}

func init() {
	uploadCmd.Flags().StringVar(&uploadFlags.startFolder, "start-folder", "", "restrict the walk to a local subfolder")
	uploadCmd.Flags().BoolVar(&uploadFlags.includeVideo, "include-video", false, "also upload video media")

	rootCmd.AddCommand(uploadCmd)
}
