package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/f1sherman/gphotos-sync/internal/index"
	"github.com/f1sherman/gphotos-sync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the local mirror and its index",
	Long: `Display the index location, schema version, record count, and the
scan cursor of the last successful run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		storePath := filepath.Join(cfg.RootFolder, index.StoreFileName)
		info, err := os.Stat(storePath)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s No index under %s\n", ui.RenderWarn("⚠"), cfg.RootFolder)
			fmt.Printf("   Run 'gphotos-sync sync' to create one\n\n")
			return nil
		}
		if err != nil {
			return err
		}

		db, err := openIndex(cfg, false)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		count, err := db.CountRecords(ctx)
		if err != nil {
			return err
		}
		version, err := db.Version()
		if err != nil {
			return err
		}
		drive, _, err := db.ScanCursors(ctx)
		if err != nil {
			return err
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("\n%s Mirror Status\n\n", ui.RenderAccent("📊"))
		fmt.Printf("Root:     %s\n", cfg.RootFolder)
		fmt.Printf("Index:    %s (%s)\n", storePath, sizeStr)
		fmt.Printf("Schema:   %s", version)
		if db.State() == index.GateMigrated {
			fmt.Printf("  %s", ui.RenderWarn("(rebuilt from an older store this open)"))
		}
		fmt.Println()
		fmt.Printf("Records:  %d\n", count)
		if drive.IsZero() {
			fmt.Printf("Last run: never\n")
		} else {
			fmt.Printf("Last run: %s\n", drive.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
