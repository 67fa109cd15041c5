package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/f1sherman/gphotos-sync/internal/ui"
)

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List indexed albums, optionally exporting a YAML manifest",
	Long: `List the albums recorded in the index with their member counts.

With --export, a YAML manifest is written instead, mapping each album to its
member files (paths relative to the root folder). The manifest is a stable,
diffable snapshot of album membership.

Examples:
  gphotos-sync albums
  gphotos-sync albums --export albums.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openIndex(cfg, false)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		albums, err := db.ListAlbums(ctx)
		if err != nil {
			return err
		}

		if albumsFlags.export == "" {
			if len(albums) == 0 {
				fmt.Println("No albums indexed yet. Run a sync first.")
				return nil
			}
			for _, album := range albums {
				entries, err := db.AlbumFiles(ctx, album.ID)
				if err != nil {
					return err
				}
				fmt.Printf("%s (%d files)\n", ui.RenderAccent(album.Name), len(entries))
			}
			return nil
		}

		manifest := albumManifest{Exported: time.Now().UTC()}
		for _, album := range albums {
			entries, err := db.AlbumFiles(ctx, album.ID)
			if err != nil {
				return err
			}
			entry := albumExport{
				ID:   album.ID,
				Name: album.Name,
			}
			if !album.StartDate.IsZero() {
				entry.StartDate = album.StartDate.Format("2006-01-02")
			}
			if !album.EndDate.IsZero() {
				entry.EndDate = album.EndDate.Format("2006-01-02")
			}
			for _, file := range entries {
				entry.Files = append(entry.Files, filepath.Join(file.Path, file.FileName))
			}
			manifest.Albums = append(manifest.Albums, entry)
		}

		data, err := yaml.Marshal(&manifest)
		if err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		if err := os.WriteFile(albumsFlags.export, data, 0o644); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}

		fmt.Printf("%s Wrote %d albums to %s\n",
			ui.RenderPass("✓"), len(manifest.Albums), albumsFlags.export)
		return nil
	},
}

// albumManifest is the YAML export shape.
type albumManifest struct {
	Exported time.Time     `yaml:"exported"`
	Albums   []albumExport `yaml:"albums"`
}

type albumExport struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	StartDate string   `yaml:"start_date,omitempty"`
	EndDate   string   `yaml:"end_date,omitempty"`
	Files     []string `yaml:"files"`
}

var albumsFlags struct {
	export string
}

func init() {
	albumsCmd.Flags().StringVar(&albumsFlags.export, "export", "", "write a YAML album manifest to this file")

	rootCmd.AddCommand(albumsCmd)
}
