package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/f1sherman/gphotos-sync/internal/drive"
	"github.com/f1sherman/gphotos-sync/internal/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to the remote collection",
	Long: `Run the interactive OAuth2 flow.

Visit the printed URL, grant access, and paste the authorization code back.
The resulting token is cached (token.json by default) and reused by every
other command until it is revoked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		url, exchange, err := drive.Authorize(drive.AuthConfig{
			ClientSecretFile: cfg.ClientSecretFile,
			TokenFile:        cfg.TokenFile,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Visit this URL and grant access:\n\n  %s\n\n", url)
		fmt.Print("Paste the authorization code: ")

		reader := bufio.NewReader(os.Stdin)
		code, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}

		if err := exchange(cmd.Context(), strings.TrimSpace(code)); err != nil {
			return err
		}

		fmt.Printf("%s Token cached at %s\n", ui.RenderPass("✓"), cfg.TokenFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
