package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Binidu01/video-fetcher/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the video-fetcher config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Interactive wizard, seeded with the existing config if present
		cfg, err := config.RunInitWizard()
		if err != nil {
			return err
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		path, _ := config.ConfigPath()
		fmt.Printf("\nSaved %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
