package cli

import (
	"github.com/spf13/cobra"

	"github.com/Binidu01/video-fetcher/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update video-fetcher to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updater.Update()
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
