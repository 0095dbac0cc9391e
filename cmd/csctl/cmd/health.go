package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := newClient().Health(cmd.Context())
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return outputJSON(health)
		}

		fmt.Printf("Status:  %v\n", health["status"])
		fmt.Printf("Version: %v\n", health["version"])
		return nil
	},
}
