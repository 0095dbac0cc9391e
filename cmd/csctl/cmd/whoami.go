package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the caller's resolved authority",
	Long: `Display the authority tier the server resolves for the
configured credentials.

Unauthenticated callers resolve to the anonymous user tier; this is
not an error.

Examples:
  csctl whoami
  csctl whoami -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		principal, err := newClient().WhoAmI(cmd.Context())
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return outputJSON(principal)
		}

		fmt.Printf("Tier:    %s\n", colorTier(principal.Tier))
		if principal.SubjectID != "" {
			fmt.Printf("Subject: %s\n", principal.SubjectID)
		}
		if principal.ContactHandle != "" {
			fmt.Printf("Handle:  %s\n", principal.ContactHandle)
		}
		return nil
	},
}
