package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	createDisplayName string
	createTier        string
	createSecret      string
	rotateSecret      string
)

func init() {
	identityCreateCmd.Flags().StringVar(&createDisplayName, "display-name", "", "Display name for the new identity")
	identityCreateCmd.Flags().StringVar(&createTier, "tier", "admin", "Tier for the new identity: admin, super-admin")
	identityCreateCmd.Flags().StringVar(&createSecret, "secret", "", "Initial secret (required)")
	identityCreateCmd.MarkFlagRequired("secret")

	identityRotateCmd.Flags().StringVar(&rotateSecret, "secret", "", "New secret (required)")
	identityRotateCmd.MarkFlagRequired("secret")

	identityCmd.AddCommand(identityListCmd)
	identityCmd.AddCommand(identityCreateCmd)
	identityCmd.AddCommand(identityDeleteCmd)
	identityCmd.AddCommand(identityRotateCmd)
	rootCmd.AddCommand(identityCmd)
}

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage administrative identities",
}

var identityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List administrative identities",
	RunE: func(cmd *cobra.Command, args []string) error {
		identities, err := newClient().ListIdentities(cmd.Context())
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return outputJSON(identities)
		}

		if len(identities) == 0 {
			fmt.Println("No identities registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tHANDLE\tTIER\tNAME\tCREATED")
		for _, id := range identities {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				id.ID, id.ContactHandle, colorTier(id.Tier), id.DisplayName, id.CreatedAt)
		}
		return w.Flush()
	},
}

var identityCreateCmd = &cobra.Command{
	Use:   "create <contact-handle>",
	Short: "Create an administrative identity",
	Long: `Create an administrative identity.

Creates the credential at the configured directory and registers the
identity record. Requires authority over the requested tier: the
master key can create any tier, a super-admin can create admins.

Examples:
  csctl identity create ops@example.com --secret s3cret --tier admin
  csctl identity create lead@example.com --secret s3cret --tier super-admin --display-name "Site Lead"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := newClient().CreateIdentity(cmd.Context(), args[0], createSecret, createDisplayName, createTier)
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return outputJSON(identity)
		}

		fmt.Printf("Created %s identity %s (%s)\n", identity.Tier, identity.ID, identity.ContactHandle)
		return nil
	},
}

var identityDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an administrative identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteIdentity(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted identity %s\n", args[0])
		return nil
	},
}

var identityRotateCmd = &cobra.Command{
	Use:   "rotate <id>",
	Short: "Rotate an identity's credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().RotateCredential(cmd.Context(), args[0], rotateSecret); err != nil {
			return err
		}
		fmt.Printf("Rotated credential for %s\n", args[0])
		return nil
	},
}

// colorTier renders a tier name with a color hinting at its privilege.
func colorTier(tier string) string {
	switch tier {
	case "master":
		return color.RedString(tier)
	case "super-admin":
		return color.YellowString(tier)
	case "admin":
		return color.GreenString(tier)
	default:
		return tier
	}
}
