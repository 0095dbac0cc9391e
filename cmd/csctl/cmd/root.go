// Package cmd implements the csctl CLI commands.
package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/clearsite/clearsite/internal/version"
)

var (
	// Global flags
	serverURL    string
	outputFormat string
	masterHandle string
	masterSecret string
	sessionToken string
)

var rootCmd = &cobra.Command{
	Use:   "csctl",
	Short: "clearsite CLI for site and identity administration",
	Long: `csctl is a command-line interface for the clearsite API server.

It provides commands to manage administrative identities, inspect
the caller's resolved authority, and check server health.

Authentication uses either the master key pair (--master-handle and
--master-secret, or CLEARSITE_MASTER_HANDLE / CLEARSITE_MASTER_SECRET)
or a directory session token (--token / CLEARSITE_TOKEN).`,
	Version:      version.String(),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CLEARSITE_SERVER", "http://localhost:8080"), "API server base URL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json")
	rootCmd.PersistentFlags().StringVar(&masterHandle, "master-handle", os.Getenv("CLEARSITE_MASTER_HANDLE"), "Master key contact handle")
	rootCmd.PersistentFlags().StringVar(&masterSecret, "master-secret", os.Getenv("CLEARSITE_MASTER_SECRET"), "Master key secret")
	rootCmd.PersistentFlags().StringVar(&sessionToken, "token", os.Getenv("CLEARSITE_TOKEN"), "Directory session token")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newClient builds an API client from the global flags.
func newClient() *APIClient {
	return NewAPIClient(serverURL, masterHandle, masterSecret, sessionToken)
}

// outputJSON prints data as indented JSON.
func outputJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
