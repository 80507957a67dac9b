package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the outlook-mail-reader application
var rootCmd = &cobra.Command{
	Use:   "outlook-mail-reader",
	Short: "Reads Outlook mail matching a sender and keyword via Microsoft Graph",
	Long: `outlook-mail-reader signs in to a Microsoft account with the OAuth2
device-code flow and searches the mailbox for messages from a given sender
that mention a keyword in their subject or body.

Results are printed with a deep link that opens each message in the Outlook
web client. Configuration comes from the environment or a .env file.`,
	SilenceUsage: true,
}

// envFile optionally names a dotenv file to load before reading the
// environment.
var envFile string

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "outlook-mail-reader version %s\n" .Version}}`)

	// If no subcommand is provided, run the search command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "search")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newVersionCmd())
}
