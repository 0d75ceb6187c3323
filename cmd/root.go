package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mockbox application
var rootCmd = &cobra.Command{
	Use:   "mockbox",
	Short: "Simulated GitHub and Gmail backends exposed as MCP tools",
	Long: `mockbox serves in-memory simulations of the GitHub repository API and
the Gmail API as MCP (Model Context Protocol) tools.

It is intended for developing and testing AI assistants against
deterministic GitHub and Gmail state without touching real accounts.

It can run as:
  - An MCP server over stdio (default)
  - An MCP server over streamable HTTP`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mockbox version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newVersionCmd())
}
