// Package cmd implements the command-line interface for mockbox.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the simulated GitHub and Gmail backends
//   - seed: Validate a YAML seed file and summarize the state it would create
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
