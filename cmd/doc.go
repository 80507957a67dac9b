// Package cmd implements the command-line interface for outlook-mail-reader.
//
// This package provides the following commands:
//   - search: Search the mailbox for messages matching a sender and keyword
//   - login: Run the device-code flow and cache the resulting token
//   - version: Display version information
//
// The search command is the default command when no subcommand is specified.
package cmd
