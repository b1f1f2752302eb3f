// Package cmd provides CLI commands for the phalanx tool.
//
// This package implements the command-line interface for phalanx: applying
// versioned CQL migrations to a Cassandra keyspace, inspecting their status,
// and dropping the keyspace for a clean rebuild.
//
// # Available Commands
//
//   - migrate: Create the keyspace and state table if needed, verify installed
//     migrations and install pending ones
//   - status: Show installed, pending and mismatched migrations (read-only)
//   - clean: Drop the keyspace, including the state table
//
// # Command Structure
//
// Each command is implemented as a separate function that returns a
// *cli.Command, following the urfave/cli/v3 pattern. Commands are provided
// to the application through the fx "commands" group (see Module).
//
// # Global Options
//
// Configuration is layered: built-in defaults, then the config file
// (-f/--config, default phalanx.yml), then flags. Every flag can also be set
// through a PHALANX_* environment variable. For example:
//
//	phalanx -f phalanx.yml migrate
//	phalanx --host 10.0.0.1 --host 10.0.0.2 -k my_keyspace -d 5 migrate
//	PHALANX_IGNORE_HISTORICAL_HASHES=true phalanx migrate
//	phalanx -v status
//
// --verbose enables debug logging and prints the resolved configuration with
// the password redacted. --quiet only logs errors.
package cmd
