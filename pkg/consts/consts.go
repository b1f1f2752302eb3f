package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultConfigFile is the config file loaded when no --config flag is given
	DefaultConfigFile = "phalanx.yml"

	// DefaultConsistency is the consistency used for migration statements
	DefaultConsistency = "serial"

	// DefaultStateTable is the name of the ledger table created inside the keyspace
	DefaultStateTable = "phalanx_state"

	// DefaultFileSeparator separates the version from the description in file names
	DefaultFileSeparator = "-"

	// DefaultFileExtension is the extension a file must carry to be considered a migration
	DefaultFileExtension = "cql"

	// KeyspacePlaceholder is replaced with the configured keyspace in every
	// migration before it is executed.
	KeyspacePlaceholder = "$${{KEYSPACE}}$$"

	// ReservedMarker delimits raw string literals in CQL. File names and
	// descriptions must not contain it.
	ReservedMarker = "$$"

	// KeyspaceVersion is the reserved version of the keyspace creation migration.
	KeyspaceVersion = 0
)
