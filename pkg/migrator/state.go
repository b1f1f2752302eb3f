package migrator

import (
	"slices"
	"time"

	"github.com/pkg/errors"
)

type (
	// InstalledVersion is a single row of the ledger table. Rows are written
	// once when a migration is installed and never updated.
	InstalledVersion struct {
		// Rank is the 1-based installation order.
		Rank int

		// Version is the version of the installed migration.
		Version int

		// Description is the migration's description at install time.
		Description string

		// File is the migration's file name at install time.
		File string

		// Hash is the content hash of the migration at install time.
		Hash string

		// Installed is when the ledger row was written.
		Installed time.Time

		// Duration is how long the migration took to execute, in whole seconds.
		Duration int
	}

	// State is a snapshot of what is installed in the cluster. It is re-read
	// whenever current truth is needed and never cached.
	//
	// There are three meaningful shapes:
	//   - Keyspace == "": the keyspace does not exist
	//   - StateTable == "": the keyspace exists but has no ledger table
	//   - both set: the ledger exists and Migrations lists its rows
	State struct {
		Keyspace   string
		StateTable string

		// Migrations is sorted ascending by version.
		Migrations []*InstalledVersion
	}
)

// NoKeyspace returns the state of a cluster without the target keyspace.
func NoKeyspace() *State {
	return &State{}
}

// NoStateTable returns the state of a keyspace without a ledger table.
func NoStateTable(keyspace string) *State {
	return &State{Keyspace: keyspace}
}

// NewState returns the state of a bootstrapped keyspace. The installed
// versions are sorted by version.
func NewState(keyspace, stateTable string, installed []*InstalledVersion) *State {
	sorted := slices.Clone(installed)
	slices.SortStableFunc(sorted, func(a, b *InstalledVersion) int {
		return a.Version - b.Version
	})

	return &State{
		Keyspace:   keyspace,
		StateTable: stateTable,
		Migrations: sorted,
	}
}

// HasKeyspace reports whether the keyspace exists.
func (s *State) HasKeyspace() bool { return s.Keyspace != "" }

// HasStateTable reports whether the ledger table exists.
func (s *State) HasStateTable() bool { return s.StateTable != "" }

// MaxVersion returns the highest installed version and false when nothing is
// installed.
func (s *State) MaxVersion() (int, bool) {
	if len(s.Migrations) == 0 {
		return 0, false
	}

	return s.Migrations[len(s.Migrations)-1].Version, true
}

// MaxRank returns the highest installed rank, or 0 when nothing is installed.
func (s *State) MaxRank() int {
	rank := 0
	for _, m := range s.Migrations {
		rank = max(rank, m.Rank)
	}

	return rank
}

// Find returns the ledger row for version, or nil.
func (s *State) Find(version int) *InstalledVersion {
	for _, m := range s.Migrations {
		if m.Version == version {
			return m
		}
	}

	return nil
}

// ScanInstalledVersion decodes a ledger row keyed by column name.
func ScanInstalledVersion(row map[string]any) (*InstalledVersion, error) {
	var (
		v   InstalledVersion
		err error
	)

	if v.Rank, err = intColumn(row, "rank"); err != nil {
		return nil, err
	}
	if v.Version, err = intColumn(row, "version"); err != nil {
		return nil, err
	}
	if v.Duration, err = intColumn(row, "duration"); err != nil {
		return nil, err
	}

	v.Description, _ = row["description"].(string)
	v.File, _ = row["file"].(string)
	v.Hash, _ = row["hash"].(string)
	v.Installed, _ = row["installed"].(time.Time)

	return &v, nil
}

func intColumn(row map[string]any, name string) (int, error) {
	switch v := row[name].(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case nil:
		return 0, nil
	default:
		return 0, errors.Errorf("unexpected type %T for ledger column %s", v, name)
	}
}
