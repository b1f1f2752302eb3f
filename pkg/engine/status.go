package engine

import (
	"context"

	"github.com/pseudomuto/phalanx/pkg/consts"
	"github.com/pseudomuto/phalanx/pkg/migrator"
)

type (
	// StatusReport describes how the keyspace compares to the migration files
	// without changing anything.
	StatusReport struct {
		Keyspace   string
		StateTable string

		// KeyspaceExists and StateTableExists reflect the detected state
		KeyspaceExists   bool
		StateTableExists bool

		// CurrentVersion is the highest installed version, or -1 when nothing
		// is installed
		CurrentVersion int

		// Installed lists the ledger rows sorted by version
		Installed []*migrator.InstalledVersion

		// Pending lists the files a migrate run would execute, in order
		Pending []*migrator.Migration

		// Mismatches lists the files that would fail hash verification
		Mismatches []*Mismatch

		// MissingFiles lists installed versions that no longer have a file
		MissingFiles []int
	}

	// Mismatch is a file that disagrees with the ledger.
	Mismatch struct {
		Version int
		File    string
		Reason  string
	}
)

// UpToDate reports whether there is nothing pending and nothing mismatched.
func (r *StatusReport) UpToDate() bool {
	return r.KeyspaceExists && len(r.Pending) == 0 && len(r.Mismatches) == 0
}

// Status compares the cluster with the migration files. It runs the same
// checks as ExecuteMigration but collects problems instead of failing on the
// first one.
func (e *Engine) Status(ctx context.Context) (*StatusReport, error) {
	state, err := e.DetectMigrationState(ctx)
	if err != nil {
		return nil, err
	}

	files, err := e.DetectFileMigrations()
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Keyspace:         e.keyspace,
		StateTable:       e.stateTable,
		KeyspaceExists:   state.HasKeyspace(),
		StateTableExists: state.HasStateTable(),
		CurrentVersion:   -1,
		Installed:        state.Migrations,
	}

	maxVersion, ok := state.MaxVersion()
	if ok {
		report.CurrentVersion = maxVersion
	}

	for _, m := range files {
		switch {
		case !state.HasKeyspace():
			report.Pending = append(report.Pending, m)
		case m.Version == consts.KeyspaceVersion:
			// only used to create the keyspace
		case m.Version > maxVersion:
			report.Pending = append(report.Pending, m)
		case !e.cfg.IgnoreHistoricalHashes():
			if err := checkInstalled(state, m); err != nil {
				report.Mismatches = append(report.Mismatches, &Mismatch{
					Version: m.Version,
					File:    m.File,
					Reason:  err.Error(),
				})
			}
		}
	}

	for _, installed := range state.Migrations {
		if findMigration(files, installed.Version) == nil {
			report.MissingFiles = append(report.MissingFiles, installed.Version)
		}
	}

	return report, nil
}
