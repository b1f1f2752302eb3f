package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/phalanx/pkg/cassandra"
	"github.com/pseudomuto/phalanx/pkg/consts"
	"github.com/pseudomuto/phalanx/pkg/errs"
	"github.com/pseudomuto/phalanx/pkg/migrator"
)

type (
	// Report summarizes an ExecuteMigration run. A partial report is returned
	// alongside any error so callers can tell what was installed before the
	// failure.
	Report struct {
		// Keyspace is the migrated keyspace
		Keyspace string

		// KeyspaceCreated is set when the version 0 migration created the keyspace
		KeyspaceCreated bool

		// StateTableCreated is set when the ledger table was created
		StateTableCreated bool

		// VerifiedThrough is the highest version whose hash was verified, or -1
		// when verification was skipped or there was nothing to verify
		VerifiedThrough int

		// PreviousVersion is the highest installed version before the run
		PreviousVersion int

		// CurrentVersion is the highest installed version after the run
		CurrentVersion int

		// Installed lists the migrations installed by this run, in order
		Installed []*InstallResult
	}

	// InstallResult records a single installed migration.
	InstallResult struct {
		Version     int
		Rank        int
		File        string
		Description string
		Hash        string
		Consistency string

		// Duration is the statement's wall-clock time, truncated to whole
		// seconds as recorded in the ledger
		Duration time.Duration

		// Recorded is false when another run had already claimed the rank in
		// the ledger
		Recorded bool
	}
)

// ExecuteMigration brings the keyspace up to date with files, starting from
// state (as returned by DetectMigrationState).
//
// The steps run in order and the first failure aborts the run:
//
//  1. keyspace bootstrap (errs.NoKeyspaceMigration, errs.IncorrectKeyspace)
//  2. ledger bootstrap (errs.IncorrectKeyspace)
//  3. hash verification, unless disabled (errs.MigrationMismatch)
//  4. installation (errs.InvalidFileMetadata, errs.InvalidConfig,
//     errs.MigrationError)
func (e *Engine) ExecuteMigration(ctx context.Context, state *migrator.State, files []*migrator.Migration) (*Report, error) {
	report := &Report{Keyspace: e.keyspace, VerifiedThrough: -1}

	var err error
	switch {
	case !state.HasKeyspace():
		e.log.Debug("Keyspace not found; creating with version 0 migration", "keyspace", e.keyspace)
		if state, err = e.createKeyspace(ctx, files); err != nil {
			return report, err
		}
		report.KeyspaceCreated = true
	case state.Keyspace != e.keyspace:
		return report, errs.New(
			errs.IncorrectKeyspace,
			"migration state keyspace [%s] mismatches engine keyspace [%s]",
			state.Keyspace,
			e.keyspace,
		)
	}

	switch {
	case !state.HasStateTable():
		e.log.Debug("State table not found; creating", "table", e.qualifiedStateTable())
		if state, err = e.createStateTable(ctx); err != nil {
			return report, err
		}
		report.StateTableCreated = true
	case state.StateTable != e.stateTable:
		return report, errs.New(
			errs.IncorrectKeyspace,
			"migration state table [%s.%s] mismatches engine state table [%s]",
			state.Keyspace,
			state.StateTable,
			e.stateTable,
		)
	}

	report.PreviousVersion, _ = state.MaxVersion()
	report.CurrentVersion = report.PreviousVersion

	if !e.cfg.IgnoreHistoricalHashes() {
		if report.VerifiedThrough, err = e.verifyHistoricalHashes(state, files); err != nil {
			return report, err
		}
	}

	err = e.installNewMigrations(ctx, state, files, report)
	return report, err
}

// createKeyspace runs the version 0 migration on the unscoped session and
// returns the refreshed state.
func (e *Engine) createKeyspace(ctx context.Context, files []*migrator.Migration) (*migrator.State, error) {
	m := findMigration(files, consts.KeyspaceVersion)
	if m == nil {
		return nil, errs.New(
			errs.NoKeyspaceMigration,
			"keyspace %s is missing and requires a reserved version 0 migration to create",
			e.keyspace,
		)
	}

	if !migrator.DetectKeyspaceCreation(m.Contents) {
		return nil, errs.New(
			errs.NoKeyspaceMigration,
			"keyspace creation migration (version 0) requires a CREATE KEYSPACE command",
		)
	}

	if err := e.neutral.Exec(ctx, e.substitute(m.Contents)); err != nil {
		return nil, errs.Wrap(errs.MigrationError, err, "migration version 0 (%s) failed", m.File)
	}

	state, err := e.DetectMigrationState(ctx)
	if err != nil {
		return nil, err
	}

	if state.Keyspace != e.keyspace {
		return nil, errs.New(
			errs.IncorrectKeyspace,
			"expected keyspace %s was not created by migration version 0",
			e.keyspace,
		)
	}

	e.log.Info("Created keyspace", "keyspace", e.keyspace, "file", m.File)
	return state, nil
}

// createStateTable creates the ledger table and returns the refreshed state.
func (e *Engine) createStateTable(ctx context.Context) (*migrator.State, error) {
	stmt := fmt.Sprintf(`CREATE TABLE %s (
  rank int PRIMARY KEY,
  version int,
  description text,
  file text,
  hash text,
  installed timestamp,
  duration int
)`, e.qualifiedStateTable())

	if err := e.serial.Exec(ctx, stmt); err != nil {
		return nil, errors.Wrapf(err, "failed to create state table %s", e.qualifiedStateTable())
	}

	state, err := e.DetectMigrationState(ctx)
	if err != nil {
		return nil, err
	}

	if state.StateTable != e.stateTable {
		return nil, errs.New(
			errs.IncorrectKeyspace,
			"expected state table %s but it was not created properly",
			e.qualifiedStateTable(),
		)
	}

	e.log.Info("Created state table", "table", e.qualifiedStateTable())
	return state, nil
}

// verifyHistoricalHashes checks every file up to the highest installed version
// against its ledger row and returns that version. It returns -1 when the
// ledger is empty. Ledger rows without a file are not checked; Status reports
// them as missing files.
func (e *Engine) verifyHistoricalHashes(state *migrator.State, files []*migrator.Migration) (int, error) {
	maxVersion, ok := state.MaxVersion()
	if !ok {
		return -1, nil
	}

	e.log.Debug("Verifying migration hashes", "through", maxVersion)
	for _, m := range files {
		if m.Version <= consts.KeyspaceVersion || m.Version > maxVersion {
			continue
		}

		if err := checkInstalled(state, m); err != nil {
			return -1, err
		}
	}

	e.log.Info("Verified migration hashes", "through", maxVersion)
	return maxVersion, nil
}

// installNewMigrations executes every file newer than the highest installed
// version, appending to report as it goes.
func (e *Engine) installNewMigrations(
	ctx context.Context,
	state *migrator.State,
	files []*migrator.Migration,
	report *Report,
) error {
	maxVersion, _ := state.MaxVersion()
	rank := state.MaxRank()

	pending := make([]*migrator.Migration, 0, len(files))
	for _, m := range files {
		if m.Version > maxVersion {
			pending = append(pending, m)
		}
	}

	if len(pending) == 0 {
		e.log.Info("No migrations to run", "keyspace", e.keyspace, "version", maxVersion)
		return nil
	}

	for _, m := range pending {
		if strings.Contains(m.File, consts.ReservedMarker) {
			return errs.New(
				errs.InvalidFileMetadata,
				"migration version %d cannot have %s in its filename: %s",
				m.Version,
				consts.ReservedMarker,
				m.File,
			)
		}

		if strings.Contains(m.Description, consts.ReservedMarker) {
			return errs.New(
				errs.InvalidFileMetadata,
				"migration version %d cannot have %s in its description: %s",
				m.Version,
				consts.ReservedMarker,
				m.Description,
			)
		}

		rank++
		result, err := e.install(ctx, m, rank)
		if err != nil {
			return err
		}

		report.Installed = append(report.Installed, result)
		report.CurrentVersion = m.Version

		if err := e.pause(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

// install executes a single migration and records it in the ledger at rank.
func (e *Engine) install(ctx context.Context, m *migrator.Migration, rank int) (*InstallResult, error) {
	session, consistency, transient, err := e.sessionFor(m)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = session.Exec(ctx, e.substitute(m.Contents))
	elapsed := time.Since(start).Truncate(time.Second)

	if transient {
		_ = session.Close()
	}

	if err != nil {
		e.log.Error("Error in migration", "version", m.Version, "file", m.File)
		return nil, errs.Wrap(errs.MigrationError, err, "migration version %d (%s) failed", m.Version, m.File)
	}

	e.log.Info(
		"Migration successful",
		"version", m.Version,
		"description", m.Description,
		"duration", elapsed.String(),
	)

	applied, err := e.any.ExecCAS(
		ctx,
		fmt.Sprintf(
			"INSERT INTO %s (rank, version, description, file, hash, installed, duration) "+
				"VALUES (?, ?, ?, ?, ?, toTimestamp(now()), ?) IF NOT EXISTS",
			e.qualifiedStateTable(),
		),
		rank,
		m.Version,
		m.Description,
		m.File,
		m.Hash,
		int(elapsed/time.Second),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to record migration version %d in %s", m.Version, e.qualifiedStateTable())
	}

	if !applied {
		e.log.Warn("State table rank already recorded by another run", "rank", rank, "version", m.Version)
	}

	return &InstallResult{
		Version:     m.Version,
		Rank:        rank,
		File:        m.File,
		Description: m.Description,
		Hash:        m.Hash,
		Consistency: consistency,
		Duration:    elapsed,
		Recorded:    applied,
	}, nil
}

// sessionFor returns the session to execute m with. A migration that overrides
// the consistency gets a transient session which the caller must close.
func (e *Engine) sessionFor(m *migrator.Migration) (Session, string, bool, error) {
	defaultName := cassandra.ConsistencyName(e.clientOpts.Consistency)
	if m.Metadata == nil || m.Metadata.Consistency == nil {
		return e.client, defaultName, false, nil
	}

	c, err := cassandra.ParseConsistency(*m.Metadata.Consistency)
	if err != nil {
		return nil, "", false, errs.New(
			errs.InvalidConfig,
			"migration version %d consistency %s is invalid",
			m.Version,
			*m.Metadata.Consistency,
		)
	}

	if c == e.clientOpts.Consistency {
		return e.client, defaultName, false, nil
	}

	return e.connect(e.clientOpts.WithConsistency(c)), cassandra.ConsistencyName(c), true, nil
}

// pause waits for the migration's invocation delay, or the configured one.
func (e *Engine) pause(ctx context.Context, m *migrator.Migration) error {
	delay := e.cfg.InvocationDelay()
	if m.Metadata != nil && m.Metadata.InvocationDelay != nil {
		delay = time.Duration(*m.Metadata.InvocationDelay) * time.Second
	}

	if delay <= 0 {
		return nil
	}

	e.log.Debug("Delaying before next migration", "version", m.Version, "delay", delay.String())
	return e.sleep(ctx, delay)
}

func findMigration(files []*migrator.Migration, version int) *migrator.Migration {
	for _, m := range files {
		if m.Version == version {
			return m
		}
	}

	return nil
}

// checkInstalled verifies that m has a ledger row with a matching hash.
func checkInstalled(state *migrator.State, m *migrator.Migration) error {
	installed := state.Find(m.Version)
	if installed == nil {
		return errs.New(
			errs.MigrationMismatch,
			"file migration version %d does not exist in the state table",
			m.Version,
		)
	}

	if installed.Hash != m.Hash {
		return errs.New(
			errs.MigrationMismatch,
			"file migration version %d hash [%s] does not match state table hash [%s]",
			m.Version,
			m.Hash,
			installed.Hash,
		)
	}

	return nil
}
