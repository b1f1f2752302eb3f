// Package engine reconciles migration files on disk with the migration ledger
// stored in a Cassandra keyspace and installs whatever is missing.
//
// A run is always the same sequence: detect what the cluster already has,
// load the migration files, then execute. Execution happens in four ordered
// steps, and the first failure aborts the run:
//
//  1. keyspace bootstrap: a missing keyspace is created by the reserved
//     version 0 migration
//  2. ledger bootstrap: a missing ledger table is created
//  3. hash verification: installed migrations must still match their files
//  4. installation: every file newer than the highest installed version is
//     executed in version order and recorded in the ledger
//
// # Usage Example
//
//	eng, err := engine.New(engine.Options{Config: cfg})
//	if err != nil {
//		return err
//	}
//	defer func() { _ = eng.Close() }()
//
//	state, err := eng.DetectMigrationState(ctx)
//	if err != nil {
//		return err
//	}
//
//	files, err := eng.DetectFileMigrations()
//	if err != nil {
//		return err
//	}
//
//	report, err := eng.ExecuteMigration(ctx, state, files)
//	if err != nil {
//		return err
//	}
//
//	fmt.Printf("keyspace now at version %d\n", report.CurrentVersion)
//
// # Recovery
//
// Nothing is rolled back. The ledger always reflects exactly the migrations
// that completed, so fixing the failing file (or the cluster) and running
// again resumes from the failed version.
//
// # Concurrency
//
// An engine processes one migration at a time and is not safe for concurrent
// use. Two processes migrating the same keyspace are only guarded at the
// ledger insert, which uses INSERT ... IF NOT EXISTS on the rank.
package engine
