// Package migrator discovers and loads versioned CQL migration files and
// models the ledger of migrations already installed in a keyspace.
//
// Migration files are named <prefix><version><separator><description>.<ext>,
// for example 001-create_users.cql. The version is a non-negative integer
// (leading zeros are allowed) and version 0 is reserved for the migration
// that creates the keyspace.
//
// A migration may start with an embedded metadata block that overrides the
// description, consistency and invocation delay for that one file:
//
//	-- metadata:
//	--   description: create the users table
//	--   consistency: quorum
//	--   invocationDelay: 5
//
//	CREATE TABLE $${{KEYSPACE}}$$.users (id uuid PRIMARY KEY);
//
// Example usage:
//
//	fsys := os.DirFS("migrations")
//	opts := migrator.FileNameOptions{Separator: "-", Extension: "cql"}
//
//	descriptors, err := migrator.LoadDescriptors(fsys, opts)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, d := range descriptors {
//		mig, err := migrator.LoadMigration(fsys, d)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%d %s %s\n", mig.Version, mig.Description, mig.Hash)
//	}
package migrator
