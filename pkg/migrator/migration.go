package migrator

import (
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/phalanx/pkg/errs"
)

// Migration is a fully resolved migration file, ready to be verified against
// the ledger and executed.
type Migration struct {
	// File is the base name of the migration file (e.g. 001-create_users.cql).
	File string

	// Version is the migration's version parsed from its file name.
	Version int

	// Description is the embedded metadata description when present,
	// otherwise the description derived from the file name.
	Description string

	// Contents is the full, unmodified text of the file.
	Contents string

	// Hash is the SHA256 digest of Contents (see Hash).
	Hash string

	// Metadata is the embedded metadata block, or nil when the file has none.
	Metadata *Metadata
}

// LoadMigration reads the file behind d from fsys and resolves it into a
// Migration.
//
// The file name and description are not checked for the reserved "$$" marker
// and the contents are not inspected for a CREATE KEYSPACE statement. Both
// checks depend on how the migration is about to be used and belong to the
// engine.
//
// Returns an errs.FileNotFound error when the file no longer exists.
func LoadMigration(fsys fs.FS, d *Descriptor) (*Migration, error) {
	data, err := fs.ReadFile(fsys, d.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.FileNotFound, err, "migration version %d", d.Version)
		}

		return nil, errors.Wrapf(err, "failed to read migration: %s", d.Path)
	}

	contents := string(data)
	metadata := ExtractMetadata(contents)

	description := d.Description
	if metadata != nil && metadata.Description != nil {
		description = *metadata.Description
	}

	return &Migration{
		File:        path.Base(d.Path),
		Version:     d.Version,
		Description: description,
		Contents:    contents,
		Hash:        Hash(contents),
		Metadata:    metadata,
	}, nil
}

// DetectKeyspaceCreation reports whether any line of contents begins with a
// CREATE KEYSPACE statement (case-insensitive, ignoring surrounding
// whitespace).
func DetectKeyspaceCreation(contents string) bool {
	for _, line := range strings.Split(contents, "\n") {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "create keyspace") {
			return true
		}
	}

	return false
}
