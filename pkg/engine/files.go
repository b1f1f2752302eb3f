package engine

import (
	"os"

	"github.com/pseudomuto/phalanx/pkg/errs"
	"github.com/pseudomuto/phalanx/pkg/migrator"
)

// DetectFileMigrations loads the migration files from the configured
// directory, sorted by version.
//
// Two files with the same version fail with errs.DuplicateVersions before any
// file contents are read.
func (e *Engine) DetectFileMigrations() ([]*migrator.Migration, error) {
	dir := e.cfg.Migration.Directory
	if dir == "" {
		return nil, errs.New(errs.InvalidConfig, "migration directory is not defined")
	}

	opts := e.cfg.FileNameOptions()
	if opts.Separator == "" {
		return nil, errs.New(errs.InvalidConfig, "migration file separator is not defined")
	}

	fsys := os.DirFS(dir)
	descriptors, err := migrator.LoadDescriptors(fsys, opts)
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(descriptors); i++ {
		if descriptors[i].Version == descriptors[i-1].Version {
			return nil, errs.New(
				errs.DuplicateVersions,
				"there are two file migrations with duplicate version %d",
				descriptors[i].Version,
			)
		}
	}

	migrations := make([]*migrator.Migration, 0, len(descriptors))
	for _, d := range descriptors {
		m, err := migrator.LoadMigration(fsys, d)
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	e.log.Debug("Detected file migrations", "directory", dir, "count", len(migrations))
	return migrations, nil
}
