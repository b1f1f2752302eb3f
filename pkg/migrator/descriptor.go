package migrator

import (
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type (
	// FileNameOptions controls which directory entries are treated as
	// migrations and how their names are split.
	FileNameOptions struct {
		// Prefix, when set, must start every migration file name. It is
		// stripped before the version is parsed (e.g. "v" for v001-init.cql).
		Prefix string

		// Separator splits the version from the description. Required.
		Separator string

		// Extension, when set, must end every migration file name
		// (e.g. "cql").
		Extension string
	}

	// Descriptor is a migration identified purely from its file name.
	Descriptor struct {
		// Path is the file's path relative to the scanned filesystem.
		Path string

		// Version is the numeric version parsed from the file name.
		Version int

		// Description is the human readable tail of the file name with
		// underscores replaced by spaces and the extension removed.
		Description string
	}
)

// LoadDescriptors lists the root of fsys and returns a Descriptor for every
// entry that parses as a migration file name, sorted ascending by version.
//
// Entries that are directories, that do not match the prefix or extension,
// that lack the separator, or whose version token is not an unsigned integer
// are skipped. Duplicate versions are returned as-is; detecting them is left
// to the caller so it can fail before any file contents are read.
//
// Example:
//
//	descriptors, err := migrator.LoadDescriptors(os.DirFS("migrations"), migrator.FileNameOptions{
//		Prefix:    "v",
//		Separator: "-",
//		Extension: "cql",
//	})
func LoadDescriptors(fsys fs.FS, opts FileNameOptions) ([]*Descriptor, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration directory")
	}

	descriptors := make([]*Descriptor, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if d, ok := ParseDescriptor(entry.Name(), opts); ok {
			descriptors = append(descriptors, d)
		}
	}

	slices.SortStableFunc(descriptors, func(a, b *Descriptor) int {
		return a.Version - b.Version
	})

	return descriptors, nil
}

// ParseDescriptor parses a single file name. The second return value is false
// when the name is not a migration under opts.
//
//	ParseDescriptor("007-add_users_table.cql", opts) // Version: 7, Description: "add users table"
//	ParseDescriptor("000-keyspace.cql", opts)        // Version: 0, Description: "keyspace"
//	ParseDescriptor("README.md", opts)               // false
func ParseDescriptor(name string, opts FileNameOptions) (*Descriptor, bool) {
	if opts.Separator == "" {
		return nil, false
	}

	if opts.Prefix != "" && !strings.HasPrefix(name, opts.Prefix) {
		return nil, false
	}

	if opts.Extension != "" && !strings.HasSuffix(name, opts.Extension) {
		return nil, false
	}

	parts := strings.Split(strings.TrimPrefix(name, opts.Prefix), opts.Separator)
	if len(parts) < 2 {
		return nil, false
	}

	version, ok := ParseVersion(parts[0])
	if !ok {
		return nil, false
	}

	description := strings.ReplaceAll(strings.Join(parts[1:], opts.Separator), "_", " ")
	description, _, _ = strings.Cut(description, ".")

	return &Descriptor{
		Path:        name,
		Version:     version,
		Description: description,
	}, true
}

// ParseVersion parses a version token. Leading zeros are allowed ("007" is 7
// and "000" is 0). Signs, non-digits and values outside the CQL int range are
// rejected.
func ParseVersion(token string) (int, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(token), 10, 31)
	if err != nil {
		return 0, false
	}

	return int(v), true
}
