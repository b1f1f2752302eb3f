// Package errs defines the kinds of failure that abort a phalanx run.
//
// Every failure surfaced by the engine carries exactly one Kind. Callers
// branch on the kind with errors.Is against the exported sentinels:
//
//	if errors.Is(err, errs.ErrMigrationMismatch) {
//		// a previously installed migration was edited or deleted
//	}
//
// None of these errors are retried. Fixing the cause and re-running the
// migration is the recovery mechanism, since already installed versions are
// skipped.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a category of failure.
type Kind string

const (
	InvalidConfig       Kind = "invalid config"
	InvalidFileMetadata Kind = "invalid file metadata"
	IncorrectKeyspace   Kind = "incorrect keyspace"
	NoKeyspaceMigration Kind = "no keyspace migration"
	DuplicateVersions   Kind = "duplicate versions"
	MigrationMismatch   Kind = "migration mismatch"
	MigrationError      Kind = "migration error"
	FileNotFound        Kind = "file not found"
)

// Sentinels for use with errors.Is.
var (
	ErrInvalidConfig       = &Error{Kind: InvalidConfig}
	ErrInvalidFileMetadata = &Error{Kind: InvalidFileMetadata}
	ErrIncorrectKeyspace   = &Error{Kind: IncorrectKeyspace}
	ErrNoKeyspaceMigration = &Error{Kind: NoKeyspaceMigration}
	ErrDuplicateVersions   = &Error{Kind: DuplicateVersions}
	ErrMigrationMismatch   = &Error{Kind: MigrationMismatch}
	ErrMigrationError      = &Error{Kind: MigrationError}
	ErrFileNotFound        = &Error{Kind: FileNotFound}
)

// Error is a failure of a known Kind with a human readable message and an
// optional underlying cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there
// is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}
