package errs_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/phalanx/pkg/errs"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     errs.Kind
		message  string
	}{
		{
			name:     "plain",
			err:      errs.New(errs.DuplicateVersions, "two file migrations have version %d", 3),
			sentinel: errs.ErrDuplicateVersions,
			kind:     errs.DuplicateVersions,
			message:  "duplicate versions: two file migrations have version 3",
		},
		{
			name:     "wrapped cause",
			err:      errs.Wrap(errs.MigrationError, errors.New("syntax error"), "migration version %d failed", 2),
			sentinel: errs.ErrMigrationError,
			kind:     errs.MigrationError,
			message:  "migration error: migration version 2 failed: syntax error",
		},
		{
			name:     "wrapped by pkg/errors",
			err:      errors.Wrap(errs.New(errs.InvalidConfig, "port is not defined"), "failed to create engine"),
			sentinel: errs.ErrInvalidConfig,
			kind:     errs.InvalidConfig,
			message:  "failed to create engine: invalid config: port is not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, tt.sentinel)
			require.Equal(t, tt.kind, errs.KindOf(tt.err))
			require.EqualError(t, tt.err, tt.message)
		})
	}
}

func TestError_KindsDoNotMatch(t *testing.T) {
	err := errs.New(errs.MigrationMismatch, "hash differs")

	require.NotErrorIs(t, err, errs.ErrMigrationError)
	require.Equal(t, errs.Kind(""), errs.KindOf(errors.New("other")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := errs.Wrap(errs.MigrationError, cause, "migration version 1 failed")

	require.ErrorIs(t, err, cause)
}
