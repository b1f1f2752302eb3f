package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/pseudomuto/phalanx/pkg/cassandra"
	"github.com/pseudomuto/phalanx/pkg/config"
	"github.com/pseudomuto/phalanx/pkg/consts"
)

type (
	// Session defines the cluster operations required by the engine.
	// *cassandra.Client satisfies it.
	Session interface {
		Query(context.Context, string, ...any) ([]cassandra.Row, error)
		Exec(context.Context, string, ...any) error
		ExecCAS(context.Context, string, ...any) (bool, error)
		Close() error
	}

	// Connector creates a Session for the given options. It must not dial;
	// sessions connect on first use.
	Connector func(cassandra.ClientOptions) Session

	// Options contains the settings for creating a new Engine.
	Options struct {
		// Config is the resolved configuration. Required.
		Config *config.Config

		// Connect creates sessions. Defaults to cassandra.NewClient.
		Connect Connector

		// Logger receives progress output. Defaults to slog.Default().
		Logger *slog.Logger

		// Sleep implements the pause between migrations. Defaults to a timer
		// that stops early when ctx is done.
		Sleep func(context.Context, time.Duration) error
	}

	// Engine detects and applies migrations for a single keyspace.
	//
	// The engine holds four sessions for its whole lifetime:
	//   - client: scoped to the keyspace at the configured consistency
	//   - neutral: not scoped to any keyspace, for statements that must work
	//     before the keyspace exists
	//   - serial: scoped to the keyspace at SERIAL consistency
	//   - any: scoped to the keyspace at ANY consistency, for ledger inserts
	//
	// Always call Close when done with the engine.
	Engine struct {
		cfg        *config.Config
		clientOpts cassandra.ClientOptions
		keyspace   string
		stateTable string

		connect Connector
		log     *slog.Logger
		sleep   func(context.Context, time.Duration) error

		client  Session
		neutral Session
		serial  Session
		any     Session
	}
)

// New creates an engine for the configured keyspace.
//
// The configuration is validated (see config.Config.Validate) and every
// session handle is created up front. No connection is opened until the first
// statement runs.
//
// Example:
//
//	eng, err := engine.New(engine.Options{
//		Config: cfg,
//		Logger: slog.Default(),
//	})
//	if err != nil {
//		return err
//	}
//	defer func() { _ = eng.Close() }()
func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, errors.New("engine config is required")
	}

	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	clientOpts, err := opts.Config.ClientOptions()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        opts.Config,
		clientOpts: clientOpts,
		keyspace:   clientOpts.Keyspace,
		stateTable: opts.Config.PhalanxStateTable,
		connect:    opts.Connect,
		log:        opts.Logger,
		sleep:      opts.Sleep,
	}

	if e.connect == nil {
		e.connect = func(o cassandra.ClientOptions) Session { return cassandra.NewClient(o) }
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.sleep == nil {
		e.sleep = sleep
	}

	e.client = e.connect(clientOpts)
	e.neutral = e.connect(clientOpts.WithKeyspace(""))
	e.serial = e.connect(clientOpts.WithConsistency(gocql.Consistency(gocql.Serial)))
	e.any = e.connect(clientOpts.WithConsistency(gocql.Any))

	return e, nil
}

// Keyspace returns the keyspace managed by the engine.
func (e *Engine) Keyspace() string { return e.keyspace }

// StateTable returns the name of the ledger table.
func (e *Engine) StateTable() string { return e.stateTable }

// Close releases every session held by the engine. It is safe to call more
// than once.
func (e *Engine) Close() error {
	var firstErr error
	for _, s := range []Session{e.client, e.neutral, e.serial, e.any} {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// qualifiedStateTable returns keyspace.table for the ledger.
func (e *Engine) qualifiedStateTable() string {
	return e.keyspace + "." + e.stateTable
}

// substitute replaces the keyspace placeholder in a migration's contents.
func (e *Engine) substitute(contents string) string {
	return strings.ReplaceAll(contents, consts.KeyspacePlaceholder, e.keyspace)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
