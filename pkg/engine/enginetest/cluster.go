// Package enginetest provides an in-memory Cassandra cluster for testing code
// built on the engine without a running database.
//
// The cluster understands just enough CQL to drive the engine: keyspace and
// table creation, the system_schema lookups, ledger reads and the conditional
// ledger insert. Every other statement is recorded and accepted.
//
//	cluster := enginetest.NewCluster()
//	eng, err := engine.New(engine.Options{Config: cfg, Connect: cluster.Connect})
package enginetest

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/phalanx/pkg/cassandra"
	"github.com/pseudomuto/phalanx/pkg/engine"
)

var (
	createKeyspaceRE = regexp.MustCompile(`(?im)^\s*create\s+keyspace\s+(?:if\s+not\s+exists\s+)?(\w+)`)
	createTableRE    = regexp.MustCompile(`(?im)^\s*create\s+table\s+(?:if\s+not\s+exists\s+)?(?:(\w+)\.)?(\w+)`)
	dropKeyspaceRE   = regexp.MustCompile(`(?is)^\s*drop\s+keyspace\s+(?:if\s+exists\s+)?(\w+)`)
	selectAllRE      = regexp.MustCompile(`(?is)^\s*select\s+\*\s+from\s+(\w+)\.(\w+)`)
	insertLedgerRE   = regexp.MustCompile(`(?is)^\s*insert\s+into\s+(\w+)\.(\w+)\s*\(`)
)

type (
	// Cluster is an in-memory stand-in for a Cassandra cluster. It is safe for
	// concurrent use.
	Cluster struct {
		// Fail, when set, is consulted after a statement is recorded; a non-nil
		// error is returned instead of executing it
		Fail func(stmt string) error

		// Ignore, when set, silently skips matching statements
		Ignore func(stmt string) bool

		mu         sync.Mutex
		keyspaces  map[string]*keyspace
		statements []Statement
		sessions   []*Session
	}

	keyspace struct {
		tables map[string]bool

		// ledgers holds ledger rows by table name, then rank
		ledgers map[string]map[int]map[string]any
	}

	// Statement is a statement executed against the cluster.
	Statement struct {
		CQL         string
		Args        []any
		Keyspace    string
		Consistency string
	}

	// Session is an engine.Session connected to a Cluster.
	Session struct {
		cluster *Cluster
		opts    cassandra.ClientOptions
		closed  bool
	}
)

// NewCluster returns a cluster holding only the system keyspaces.
func NewCluster() *Cluster {
	return &Cluster{
		keyspaces: map[string]*keyspace{
			"system":        newKeyspace(),
			"system_schema": newKeyspace(),
		},
	}
}

func newKeyspace() *keyspace {
	return &keyspace{tables: map[string]bool{}, ledgers: map[string]map[int]map[string]any{}}
}

// Connect is an engine.Connector backed by the cluster.
func (c *Cluster) Connect(opts cassandra.ClientOptions) engine.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Session{cluster: c, opts: opts}
	c.sessions = append(c.sessions, s)
	return s
}

// Sessions returns every session created by Connect, in order.
func (c *Cluster) Sessions() []*Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*Session(nil), c.sessions...)
}

// OpenSessions returns the number of sessions that have not been closed.
func (c *Cluster) OpenSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, s := range c.sessions {
		if !s.closed {
			n++
		}
	}

	return n
}

// HasKeyspace reports whether the keyspace exists.
func (c *Cluster) HasKeyspace(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.keyspaces[name]
	return ok
}

// HasTable reports whether keyspace.table exists.
func (c *Cluster) HasTable(keyspace, table string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks, ok := c.keyspaces[keyspace]
	return ok && ks.tables[table]
}

// Ledger returns the ledger rows of keyspace.table sorted by rank.
func (c *Cluster) Ledger(keyspace, table string) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks, ok := c.keyspaces[keyspace]
	if !ok {
		return nil
	}

	rows := make([]map[string]any, 0, len(ks.ledgers[table]))
	for _, row := range ks.ledgers[table] {
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i]["rank"].(int) < rows[j]["rank"].(int) })
	return rows
}

// UpdateLedger applies fn to the ledger row holding version.
func (c *Cluster) UpdateLedger(keyspace, table string, version int, fn func(row map[string]any)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range c.keyspaces[keyspace].ledgers[table] {
		if row["version"] == version {
			fn(row)
		}
	}
}

// DeleteLedger removes the ledger row holding version.
func (c *Cluster) DeleteLedger(keyspace, table string, version int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := c.keyspaces[keyspace].ledgers[table]
	for rank, row := range rows {
		if row["version"] == version {
			delete(rows, rank)
		}
	}
}

// Executed returns the recorded statements matching filter. A nil filter
// matches everything.
func (c *Cluster) Executed(filter func(Statement) bool) []Statement {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Statement
	for _, s := range c.statements {
		if filter == nil || filter(s) {
			out = append(out, s)
		}
	}

	return out
}

// Options returns the options the session was created with.
func (s *Session) Options() cassandra.ClientOptions { return s.opts }

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()

	return s.closed
}

// Query records and executes stmt, returning the rows it produces.
func (s *Session) Query(ctx context.Context, stmt string, args ...any) ([]cassandra.Row, error) {
	return s.cluster.run(ctx, s, stmt, args)
}

// Exec records and executes stmt, discarding any rows.
func (s *Session) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := s.cluster.run(ctx, s, stmt, args)
	return err
}

// ExecCAS executes a conditional statement and reports whether it was applied.
func (s *Session) ExecCAS(ctx context.Context, stmt string, args ...any) (bool, error) {
	rows, err := s.cluster.run(ctx, s, stmt, args)
	if err != nil {
		return false, err
	}

	return len(rows) == 1 && rows[0]["[applied]"] == true, nil
}

// Close marks the session closed. Later statements fail.
func (s *Session) Close() error {
	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()

	s.closed = true
	return nil
}

func (c *Cluster) run(ctx context.Context, s *Session, stmt string, args []any) ([]cassandra.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s.closed {
		return nil, errors.New("session has been closed")
	}

	if s.opts.Keyspace != "" {
		if _, ok := c.keyspaces[s.opts.Keyspace]; !ok {
			return nil, errors.Errorf("keyspace '%s' does not exist", s.opts.Keyspace)
		}
	}

	c.statements = append(c.statements, Statement{
		CQL:         stmt,
		Args:        args,
		Keyspace:    s.opts.Keyspace,
		Consistency: cassandra.ConsistencyName(s.opts.Consistency),
	})

	if c.Fail != nil {
		if err := c.Fail(stmt); err != nil {
			return nil, err
		}
	}

	if c.Ignore != nil && c.Ignore(stmt) {
		return nil, nil
	}

	switch {
	case strings.HasPrefix(stmt, "SELECT keyspace_name FROM system_schema.keyspaces"):
		rows := make([]cassandra.Row, 0, len(c.keyspaces))
		for name := range c.keyspaces {
			rows = append(rows, cassandra.Row{"keyspace_name": name})
		}
		return rows, nil

	case strings.HasPrefix(stmt, "SELECT table_name FROM system_schema.tables"):
		ks, table := args[0].(string), args[1].(string)
		if k, ok := c.keyspaces[ks]; ok && k.tables[table] {
			return []cassandra.Row{{"table_name": table}}, nil
		}
		return nil, nil

	case selectAllRE.MatchString(stmt):
		m := selectAllRE.FindStringSubmatch(stmt)
		k, ok := c.keyspaces[m[1]]
		if !ok || !k.tables[m[2]] {
			return nil, errors.Errorf("table %s.%s does not exist", m[1], m[2])
		}

		rows := make([]cassandra.Row, 0, len(k.ledgers[m[2]]))
		for _, row := range k.ledgers[m[2]] {
			copied := make(cassandra.Row, len(row))
			for col, v := range row {
				copied[col] = v
			}
			rows = append(rows, copied)
		}
		return rows, nil

	case insertLedgerRE.MatchString(stmt):
		return c.insertLedger(insertLedgerRE.FindStringSubmatch(stmt), args)

	case createKeyspaceRE.MatchString(stmt):
		name := createKeyspaceRE.FindStringSubmatch(stmt)[1]
		if _, ok := c.keyspaces[name]; ok {
			return nil, errors.Errorf("keyspace %s already exists", name)
		}

		c.keyspaces[name] = newKeyspace()
		return nil, nil

	case createTableRE.MatchString(stmt):
		m := createTableRE.FindStringSubmatch(stmt)
		ks := m[1]
		if ks == "" {
			ks = s.opts.Keyspace
		}

		k, ok := c.keyspaces[ks]
		if !ok {
			return nil, errors.Errorf("keyspace %q does not exist", ks)
		}

		if k.tables[m[2]] {
			return nil, errors.Errorf("table %s.%s already exists", ks, m[2])
		}

		k.tables[m[2]] = true
		return nil, nil

	case dropKeyspaceRE.MatchString(stmt):
		delete(c.keyspaces, dropKeyspaceRE.FindStringSubmatch(stmt)[1])
		return nil, nil
	}

	return nil, nil
}

// insertLedger applies a conditional ledger insert. The bound values are
// rank, version, description, file, hash and duration.
func (c *Cluster) insertLedger(m []string, args []any) ([]cassandra.Row, error) {
	k, ok := c.keyspaces[m[1]]
	if !ok || !k.tables[m[2]] {
		return nil, errors.Errorf("table %s.%s does not exist", m[1], m[2])
	}

	if k.ledgers[m[2]] == nil {
		k.ledgers[m[2]] = map[int]map[string]any{}
	}

	rank := args[0].(int)
	if _, exists := k.ledgers[m[2]][rank]; exists {
		return []cassandra.Row{{"[applied]": false}}, nil
	}

	k.ledgers[m[2]][rank] = map[string]any{
		"rank":        rank,
		"version":     args[1].(int),
		"description": args[2].(string),
		"file":        args[3].(string),
		"hash":        args[4].(string),
		"installed":   time.Now().UTC(),
		"duration":    args[5].(int),
	}

	return []cassandra.Row{{"[applied]": true}}, nil
}

// FailOn returns a Fail hook that rejects statements containing substr.
func FailOn(substr string, err error) func(string) error {
	return func(stmt string) error {
		if strings.Contains(stmt, substr) {
			return err
		}

		return nil
	}
}

// Matching filters recorded statements containing substr.
func Matching(substr string) func(Statement) bool {
	return func(s Statement) bool {
		return strings.Contains(s.CQL, substr)
	}
}
