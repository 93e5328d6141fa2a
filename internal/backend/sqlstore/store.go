// Package sqlstore is a local dataset backed by SQLite, implementing
// backend.Backend for embedding and tests.
//
// Statements live in one table, quads(s, p, o, g), each column holding a term
// in N-Triples syntax (g is '' for the default graph). Queries are SQL: every
// result column becomes a variable and every value is read back as a term.
// With QueryOptions.Reasoning the query sees a temporary quads view that adds
// rdf:type statements entailed by rdfs:subClassOf.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hanpama/graphview/internal/backend"
	"github.com/hanpama/graphview/internal/eventbus"
	"github.com/hanpama/graphview/internal/events"
	"github.com/hanpama/graphview/internal/result"
	_ "modernc.org/sqlite"
)

// Name identifies this backend in errors and events.
const Name = "sqlstore"

const (
	rdfType        = "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>"
	rdfsSubClassOf = "<http://www.w3.org/2000/01/rdf-schema#subClassOf>"
	xsdInteger     = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDouble      = "http://www.w3.org/2001/XMLSchema#double"
	xsdBoolean     = "http://www.w3.org/2001/XMLSchema#boolean"
)

const schema = `
CREATE TABLE IF NOT EXISTS quads (
	s TEXT NOT NULL,
	p TEXT NOT NULL,
	o TEXT NOT NULL,
	g TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (s, p, o, g)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS quads_pos ON quads (p, o);
CREATE INDEX IF NOT EXISTS quads_osp ON quads (o, s);
`

var reasoningView = `
CREATE TEMP VIEW quads AS
WITH RECURSIVE sub(c, sup) AS (
	SELECT s, o FROM main.quads WHERE p = '` + rdfsSubClassOf + `'
	UNION
	SELECT sub.c, q.o FROM sub JOIN main.quads q ON q.s = sub.sup AND q.p = '` + rdfsSubClassOf + `'
)
SELECT s, p, o, g FROM main.quads
UNION
SELECT t.s, t.p, sub.sup, t.g FROM main.quads t JOIN sub ON t.o = sub.c WHERE t.p = '` + rdfType + `'
`

// Store is a SQLite-backed dataset.
type Store struct {
	db   *sql.DB
	path string
}

var _ backend.Backend = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an empty in-memory dataset.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: ":memory:"}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of stored statements.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quads`).Scan(&n)
	return n, err
}

func (s *Store) Select(ctx context.Context, query string, opts backend.QueryOptions) (*result.ResultSet, error) {
	var rs *result.ResultSet
	err := s.run(ctx, query, opts, func(rows *sql.Rows) (int, error) {
		var err error
		rs, err = scanResultSet(rows)
		return rs.Len(), err
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Ask reports whether the first column of the first row is true. No rows is
// false.
func (s *Store) Ask(ctx context.Context, query string, opts backend.QueryOptions) (bool, error) {
	var ok bool
	err := s.run(ctx, query, opts, func(rows *sql.Rows) (int, error) {
		rs, err := scanResultSet(rows)
		if err != nil {
			return 0, err
		}
		if r := rs.First(); r != nil && len(rs.Vars) > 0 {
			ok = truthy(r.Get(rs.Vars[0]))
		}
		return rs.Len(), nil
	})
	return ok, err
}

// Construct reads the first three columns of every row as subject, predicate
// and object.
func (s *Store) Construct(ctx context.Context, query string, opts backend.QueryOptions) ([]result.Triple, error) {
	var ts []result.Triple
	err := s.run(ctx, query, opts, func(rows *sql.Rows) (int, error) {
		rs, err := scanResultSet(rows)
		if err != nil {
			return 0, err
		}
		if len(rs.Vars) < 3 {
			return 0, fmt.Errorf("construct needs 3 columns, got %d", len(rs.Vars))
		}
		for _, r := range rs.Rows {
			ts = append(ts, result.Triple{
				Subject:   r.Get(rs.Vars[0]),
				Predicate: r.Get(rs.Vars[1]),
				Object:    r.Get(rs.Vars[2]),
			})
		}
		return len(ts), nil
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// ---------------- internals ----------------

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) run(ctx context.Context, query string, opts backend.QueryOptions, scan func(*sql.Rows) (int, error)) (err error) {
	node := backend.NodeFromContext(ctx)
	var n int
	start := time.Now()
	eventbus.Publish(ctx, events.QueryStart{Backend: Name, Node: node, Target: s.path, Query: query, Reasoning: opts.Reasoning})
	defer func() {
		eventbus.Publish(ctx, events.QueryFinish{
			Backend:   Name,
			Node:      node,
			Target:    s.path,
			Reasoning: opts.Reasoning,
			Rows:      n,
			Err:       err,
			Duration:  time.Since(start),
		})
	}()

	var q querier = s.db
	if opts.Reasoning {
		conn, release, cerr := s.reasoningConn(ctx)
		if cerr != nil {
			return s.fail(query, cerr)
		}
		defer release()
		q = conn
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return s.fail(query, err)
	}
	defer rows.Close()
	n, err = scan(rows)
	if err != nil {
		return s.fail(query, err)
	}
	return nil
}

// reasoningConn reserves a connection and shadows quads with the inference
// view for its lifetime.
func (s *Store) reasoningConn(ctx context.Context) (*sql.Conn, func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := conn.ExecContext(ctx, reasoningView); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create reasoning view: %w", err)
	}
	release := func() {
		_, _ = conn.ExecContext(context.Background(), `DROP VIEW IF EXISTS temp.quads`)
		conn.Close()
	}
	return conn, release, nil
}

func (s *Store) fail(query string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &backend.QueryError{Backend: Name, Query: query, Err: err}
}

func scanResultSet(rows *sql.Rows) (*result.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := result.NewResultSet(cols)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := result.NewRow()
		for i, v := range vals {
			if t, ok := toTerm(v); ok {
				row.Bind(cols[i], t)
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, rows.Err()
}

func toTerm(v any) (result.Term, bool) {
	switch x := v.(type) {
	case nil:
		return result.Term{}, false
	case string:
		return parseValue(x), true
	case []byte:
		return parseValue(string(x)), true
	case int64:
		return result.TypedLiteral(strconv.FormatInt(x, 10), xsdInteger), true
	case float64:
		return result.TypedLiteral(strconv.FormatFloat(x, 'g', -1, 64), xsdDouble), true
	case bool:
		return result.TypedLiteral(strconv.FormatBool(x), xsdBoolean), true
	case time.Time:
		return result.TypedLiteral(x.Format(time.RFC3339), "http://www.w3.org/2001/XMLSchema#dateTime"), true
	default:
		return result.Literal(fmt.Sprint(v)), true
	}
}

func truthy(t result.Term) bool {
	if t.IsZero() {
		return false
	}
	if !t.IsLiteral() {
		return true
	}
	switch strings.ToLower(t.Value) {
	case "", "0", "false":
		return false
	}
	return true
}
