package sqlstore

import (
	"context"
	"fmt"
	"io"

	"github.com/hanpama/graphview/internal/result"
)

// Load imports N-Triples or N-Quads from r in one transaction. Statements
// without their own graph label go to graph ("" for the default graph).
// Duplicates are ignored. It returns the number of statements read.
func (s *Store) Load(ctx context.Context, r io.Reader, graph string) (int, error) {
	var g string
	if graph != "" {
		g = result.IRI(graph).NT()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO quads (s, p, o, g) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	err = result.ReadNTriples(r, func(t result.Triple) error {
		sg := g
		if !t.Graph.IsZero() {
			sg = t.Graph.NT()
		}
		if _, err := stmt.ExecContext(ctx, t.Subject.NT(), t.Predicate.NT(), t.Object.NT(), sg); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load statements: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Insert adds statements directly.
func (s *Store) Insert(ctx context.Context, ts ...result.Triple) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, t := range ts {
		var g string
		if !t.Graph.IsZero() {
			g = t.Graph.NT()
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO quads (s, p, o, g) VALUES (?, ?, ?, ?)`,
			t.Subject.NT(), t.Predicate.NT(), t.Object.NT(), g); err != nil {
			return err
		}
	}
	return tx.Commit()
}
