package sparqltest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS triples (
	s          TEXT    NOT NULL,
	p          TEXT    NOT NULL,
	o_kind     INTEGER NOT NULL,
	o_value    TEXT    NOT NULL,
	o_datatype TEXT    NOT NULL DEFAULT '',
	o_lang     TEXT    NOT NULL DEFAULT '',
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	UNIQUE (s, p, o_kind, o_value, o_datatype, o_lang)
)`,
	`CREATE INDEX IF NOT EXISTS triples_po ON triples (p, o_value)`,
}

// EvalError is returned when a request parses but cannot be executed, such
// as an INSERT DATA containing variables.
type EvalError struct {
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("sparql evaluation: %v", e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func evalErrorf(format string, args ...any) error {
	return &EvalError{Err: fmt.Errorf(format, args...)}
}

// Store is an in-memory triple store backed by SQLite. Statements have set
// semantics: inserting an existing triple is a no-op.
type Store struct {
	db *sql.DB
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewStore opens an empty store.
func NewStore() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert adds triples directly, bypassing the SPARQL layer.
func (s *Store) Insert(ctx context.Context, triples ...Triple) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range triples {
			if err := insertTriple(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// Triples returns every stored triple in insertion order.
func (s *Store) Triples(ctx context.Context) ([]Triple, error) {
	return match(ctx, s.db, nil, nil, nil)
}

// Subject returns the triples whose subject is iri.
func (s *Store) Subject(ctx context.Context, iri string) ([]Triple, error) {
	subj := NewIRI(iri)
	return match(ctx, s.db, &subj, nil, nil)
}

// Len returns the number of stored triples.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM triples").Scan(&n)
	return n, err
}

// Reset removes every triple.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM triples")
	return err
}

// Query executes a SELECT query.
func (s *Store) Query(ctx context.Context, text string) (*Result, error) {
	doc, err := parse(text)
	if err != nil {
		return nil, err
	}
	if doc.Body.Select == nil {
		return nil, evalErrorf("expected a SELECT query, got an update")
	}
	return evalSelect(ctx, s.db, newPrologue(doc.Prefixes), doc.Body.Select)
}

// Update executes an update request. All operations in the request are
// applied in one transaction.
func (s *Store) Update(ctx context.Context, text string) error {
	doc, err := parse(text)
	if err != nil {
		return err
	}
	if doc.Body.Updates == nil {
		return evalErrorf("expected an update, got a query")
	}
	pro := newPrologue(doc.Prefixes)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, op := range doc.Body.Updates.Ops {
			if err := applyUpdate(ctx, tx, pro, op); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

func insertTriple(ctx context.Context, q querier, t Triple) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO triples (s, p, o_kind, o_value, o_datatype, o_lang) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Subject, t.Predicate, int(t.Object.Kind), t.Object.Value, t.Object.Datatype, t.Object.Lang)
	return err
}

func deleteTriple(ctx context.Context, q querier, t Triple) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM triples WHERE s = ? AND p = ? AND o_kind = ? AND o_value = ? AND o_datatype = ? AND o_lang = ?`,
		t.Subject, t.Predicate, int(t.Object.Kind), t.Object.Value, t.Object.Datatype, t.Object.Lang)
	return err
}

// match returns the stored triples agreeing with the bound positions. Nil
// positions are unconstrained. Rows are fully read before returning so the
// single connection is free for the next lookup.
func match(ctx context.Context, q querier, s, p, o *Term) ([]Triple, error) {
	var (
		conds []string
		args  []any
	)
	if s != nil {
		if s.Kind != KindIRI {
			return nil, nil
		}
		conds = append(conds, "s = ?")
		args = append(args, s.Value)
	}
	if p != nil {
		if p.Kind != KindIRI {
			return nil, nil
		}
		conds = append(conds, "p = ?")
		args = append(args, p.Value)
	}
	if o != nil {
		conds = append(conds, "o_kind = ?", "o_value = ?", "o_datatype = ?", "o_lang = ?")
		args = append(args, int(o.Kind), o.Value, o.Datatype, o.Lang)
	}

	query := "SELECT s, p, o_kind, o_value, o_datatype, o_lang FROM triples"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Triple
	for rows.Next() {
		var (
			t    Triple
			kind int
		)
		if err := rows.Scan(&t.Subject, &t.Predicate, &kind, &t.Object.Value, &t.Object.Datatype, &t.Object.Lang); err != nil {
			return nil, err
		}
		t.Object.Kind = Kind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}
