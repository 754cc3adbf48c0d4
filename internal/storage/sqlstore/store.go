// Package sqlstore implements storage.Store on top of database/sql.
// Backends supply the connection and a Dialect describing their schema and
// placeholder syntax; queries are written with "?" placeholders and rebound
// for the target database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/scrypster/lookalike/internal/storage"
)

// Dialect describes the database-specific parts of a backend.
type Dialect struct {
	// Name prefixes error messages (e.g. "sqlite", "postgres").
	Name string

	// Schema is executed by Init. It must be idempotent.
	Schema string

	// Numbered selects $1, $2, ... placeholders instead of "?".
	Numbered bool
}

// Store implements storage.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ storage.Store = (*Store)(nil)

// New wraps an open database. The caller keeps ownership of connection
// settings; Close closes db.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Init creates the schema.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return s.errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind converts "?" placeholders to the dialect's syntax.
func (s *Store) rebind(query string) string {
	if !s.dialect.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) errorf(format string, args ...any) error {
	return fmt.Errorf(s.dialect.Name+": "+format, args...)
}

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isNoRows reports whether err is sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
