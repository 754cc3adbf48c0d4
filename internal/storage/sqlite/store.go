// Package sqlite provides a SQLite implementation of storage interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/lookalike/internal/storage/sqlstore"
)

// Store implements storage.Store using SQLite.
type Store struct {
	*sqlstore.Store
	logger *zap.Logger
}

// NewStore opens (or creates) the SQLite database at dsn and applies the
// schema. Use ":memory:" for an in-memory database.
//
// If the initial open fails due to stale WAL files left behind by a crashed
// process, it verifies no other process holds them and retries once after
// removing the stale -shm/-wal files.
func NewStore(dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := openStore(dsn, logger)
	if err == nil {
		return store, nil
	}

	if !recoverableOpenError(err) {
		return nil, err
	}

	dbPath := databasePath(dsn)
	if dbPath == "" || !staleWAL(dbPath) {
		return nil, err
	}

	clearWAL(dbPath, logger)

	store, retryErr := openStore(dsn, logger)
	if retryErr != nil {
		return nil, fmt.Errorf("sqlite: failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	logger.Warn("recovered from stale WAL files", zap.String("path", dbPath))
	return store, nil
}

// openStore opens a SQLite database, configures WAL mode, and creates the schema.
func openStore(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout = 5000", "set busy timeout"},
		{"PRAGMA foreign_keys=ON", "enable foreign keys"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: failed to %s: %w", p.what, err)
		}
	}

	s := &Store{
		Store:  sqlstore.New(db, sqlstore.Dialect{Name: "sqlite", Schema: Schema}),
		logger: logger,
	}
	if err := s.Init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close flushes the WAL into the main database file and releases resources.
// The TRUNCATE checkpoint removes the -shm and -wal files so the next
// process opens the database without stale WAL state.
func (s *Store) Close() error {
	if s.Store == nil || s.DB() == nil {
		return nil
	}

	if _, err := s.DB().Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("WAL checkpoint on close failed", zap.Error(err))
	}

	return s.Store.Close()
}

// databasePath returns the file behind a SQLite DSN, or "" when the DSN
// names an in-memory database. Both bare paths and file: URIs may carry a
// query string of driver options.
func databasePath(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		path, _, _ := strings.Cut(dsn, "?")
		if path == ":memory:" {
			return ""
		}
		return path
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Query().Get("mode") == "memory" {
		return ""
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == ":memory:" {
		return ""
	}
	return path
}

// Primary SQLite result codes reported when a crashed writer left its WAL
// index behind.
const (
	sqliteBusy  = 5
	sqliteIOErr = 10
)

// recoverableOpenError reports whether err looks like stale WAL state
// (SQLITE_BUSY or SQLITE_IOERR, including extended codes).
func recoverableOpenError(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		switch coded.Code() & 0xff {
		case sqliteBusy, sqliteIOErr:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database is locked")
}

// walSidecars returns the shared-memory and log files SQLite keeps next to
// a WAL-mode database.
func walSidecars(dbPath string) []string {
	return []string{dbPath + "-shm", dbPath + "-wal"}
}

// staleWAL reports whether sidecar files exist for dbPath and no process has
// any of the files open. Without lsof ownership cannot be checked, so the
// files are never treated as stale.
func staleWAL(dbPath string) bool {
	sidecars := walSidecars(dbPath)
	present := false
	for _, path := range sidecars {
		if _, err := os.Stat(path); err == nil {
			present = true
		}
	}
	if !present {
		return false
	}

	lsof, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}
	out, err := exec.Command(lsof, append([]string{"-t", dbPath}, sidecars...)...).Output()
	if err != nil {
		// lsof exits 1 when no process has the files open.
		return true
	}
	return strings.TrimSpace(string(out)) == ""
}

// clearWAL removes the sidecar files of dbPath. Missing files are ignored.
func clearWAL(dbPath string, logger *zap.Logger) {
	for _, path := range walSidecars(dbPath) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to remove stale WAL file", zap.String("path", path), zap.Error(err))
		}
	}
}
