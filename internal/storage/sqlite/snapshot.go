package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Snapshot writes a consistent point-in-time copy of the database to
// destPath using VACUUM INTO, then verifies the copy with integrity_check.
// destPath must not exist.
func (s *Store) Snapshot(ctx context.Context, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("sqlite: snapshot target %s already exists", destPath)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("sqlite: failed to create snapshot directory: %w", err)
	}

	quoted := "'" + strings.ReplaceAll(destPath, "'", "''") + "'"
	if _, err := s.DB().ExecContext(ctx, "VACUUM INTO "+quoted); err != nil {
		return fmt.Errorf("sqlite: failed to snapshot database: %w", err)
	}

	if err := verifySnapshot(ctx, destPath); err != nil {
		_ = os.Remove(destPath)
		return err
	}
	return nil
}

// verifySnapshot opens the copy read-only and runs SQLite's integrity_check pragma.
func verifySnapshot(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("sqlite: failed to open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("sqlite: failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("sqlite: snapshot integrity check failed: %s", result)
	}
	return nil
}
