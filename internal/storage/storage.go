// Package storage snapshots a note session into sqlite so folders and
// notes survive restarts. It sits outside the notestore core: the core
// stays the canonical in-memory owner, storage only hydrates it at
// startup and rewrites the snapshot after committed mutations.
package storage

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quill/internal/notestore"
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS folders (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	folder TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	updated TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

// Load reads the stored snapshot in insertion order. Empty slices mean a
// first run; callers fall back to the notestore seed state.
func (s *Store) Load() ([]notestore.Folder, []notestore.Note, error) {
	folderRows, err := s.db.Query(`SELECT id, name FROM folders ORDER BY rowid;`)
	if err != nil {
		return nil, nil, err
	}
	defer folderRows.Close()

	var folders []notestore.Folder
	for folderRows.Next() {
		var f notestore.Folder
		if err := folderRows.Scan(&f.ID, &f.Name); err != nil {
			return nil, nil, err
		}
		folders = append(folders, f)
	}
	if err := folderRows.Err(); err != nil {
		return nil, nil, err
	}

	noteRows, err := s.db.Query(`SELECT id, folder, title, content, updated FROM notes ORDER BY rowid;`)
	if err != nil {
		return nil, nil, err
	}
	defer noteRows.Close()

	var notes []notestore.Note
	for noteRows.Next() {
		var n notestore.Note
		var updated string
		if err := noteRows.Scan(&n.ID, &n.Folder, &n.Title, &n.Content, &updated); err != nil {
			return nil, nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			n.Updated = parsed
		}
		notes = append(notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return nil, nil, err
	}
	return folders, notes, nil
}

// Replace rewrites the snapshot with the given state in one transaction.
func (s *Store) Replace(folders []notestore.Folder, notes []notestore.Note) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM notes;`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM folders;`); err != nil {
		return err
	}
	for _, f := range folders {
		if _, err := tx.Exec(`INSERT INTO folders (id, name) VALUES (?, ?);`, f.ID, f.Name); err != nil {
			return err
		}
	}
	for _, n := range notes {
		updated := n.Updated.UTC().Format(time.RFC3339Nano)
		if _, err := tx.Exec(
			`INSERT INTO notes (id, folder, title, content, updated) VALUES (?, ?, ?, ?, ?);`,
			n.ID, n.Folder, n.Title, n.Content, updated,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
