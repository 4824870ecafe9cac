// Package manifest records which assets were written to an output root so
// a later build can leave unchanged outputs alone.
package manifest

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

const batchSize = 100

// DB is a SQLite-backed emit manifest for one output root.
type DB struct {
	db   *sql.DB
	path string

	// Pending Record calls, keyed by asset path.
	mu      sync.Mutex
	pending map[string]entry
	done    chan struct{}
	stopped bool
}

type entry struct {
	digest string
	size   int64
}

// Open opens (or creates) the manifest for output. The DB is stored at
// $XDG_RUNTIME_DIR/ferry/<id>.db or <tmp>/ferry-<id>.db.
func Open(output string) (*DB, error) {
	return OpenAt(Path(output), output)
}

// OpenAt opens the manifest stored at dbPath for output.
func OpenAt(dbPath, output string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open manifest db: %w", err)
	}

	m := &DB{
		db:      db,
		path:    dbPath,
		pending: make(map[string]entry),
		done:    make(chan struct{}),
	}

	if err := m.init(output); err != nil {
		db.Close()
		return nil, err
	}

	go m.flushLoop()

	return m, nil
}

func (m *DB) init(output string) error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS assets (
			path    TEXT PRIMARY KEY,
			size    INTEGER NOT NULL,
			digest  TEXT NOT NULL,
			written INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var stored string
	err = m.db.QueryRow("SELECT value FROM meta WHERE key = 'output_root'").Scan(&stored)
	switch {
	case err == nil:
		if stored != output {
			return fmt.Errorf("manifest root mismatch: stored %s, got %s", stored, output)
		}
	case errors.Is(err, sql.ErrNoRows):
		if _, err := m.db.Exec("INSERT INTO meta (key, value) VALUES ('output_root', ?)", output); err != nil {
			return fmt.Errorf("store meta: %w", err)
		}
	default:
		return fmt.Errorf("read meta: %w", err)
	}
	return nil
}

// Unchanged reports whether path was last written with the same digest
// and size.
func (m *DB) Unchanged(path, digest string, size int64) bool {
	m.mu.Lock()
	e, ok := m.pending[path]
	m.mu.Unlock()
	if ok {
		return e.digest == digest && e.size == size
	}

	var storedDigest string
	var storedSize int64
	err := m.db.QueryRow(
		"SELECT digest, size FROM assets WHERE path = ?", path,
	).Scan(&storedDigest, &storedSize)
	if err != nil {
		return false
	}
	return storedDigest == digest && storedSize == size
}

// Record notes that path was written. Writes are batched and flushed
// periodically.
func (m *DB) Record(path, digest string, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[path] = entry{digest: digest, size: size}
	if len(m.pending) >= batchSize {
		return m.flushLocked()
	}
	return nil
}

// Flush writes any pending entries to the database.
func (m *DB) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushLocked()
}

func (m *DB) flushLocked() error {
	if len(m.pending) == 0 {
		return nil
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO assets (path, size, digest, written) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for p, e := range m.pending {
		if _, err := stmt.Exec(p, e.size, e.digest, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	clear(m.pending)
	return nil
}

func (m *DB) flushLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			_ = m.flushLocked()
			m.mu.Unlock()
		}
	}
}

// Len returns the number of recorded assets, flushing pending ones first.
func (m *DB) Len() (int, error) {
	if err := m.Flush(); err != nil {
		return 0, err
	}
	var n int
	if err := m.db.QueryRow("SELECT COUNT(*) FROM assets").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close flushes any pending writes and closes the database.
func (m *DB) Close() error {
	m.mu.Lock()
	if !m.stopped {
		m.stopped = true
		close(m.done)
	}
	flushErr := m.flushLocked()
	m.mu.Unlock()
	return errors.Join(flushErr, m.db.Close())
}

// Remove deletes the manifest database file.
func (m *DB) Remove() error {
	return os.Remove(m.path)
}

// Path returns where the manifest for output is stored.
func Path(output string) string {
	id := outputID(output)
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "ferry", id+".db")
	}
	return filepath.Join(os.TempDir(), "ferry-"+id+".db")
}

// outputID is a short, stable identifier for an output root.
func outputID(output string) string {
	sum := blake3.Sum256([]byte(output))
	return hex.EncodeToString(sum[:8])
}
