// Package store is the durable Chunk Store: two SQLite tables holding
// per-resource metadata records and per-resource chunk blobs. Each caller
// opens its own Store explicitly with Open; there is no package-level
// singleton and nothing is opened lazily. A file lock held for the life
// of a Store keeps two processes from racing on the same database file.
package store

import (
	"database/sql"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/resumeload/resumeload/internal/errs"
	"github.com/resumeload/resumeload/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	url              TEXT PRIMARY KEY,
	filename         TEXT NOT NULL,
	total_bytes      INTEGER NOT NULL DEFAULT 0,
	downloaded_bytes INTEGER NOT NULL DEFAULT 0,
	supports_resume  INTEGER NOT NULL DEFAULT 0,
	chunk_size       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS chunks (
	url  TEXT NOT NULL,
	idx  INTEGER NOT NULL,
	blob BLOB NOT NULL,
	PRIMARY KEY (url, idx)
);
`

// Metadata is the per-resource record described in the data model: its
// fields are exactly what a Task needs to resume a download without
// re-running capability discovery.
type Metadata struct {
	URL              string
	Filename         string
	TotalBytes       int64
	DownloadedBytes  int64
	SupportsResume   bool
	ChunkSize        int64
}

// Chunk is one stored byte range, keyed by its ordinal index within the
// resource.
type Chunk struct {
	Index int
	Blob  []byte
}

// Store is the Chunk Store. The zero value is not usable; construct with
// Open.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	mu   sync.Mutex
}

// Open creates (if needed) and opens the SQLite-backed store at dbPath,
// guarded by an advisory lock at lockPath. Open does not wait for the
// lock; a lock already held by another process is reported at once as a
// StorageFailure rather than silently corrupting shared state.
func Open(dbPath, lockPath string) (*Store, error) {
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errs.Storage(err)
	}
	if !locked {
		return nil, errs.Storage(sql.ErrConnDone)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = fl.Unlock()
		return nil, errs.Storage(err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid SQLITE_BUSY churn

	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		_ = fl.Unlock()
		return nil, errs.Storage(err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = fl.Unlock()
		return nil, errs.Storage(err)
	}

	logging.Logger.Debug().Str("path", dbPath).Msg("chunk store opened")
	return &Store{db: db, lock: fl}, nil
}

// Close releases the database handle and the instance lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "full") {
		return errs.Quota(err)
	}
	return errs.Storage(err)
}

// GetMetadata returns the stored metadata for url, or (nil, nil) if no
// record exists.
func (s *Store) GetMetadata(url string) (*Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT url, filename, total_bytes, downloaded_bytes, supports_resume, chunk_size
		FROM metadata WHERE url = ?`, url)

	var m Metadata
	var supportsResume int
	if err := row.Scan(&m.URL, &m.Filename, &m.TotalBytes, &m.DownloadedBytes, &supportsResume, &m.ChunkSize); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, classify(err)
	}
	m.SupportsResume = supportsResume != 0
	return &m, nil
}

// PutMetadata upserts the metadata record for m.URL.
func (s *Store) PutMetadata(m Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO metadata (url, filename, total_bytes, downloaded_bytes, supports_resume, chunk_size)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			filename = excluded.filename,
			total_bytes = excluded.total_bytes,
			downloaded_bytes = excluded.downloaded_bytes,
			supports_resume = excluded.supports_resume,
			chunk_size = excluded.chunk_size
	`, m.URL, m.Filename, m.TotalBytes, m.DownloadedBytes, boolToInt(m.SupportsResume), m.ChunkSize)
	return classify(err)
}

// ListMetadata returns every metadata record currently stored, in no
// particular order. Used to discover downloads left in progress by a
// prior process.
func (s *Store) ListMetadata() ([]Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT url, filename, total_bytes, downloaded_bytes, supports_resume, chunk_size
		FROM metadata`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var records []Metadata
	for rows.Next() {
		var m Metadata
		var supportsResume int
		if err := rows.Scan(&m.URL, &m.Filename, &m.TotalBytes, &m.DownloadedBytes, &supportsResume, &m.ChunkSize); err != nil {
			return nil, classify(err)
		}
		m.SupportsResume = supportsResume != 0
		records = append(records, m)
	}
	return records, classify(rows.Err())
}

// DeleteMetadata removes the metadata record for url, if any.
func (s *Store) DeleteMetadata(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM metadata WHERE url = ?`, url)
	return classify(err)
}

// PutChunk stores blob as chunk index for url. If that (url, index) pair
// is already present the call is a no-op: a retry that crosses a
// successful-write boundary must never overwrite a committed chunk.
func (s *Store) PutChunk(url string, index int, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO chunks (url, idx, blob) VALUES (?, ?, ?)
		ON CONFLICT(url, idx) DO NOTHING
	`, url, index, blob)
	return classify(err)
}

// ListChunks returns every chunk stored for url, ordered ascending by
// index.
func (s *Store) ListChunks(url string) ([]Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT idx, blob FROM chunks WHERE url = ? ORDER BY idx ASC`, url)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.Index, &c.Blob); err != nil {
			return nil, classify(err)
		}
		chunks = append(chunks, c)
	}
	return chunks, classify(rows.Err())
}

// DeleteChunks removes every chunk stored for url.
func (s *Store) DeleteChunks(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM chunks WHERE url = ?`, url)
	return classify(err)
}

// Purge removes both the metadata record and all chunks for url inside a
// single transaction, the combined operation a Task runs after
// completion or cancellation.
func (s *Store) Purge(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return classify(err)
	}
	if _, err := tx.Exec(`DELETE FROM metadata WHERE url = ?`, url); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	if _, err := tx.Exec(`DELETE FROM chunks WHERE url = ?`, url); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	return classify(tx.Commit())
}

// Reset wipes both collections. Only the tests call it; no CLI command
// exposes it.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return classify(err)
	}
	if _, err := tx.Exec(`DELETE FROM metadata`); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	if _, err := tx.Exec(`DELETE FROM chunks`); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	return classify(tx.Commit())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
