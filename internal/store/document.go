package store

import (
	"database/sql"
	"fmt"
	"time"
)

// DocumentStore keeps one serialized document per key. Every save
// overwrites the body and bumps the revision.
type DocumentStore struct {
	db  *sql.DB
	key string
}

func NewDocumentStore(db *sql.DB, key string) *DocumentStore {
	return &DocumentStore{db: db, key: key}
}

// Load returns the stored body, or nil, nil when nothing has been saved
// under the key yet.
func (s *DocumentStore) Load() ([]byte, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM documents WHERE key = ?`, s.key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document %q: %w", s.key, err)
	}
	return body, nil
}

func (s *DocumentStore) Save(data []byte) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO documents (key, body, revision, updated_at) VALUES (?, ?, 1, ?)
		 ON CONFLICT(key) DO UPDATE SET
		     body = excluded.body,
		     revision = documents.revision + 1,
		     updated_at = excluded.updated_at`,
		s.key, data, now,
	)
	if err != nil {
		return fmt.Errorf("save document %q: %w", s.key, err)
	}
	return nil
}

// Revision returns how many times the document has been saved; 0 means
// it has never been written.
func (s *DocumentStore) Revision() (int64, error) {
	var rev int64
	err := s.db.QueryRow(`SELECT revision FROM documents WHERE key = ?`, s.key).Scan(&rev)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("document revision %q: %w", s.key, err)
	}
	return rev, nil
}
