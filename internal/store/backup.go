package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tally/internal/model"
)

const backupColumns = `id, document_key, filename, object_key, size_bytes, status, error_message, started_at, completed_at, created_at, updated_at`

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBackup(sc scanner) (*model.Backup, error) {
	b := &model.Backup{}
	var startedAt, completedAt sql.NullTime
	if err := sc.Scan(&b.ID, &b.DocumentKey, &b.Filename, &b.ObjectKey, &b.SizeBytes, &b.Status, &b.ErrorMessage, &startedAt, &completedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if startedAt.Valid {
		b.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	return b, nil
}

func (s *BackupStore) Create(documentKey, filename, objectKey string) (*model.Backup, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO backups (document_key, filename, object_key, status, started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		documentKey, filename, objectKey, model.BackupStatusPending, now, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.Backup{
		ID:          id,
		DocumentKey: documentKey,
		Filename:    filename,
		ObjectKey:   objectKey,
		Status:      model.BackupStatusPending,
		StartedAt:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *BackupStore) GetByID(id int64) (*model.Backup, error) {
	b, err := scanBackup(s.db.QueryRow(`SELECT `+backupColumns+` FROM backups WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backup %d: %w", id, err)
	}
	return b, nil
}

// List returns the newest backups of documentKey first.
func (s *BackupStore) List(documentKey string, limit int) ([]model.Backup, error) {
	rows, err := s.db.Query(
		`SELECT `+backupColumns+` FROM backups WHERE document_key = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		documentKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	backups := []model.Backup{}
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		backups = append(backups, *b)
	}
	return backups, rows.Err()
}

func (s *BackupStore) UpdateStatus(id int64, status model.BackupStatus, errorMsg string) error {
	_, err := s.db.Exec(
		`UPDATE backups SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, errorMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update backup status: %w", err)
	}
	return nil
}

func (s *BackupStore) UpdateCompleted(id, sizeBytes int64) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE backups SET status = ?, size_bytes = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		model.BackupStatusCompleted, sizeBytes, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("update backup completed: %w", err)
	}
	return nil
}

// DeleteOlderThan deletes the backups of documentKey created before the
// given time and returns their object keys.
func (s *BackupStore) DeleteOlderThan(documentKey string, before time.Time) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT object_key FROM backups WHERE document_key = ? AND created_at < ?`,
		documentKey, before,
	)
	if err != nil {
		return nil, fmt.Errorf("select old backups: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan object key: %w", err)
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`DELETE FROM backups WHERE document_key = ? AND created_at < ?`,
		documentKey, before,
	)
	if err != nil {
		return nil, fmt.Errorf("delete old backups: %w", err)
	}
	return keys, nil
}

func (s *BackupStore) LatestCompleted(documentKey string) (*model.Backup, error) {
	b, err := scanBackup(s.db.QueryRow(
		`SELECT `+backupColumns+` FROM backups WHERE document_key = ? AND status = ? ORDER BY completed_at DESC, id DESC LIMIT 1`,
		documentKey, model.BackupStatusCompleted,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest completed backup: %w", err)
	}
	return b, nil
}
