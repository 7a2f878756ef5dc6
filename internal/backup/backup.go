package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/store"
)

var (
	ErrNotConfigured = errors.New("backup not configured: S3 credentials missing")
	ErrNotFound      = errors.New("backup not found")
	ErrInProgress    = errors.New("backup already running")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Source is the document being backed up. *ledger.Ledger satisfies it.
type Source interface {
	EncodeDocument() ([]byte, error)
	ReplaceDocument(raw []byte) error
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	S3            S3Config
	DocumentKey   string
	Passphrase    string
	RetentionDays int
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager pushes encrypted document snapshots to S3-compatible storage and
// restores them.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	running  bool

	source  Source
	backups *store.BackupStore
	client  s3Client
	logger  *slog.Logger
}

func NewManager(cfg Config, source Source, backups *store.BackupStore, logger *slog.Logger, callback StatusCallback) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	m := &Manager{
		cfg:      cfg,
		source:   source,
		backups:  backups,
		callback: callback,
		logger:   logger,
		status:   Status{State: StateDisabled},
	}
	if cfg.S3.complete() {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	if backups != nil {
		if last, err := backups.LatestCompleted(cfg.DocumentKey); err != nil {
			logger.Warn("load last backup", "error", err)
		} else if last != nil {
			m.status.LastBackup = last.CompletedAt
		}
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether S3 storage is configured.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s.LastBackup == nil {
		s.LastBackup = m.status.LastBackup
	}
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) passphrase(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg.Passphrase == "" {
		return "", ErrNoPassphrase
	}
	return m.cfg.Passphrase, nil
}

// List returns the most recent backups of the configured document.
func (m *Manager) List(limit int) ([]model.Backup, error) {
	return m.backups.List(m.cfg.DocumentKey, limit)
}

// RunNow encrypts the current document and uploads it. An empty
// passphrase falls back to the configured one.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (*model.Backup, error) {
	m.mu.Lock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	if client == nil {
		m.mu.Unlock()
		return nil, ErrNotConfigured
	}
	if m.running {
		m.mu.Unlock()
		return nil, ErrInProgress
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	pass, err := m.passphrase(passphrase)
	if err != nil {
		return nil, err
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	now := time.Now().UTC()
	filename := fmt.Sprintf("tally-%s.json.enc", now.Format("20060102T150405.000Z"))
	objectKey := m.cfg.DocumentKey + "/" + filename

	record, err := m.backups.Create(m.cfg.DocumentKey, filename, objectKey)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, fmt.Errorf("create backup record: %w", err)
	}

	fail := func(step string, err error) (*model.Backup, error) {
		if uerr := m.backups.UpdateStatus(record.ID, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("mark backup failed", "id", record.ID, "error", uerr)
		}
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := m.backups.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		return fail("mark uploading", err)
	}

	plain, err := m.source.EncodeDocument()
	if err != nil {
		return fail("encode document", err)
	}
	enc, err := Encrypt(plain, pass)
	if err != nil {
		return fail("encrypt", err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(enc),
		ContentLength: aws.Int64(int64(len(enc))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fail("upload to s3", err)
	}

	if err := m.backups.UpdateCompleted(record.ID, int64(len(enc))); err != nil {
		return fail("mark completed", err)
	}

	done := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &done})
	m.logger.Info("backup completed", "id", record.ID, "object_key", objectKey, "bytes", len(enc))

	return m.backups.GetByID(record.ID)
}

// Restore downloads backup id, decrypts it and replaces the live document.
func (m *Manager) Restore(ctx context.Context, id int64, passphrase string) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()
	if client == nil {
		return ErrNotConfigured
	}

	pass, err := m.passphrase(passphrase)
	if err != nil {
		return err
	}

	record, err := m.backups.GetByID(id)
	if err != nil {
		return fmt.Errorf("get backup: %w", err)
	}
	if record == nil || record.DocumentKey != m.cfg.DocumentKey || record.Status != model.BackupStatusCompleted {
		return ErrNotFound
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.ObjectKey),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	enc, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read backup body: %w", err)
	}
	plain, err := Decrypt(enc, pass)
	if err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}
	if err := m.source.ReplaceDocument(plain); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}

	m.logger.Info("backup restored", "id", id, "object_key", record.ObjectKey)
	return nil
}

// Cleanup deletes backups older than the retention period, both the rows
// and their objects. Object deletion failures are logged and skipped.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	retention := m.cfg.RetentionDays
	m.mu.RUnlock()
	if client == nil {
		return nil
	}

	before := time.Now().UTC().AddDate(0, 0, -retention)
	keys, err := m.backups.DeleteOlderThan(m.cfg.DocumentKey, before)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete backup object", "key", key, "error", err)
		}
	}
	if len(keys) > 0 {
		m.logger.Info("old backups removed", "count", len(keys), "retention_days", retention)
	}
	return nil
}
