// Package store provides the SQLite-backed job registry.
package store

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/jobreg/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to a job registry database.
type Store struct {
	db   *sql.DB
	path string
}

// New opens the registry at dbPath, creating the file and schema if needed.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}

	s, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.migrate(); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Open opens an existing registry. Unlike New it never creates one.
func Open(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRegistryMissing, dbPath)
		}
		return nil, fmt.Errorf("stat registry: %w", err)
	}
	return open(dbPath)
}

func open(dbPath string) (*Store, error) {
	dsn, err := dataSourceName(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	// A view holds its connection for the whole scan; one is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open registry: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// dataSourceName builds a file: URI for dbPath so that '?' and '#' in the
// path stay part of the file name.
func dataSourceName(dbPath string) (string, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return "", err
	}
	// WAL lets the scan's read transaction coexist with a writer.
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
	}
	return u.String(), nil
}

// Path returns the registry file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		recnum INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		blah_id TEXT NOT NULL UNIQUE,
		status INTEGER NOT NULL DEFAULT 0,
		exit_code INTEGER NOT NULL DEFAULT 0,
		exit_reason TEXT NOT NULL DEFAULT '',
		worker_node TEXT NOT NULL DEFAULT '',
		user_prefix TEXT NOT NULL DEFAULT '',
		proxy_file TEXT NOT NULL DEFAULT '',
		subject_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		modified_at INTEGER NOT NULL,
		user_time INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS subjects (
		hash TEXT PRIMARY KEY,
		subject TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_subject_hash ON entries(subject_hash);
	CREATE INDEX IF NOT EXISTS idx_entries_status ON entries(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SubjectHash returns the registry fingerprint of a proxy subject: the
// lower-case hex MD5 digest of the subject text.
func SubjectHash(subject string) string {
	sum := md5.Sum([]byte(subject))
	return hex.EncodeToString(sum[:])
}

// --- Entry Operations ---

// AddEntry registers subject and inserts e under its hash. Missing job names
// and timestamps are filled in; e is updated with the stored values.
func (s *Store) AddEntry(ctx context.Context, e *models.Entry, subject string) error {
	if e == nil {
		return errors.New("nil entry")
	}
	if subject == "" {
		return ErrEmptySubject
	}

	now := time.Now().UTC().Truncate(time.Second)
	if e.BlahID == "" {
		e.BlahID = "blah_" + uuid.New().String()
	}
	if e.BatchID == "" {
		e.BatchID = e.BlahID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.ModifiedAt.IsZero() {
		e.ModifiedAt = now
	}
	e.SubjectHash = SubjectHash(subject)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO subjects (hash, subject) VALUES (?, ?)`,
		e.SubjectHash, subject,
	); err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (batch_id, blah_id, status, exit_code, exit_reason, worker_node, user_prefix, proxy_file, subject_hash, created_at, modified_at, user_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BatchID, e.BlahID, int(e.Status), e.ExitCode, e.ExitReason, e.WorkerNode, e.UserPrefix, e.ProxyFile,
		e.SubjectHash, unixTime(e.CreatedAt), unixTime(e.ModifiedAt), unixTime(e.UserTime),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if e.RecNum, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("read record number: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus sets the status and exit code of the entry named blahID.
func (s *Store) UpdateStatus(ctx context.Context, blahID string, status models.JobStatus, exitCode int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET status = ?, exit_code = ?, modified_at = ? WHERE blah_id = ?`,
		int(status), exitCode, time.Now().UTC().Unix(), blahID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// --- Subject Operations ---

// LookupSubjectHash returns the subject cached for hash, or
// ErrHashNotFound when the registry has never seen it.
func (s *Store) LookupSubjectHash(ctx context.Context, hash string) (string, error) {
	var subject string
	err := s.db.QueryRowContext(ctx, `SELECT subject FROM subjects WHERE hash = ?`, hash).Scan(&subject)
	if err == sql.ErrNoRows {
		return "", ErrHashNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query subject: %w", err)
	}
	return subject, nil
}

// Subjects returns every registered subject ordered by hash.
func (s *Store) Subjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hash, subject FROM subjects ORDER BY hash`)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		var sub models.Subject
		if err := rows.Scan(&sub.Hash, &sub.Subject); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

func unixTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
