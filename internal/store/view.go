package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fentz26/jobreg/internal/models"
)

// Reader reads the registry under a read lock. It is only valid inside the
// View callback that produced it.
type Reader struct {
	tx *sql.Tx
}

// View runs fn with the registry read-locked. The lock is taken once before
// fn runs and released when View returns, whatever fn does.
func (s *Store) View(ctx context.Context, fn func(*Reader) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadLock, err)
	}
	defer tx.Rollback()

	// The first read takes SQLite's shared lock and pins the snapshot the
	// rest of the view sees.
	var tables int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master`).Scan(&tables); err != nil {
		return fmt.Errorf("%w: %v", ErrReadLock, err)
	}

	return fn(&Reader{tx: tx})
}

// HashMatches returns a cursor over the entries whose subject hash equals
// hash, in record order.
func (r *Reader) HashMatches(ctx context.Context, hash string) (*Cursor, error) {
	rows, err := r.tx.QueryContext(ctx,
		`SELECT recnum, batch_id, blah_id, status, exit_code, exit_reason, worker_node, user_prefix, proxy_file, subject_hash, created_at, modified_at, user_time
		 FROM entries WHERE subject_hash = ? ORDER BY recnum`,
		hash,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return &Cursor{rows: rows}, nil
}

// Cursor iterates registry entries. Call Next until it returns false, then
// check Err.
type Cursor struct {
	rows  *sql.Rows
	entry *models.Entry
	err   error
}

// Next advances to the next entry.
func (c *Cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}

	var (
		e                       models.Entry
		status                  int
		created, modified, user int64
	)
	if err := c.rows.Scan(&e.RecNum, &e.BatchID, &e.BlahID, &status, &e.ExitCode, &e.ExitReason,
		&e.WorkerNode, &e.UserPrefix, &e.ProxyFile, &e.SubjectHash, &created, &modified, &user); err != nil {
		c.err = fmt.Errorf("scan entry: %w", err)
		return false
	}
	e.Status = models.JobStatus(status)
	e.CreatedAt = fromUnix(created)
	e.ModifiedAt = fromUnix(modified)
	e.UserTime = fromUnix(user)
	c.entry = &e
	return true
}

// Entry returns the current entry.
func (c *Cursor) Entry() *models.Entry {
	return c.entry
}

// Err returns the first error met while iterating.
func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

// Close releases the cursor.
func (c *Cursor) Close() error {
	return c.rows.Close()
}
