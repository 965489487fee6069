package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func scanCursor(scanner interface{ Scan(dest ...any) error }) (CrawlCursor, error) {
	var c CrawlCursor
	err := scanner.Scan(&c.AccountID, &c.Direction, &c.Cursor)
	return c, err
}

// GetCursor returns the crawl cursor of an account, or nil if none is pending
func (q *Queries) GetCursor(ctx context.Context, accountID int64) (*CrawlCursor, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT account_id, direction, cursor FROM crawl_cursors WHERE account_id = ?`, accountID)
	c, err := scanCursor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AnyCursor returns some pending crawl cursor, or nil when no crawl is in progress.
func (q *Queries) AnyCursor(ctx context.Context) (*CrawlCursor, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT account_id, direction, cursor FROM crawl_cursors ORDER BY account_id LIMIT 1`)
	c, err := scanCursor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveCursor inserts or replaces the single cursor of c.AccountID.
func (q *Queries) SaveCursor(ctx context.Context, c CrawlCursor) error {
	if !c.Direction.Valid() {
		return fmt.Errorf("invalid crawl direction %q", c.Direction)
	}
	if err := q.requireAccount(ctx, "crawl_cursors", c.AccountID); err != nil {
		return err
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO crawl_cursors (account_id, direction, cursor) VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET direction = excluded.direction, cursor = excluded.cursor
	`, c.AccountID, string(c.Direction), c.Cursor)
	if err != nil {
		return fmt.Errorf("saving cursor for %d: %w", c.AccountID, err)
	}
	return nil
}

// DeleteCursor removes the cursor of an account. Reports whether one existed.
func (q *Queries) DeleteCursor(ctx context.Context, accountID int64) (bool, error) {
	res, err := q.q.ExecContext(ctx, `DELETE FROM crawl_cursors WHERE account_id = ?`, accountID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountCursors returns the number of crawls in progress
func (q *Queries) CountCursors(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM crawl_cursors`)
}
