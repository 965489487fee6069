package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const accountColumns = `id, external_id, screen_name, display_name, description,
	created_at, follower_count, friend_count`

// scanAccount scans a row into an Account. The row must have accountColumns in order.
func scanAccount(scanner interface{ Scan(dest ...any) error }) (Account, error) {
	var a Account
	var createdAt int64
	err := scanner.Scan(
		&a.ID, &a.ExternalID, &a.ScreenName, &a.DisplayName, &a.Description,
		&createdAt, &a.FollowerCount, &a.FriendCount,
	)
	a.CreatedAt = unixUTC(createdAt)
	return a, err
}

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// UpsertAccount inserts the account if its external id is unknown and
// returns the row id. Existing rows are never modified.
func (q *Queries) UpsertAccount(ctx context.Context, a Account) (int64, error) {
	if id, ok := q.cachedID(a.ExternalID); ok {
		return id, nil
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO accounts (external_id, screen_name, display_name, description,
		                      created_at, follower_count, friend_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO NOTHING
	`, a.ExternalID, a.ScreenName, a.DisplayName, a.Description,
		a.CreatedAt.Unix(), a.FollowerCount, a.FriendCount)
	if err != nil {
		return 0, fmt.Errorf("upserting account %d: %w", a.ExternalID, err)
	}

	var id int64
	err = q.q.QueryRowContext(ctx, `SELECT id FROM accounts WHERE external_id = ?`, a.ExternalID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("looking up account %d: %w", a.ExternalID, err)
	}
	q.cacheID(a.ExternalID, id)
	return id, nil
}

// GetAccount returns a single account by row id, or nil if not found
func (q *Queries) GetAccount(ctx context.Context, id int64) (*Account, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AccountByExternalID returns the account with the given provider id, or nil if not found
func (q *Queries) AccountByExternalID(ctx context.Context, externalID int64) (*Account, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE external_id = ?`, externalID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AllAccounts returns every account ordered by row id
func (q *Queries) AllAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CountAccounts returns the number of stored accounts
func (q *Queries) CountAccounts(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM accounts`)
}

// DeleteAccount removes an account together with every edge touching it,
// its label and its crawl cursor. Reports whether the account existed.
func (q *Queries) DeleteAccount(ctx context.Context, id int64) (bool, error) {
	a, err := q.GetAccount(ctx, id)
	if err != nil {
		return false, err
	}
	if a == nil {
		return false, nil
	}

	// Explicit deletes keep the cascade independent of the foreign_keys pragma.
	if _, err := q.q.ExecContext(ctx,
		`DELETE FROM edges WHERE author_id = ? OR follower_id = ?`, id, id); err != nil {
		return false, fmt.Errorf("deleting edges of %d: %w", id, err)
	}
	for _, table := range []string{"labels", "crawl_cursors"} {
		if _, err := q.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE account_id = ?", id); err != nil {
			return false, fmt.Errorf("deleting %s of %d: %w", table, id, err)
		}
	}
	if _, err := q.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("deleting account %d: %w", id, err)
	}
	q.forgetID(a.ExternalID)
	return true, nil
}

// requireAccount returns a ReferentialIntegrityError when id is not a stored account.
func (q *Queries) requireAccount(ctx context.Context, table string, id int64) error {
	var one int
	err := q.q.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return &ReferentialIntegrityError{Table: table, AccountID: id}
	}
	return err
}
