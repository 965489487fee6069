package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func scanLabel(scanner interface{ Scan(dest ...any) error }) (Label, error) {
	var l Label
	err := scanner.Scan(&l.AccountID, &l.Weight, &l.IsNew)
	return l, err
}

// AddLabels labels every account in ids with the default weight. Accounts
// that are already labeled keep their current label. Returns the number of
// labels inserted.
func (q *Queries) AddLabels(ctx context.Context, ids []int64, isNew bool) (int, error) {
	inserted := 0
	for _, id := range ids {
		if err := q.requireAccount(ctx, "labels", id); err != nil {
			return inserted, err
		}
		res, err := q.q.ExecContext(ctx, `
			INSERT INTO labels (account_id, weight, is_new) VALUES (?, 1.0, ?)
			ON CONFLICT(account_id) DO NOTHING
		`, id, isNew)
		if err != nil {
			return inserted, fmt.Errorf("labeling account %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

// UpsertLabel labels the account or updates the is_new flag of an existing label.
func (q *Queries) UpsertLabel(ctx context.Context, id int64, isNew bool) error {
	if err := q.requireAccount(ctx, "labels", id); err != nil {
		return err
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO labels (account_id, weight, is_new) VALUES (?, 1.0, ?)
		ON CONFLICT(account_id) DO UPDATE SET is_new = excluded.is_new
	`, id, isNew)
	return err
}

// MarkCrawled clears the is_new flag once an account's crawl has completed.
func (q *Queries) MarkCrawled(ctx context.Context, id int64) error {
	_, err := q.q.ExecContext(ctx, `UPDATE labels SET is_new = 0 WHERE account_id = ?`, id)
	return err
}

// GetLabel returns the label of an account, or nil if it is not labeled
func (q *Queries) GetLabel(ctx context.Context, id int64) (*Label, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT account_id, weight, is_new FROM labels WHERE account_id = ?`, id)
	l, err := scanLabel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// AnyNewLabel returns some label whose account has not been crawled yet, or nil.
func (q *Queries) AnyNewLabel(ctx context.Context) (*Label, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT account_id, weight, is_new FROM labels WHERE is_new = 1 ORDER BY account_id LIMIT 1`)
	l, err := scanLabel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Labels returns every label ordered by account id
func (q *Queries) Labels(ctx context.Context) ([]Label, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT account_id, weight, is_new FROM labels ORDER BY account_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// CountLabels returns the size of the labeled set
func (q *Queries) CountLabels(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM labels`)
}

// SetWeights overwrites the weight of each labeled account in weights.
func (q *Queries) SetWeights(ctx context.Context, weights map[int64]float64) error {
	for id, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative weight %.2f for account %d", w, id)
		}
		res, err := q.q.ExecContext(ctx, `UPDATE labels SET weight = ? WHERE account_id = ?`, w, id)
		if err != nil {
			return fmt.Errorf("setting weight of %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return &ReferentialIntegrityError{Table: "labels", AccountID: id}
		}
	}
	return nil
}

// LabeledAccounts returns labeled accounts with weight >= minWeight,
// heaviest first.
func (q *Queries) LabeledAccounts(ctx context.Context, minWeight float64) ([]LabeledAccount, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT a.id, a.external_id, a.screen_name, a.display_name, a.description,
		       a.created_at, a.follower_count, a.friend_count, l.weight
		FROM accounts a JOIN labels l ON l.account_id = a.id
		WHERE l.weight >= ?
		ORDER BY l.weight DESC, a.external_id
	`, minWeight)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LabeledAccount
	for rows.Next() {
		var la LabeledAccount
		var createdAt int64
		if err := rows.Scan(
			&la.ID, &la.ExternalID, &la.ScreenName, &la.DisplayName, &la.Description,
			&createdAt, &la.FollowerCount, &la.FriendCount, &la.Weight,
		); err != nil {
			return nil, err
		}
		la.CreatedAt = unixUTC(createdAt)
		out = append(out, la)
	}
	return out, rows.Err()
}

// CountNewLabels returns the number of labeled accounts not crawled yet
func (q *Queries) CountNewLabels(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM labels WHERE is_new = 1`)
}
