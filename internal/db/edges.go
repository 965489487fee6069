package db

import (
	"context"
	"fmt"
)

// Follow records that followerID follows authorID. Existing edges are left alone.
func (q *Queries) Follow(ctx context.Context, followerID, authorID int64) error {
	if err := q.requireAccount(ctx, "edges", followerID); err != nil {
		return err
	}
	if err := q.requireAccount(ctx, "edges", authorID); err != nil {
		return err
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO edges (author_id, follower_id) VALUES (?, ?)
		ON CONFLICT(author_id, follower_id) DO NOTHING
	`, authorID, followerID)
	if err != nil {
		return fmt.Errorf("adding edge %d -> %d: %w", followerID, authorID, err)
	}
	return nil
}

// BulkFollow records that followerID follows every account in authorIDs.
func (q *Queries) BulkFollow(ctx context.Context, followerID int64, authorIDs []int64) error {
	for _, authorID := range authorIDs {
		if err := q.Follow(ctx, followerID, authorID); err != nil {
			return err
		}
	}
	return nil
}

// BulkAttract records that every account in followerIDs follows authorID.
func (q *Queries) BulkAttract(ctx context.Context, authorID int64, followerIDs []int64) error {
	for _, followerID := range followerIDs {
		if err := q.Follow(ctx, followerID, authorID); err != nil {
			return err
		}
	}
	return nil
}

// Unfollow removes the edge followerID -> authorID if present.
func (q *Queries) Unfollow(ctx context.Context, followerID, authorID int64) error {
	_, err := q.q.ExecContext(ctx,
		`DELETE FROM edges WHERE author_id = ? AND follower_id = ?`, authorID, followerID)
	return err
}

// IsFollowing reports whether followerID follows authorID
func (q *Queries) IsFollowing(ctx context.Context, followerID, authorID int64) (bool, error) {
	n, err := q.count(ctx,
		`SELECT COUNT(*) FROM edges WHERE author_id = ? AND follower_id = ?`, authorID, followerID)
	return n > 0, err
}

// Friends returns the ids of the accounts id follows, ascending.
func (q *Queries) Friends(ctx context.Context, id int64) ([]int64, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT author_id FROM edges WHERE follower_id = ? ORDER BY author_id`, id)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// Followers returns the ids of the accounts following id, ascending.
func (q *Queries) Followers(ctx context.Context, id int64) ([]int64, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT follower_id FROM edges WHERE author_id = ? ORDER BY follower_id`, id)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// AllEdges returns all edges
func (q *Queries) AllEdges(ctx context.Context) ([]Edge, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT author_id, follower_id FROM edges ORDER BY author_id, follower_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.AuthorID, &e.FollowerID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CountEdges returns the number of stored edges
func (q *Queries) CountEdges(ctx context.Context) (int, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM edges`)
}
