package db

import (
	"context"
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

// idCacheSize bounds the external_id -> row id cache used by UpsertAccount.
const idCacheSize = 100_000

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id             INTEGER PRIMARY KEY,
	external_id    INTEGER NOT NULL UNIQUE,
	screen_name    TEXT    NOT NULL DEFAULT '',
	display_name   TEXT    NOT NULL DEFAULT '',
	description    TEXT    NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL DEFAULT 0,
	follower_count INTEGER NOT NULL DEFAULT 0,
	friend_count   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS edges (
	author_id   INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	follower_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	PRIMARY KEY (author_id, follower_id)
);
CREATE INDEX IF NOT EXISTS idx_edges_follower ON edges(follower_id);
CREATE TABLE IF NOT EXISTS labels (
	account_id INTEGER PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
	weight     REAL    NOT NULL DEFAULT 1.0 CHECK (weight >= 0),
	is_new     INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS crawl_cursors (
	account_id INTEGER PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
	direction  TEXT    NOT NULL CHECK (direction IN ('following', 'followers')),
	cursor     INTEGER NOT NULL
);
`

// DB wraps a SQLite database connection. The embedded Queries run in
// autocommit mode; use InTx to group statements atomically.
type DB struct {
	*Queries
	conn *sql.DB
	ids  *lru.Cache[int64, int64]
	Path string
}

// OpenDB opens (creating if needed) a SQLite database with WAL mode and
// foreign keys enabled, and applies the schema.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer; also keeps ":memory:" databases on one connection.
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	ids, err := lru.New[int64, int64](idCacheSize)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating id cache: %w", err)
	}

	return &DB{
		Queries: &Queries{q: conn, ids: ids},
		conn:    conn,
		ids:     ids,
		Path:    path,
	}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// InTx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (d *DB) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	q := &Queries{q: tx, ids: d.ids, pending: make(map[int64]int64)}
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	// Rows inserted by a rolled back transaction must never reach the cache.
	for ext, id := range q.pending {
		d.ids.Add(ext, id)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every store operation. It runs either against the pool
// (autocommit) or inside a transaction opened by DB.InTx.
type Queries struct {
	q   querier
	ids *lru.Cache[int64, int64]

	// pending is non-nil inside a transaction; cache writes wait for commit.
	pending map[int64]int64
}

func (q *Queries) cacheID(externalID, id int64) {
	if q.pending != nil {
		q.pending[externalID] = id
		return
	}
	q.ids.Add(externalID, id)
}

func (q *Queries) cachedID(externalID int64) (int64, bool) {
	if q.pending != nil {
		if id, ok := q.pending[externalID]; ok {
			return id, true
		}
	}
	return q.ids.Get(externalID)
}

func (q *Queries) forgetID(externalID int64) {
	if q.pending != nil {
		delete(q.pending, externalID)
	}
	q.ids.Remove(externalID)
}

// Reset deletes every row from every table.
func (q *Queries) Reset(ctx context.Context) error {
	for _, table := range []string{"crawl_cursors", "labels", "edges", "accounts"} {
		if _, err := q.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	q.ids.Purge()
	if q.pending != nil {
		clear(q.pending)
	}
	return nil
}

// collectIDs scans a single-column id result set.
func collectIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
