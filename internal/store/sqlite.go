package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteWatchlist persists the watchlist to a SQLite database.
type SQLiteWatchlist struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteWatchlist opens (or creates) the SQLite database and runs migrations.
// An empty watchlist is seeded with seed.
func NewSQLiteWatchlist(dbPath string, seed []string, logger zerolog.Logger) (*SQLiteWatchlist, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	w := &SQLiteWatchlist{db: db, logger: logger.With().Str("component", "watchlist").Logger()}
	if err := w.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := w.seed(seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}

	w.logger.Info().Str("path", dbPath).Msg("sqlite watchlist opened")
	return w, nil
}

func (w *SQLiteWatchlist) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS watchlist (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol   TEXT NOT NULL UNIQUE,
			added_at INTEGER NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := w.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (w *SQLiteWatchlist) seed(symbols []string) error {
	var n int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM watchlist`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, s := range symbols {
		if _, err := w.Add(context.Background(), s); err != nil {
			return err
		}
	}
	w.logger.Info().Int("symbols", len(symbols)).Msg("watchlist seeded")
	return nil
}

func (w *SQLiteWatchlist) List(ctx context.Context) ([]string, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT symbol FROM watchlist ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (w *SQLiteWatchlist) Add(ctx context.Context, symbol string) (bool, error) {
	s, err := normalize(symbol)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	res, err := w.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO watchlist (symbol, added_at) VALUES (?, ?)`,
		s, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("add %s: %w", s, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (w *SQLiteWatchlist) Remove(ctx context.Context, symbol string) (bool, error) {
	s, err := normalize(symbol)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	res, err := w.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, s)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", s, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (w *SQLiteWatchlist) Close() error {
	w.logger.Info().Msg("closing sqlite watchlist")
	return w.db.Close()
}
