package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate is returned by Add when the chat already tracks the token.
var ErrDuplicate = errors.New("entry already exists")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Entry is one tracked token for one chat. ReferencePrice is the baseline
// for the next percent-change check and resets to the triggering price
// whenever an alert fires; InitialPrice never changes after creation.
type Entry struct {
	ID             int64     `json:"id"`
	TokenAddress   string    `json:"token_address"`
	ChainID        string    `json:"chain_id"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	DropThreshold  float64   `json:"drop_threshold"`
	ReferencePrice float64   `json:"reference_price"`
	InitialPrice   float64   `json:"initial_price"`
	ChatID         int64     `json:"chat_id"`
	AddedAt        time.Time `json:"added_at"`
}

const entryColumns = `id, token_address, chain_id, name, symbol, drop_threshold, reference_price, initial_price, chat_id, added_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.TokenAddress, &e.ChainID, &e.Name, &e.Symbol,
		&e.DropThreshold, &e.ReferencePrice, &e.InitialPrice, &e.ChatID, &e.AddedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Add inserts a new watchlist entry with reference = initial = price.
// Returns ErrDuplicate when (address, chain, chat) is already tracked.
func (s *Store) Add(ctx context.Context, address, chain string, chatID int64, name, symbol string, threshold, price float64) (*Entry, error) {
	if price <= 0 {
		return nil, fmt.Errorf("non-positive price: %v", price)
	}
	if threshold <= 0 || threshold > 100 {
		return nil, fmt.Errorf("threshold out of range: %v", threshold)
	}

	entry, err := scanEntry(s.pool.QueryRow(ctx, `
		INSERT INTO watchlist_entries (token_address, chain_id, name, symbol, drop_threshold, reference_price, initial_price, chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (token_address, chain_id, chat_id) DO NOTHING
		RETURNING `+entryColumns,
		strings.ToLower(address), strings.ToLower(chain), name, symbol, threshold, price, chatID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes one entry and reports whether it existed.
func (s *Store) Remove(ctx context.Context, address, chain string, chatID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM watchlist_entries
		WHERE token_address = $1 AND chain_id = $2 AND chat_id = $3`,
		strings.ToLower(address), strings.ToLower(chain), chatID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListAll returns every entry across all chats, oldest first.
func (s *Store) ListAll(ctx context.Context) ([]Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM watchlist_entries ORDER BY id`)
}

// ListByChat returns the entries for one chat, oldest first.
func (s *Store) ListByChat(ctx context.Context, chatID int64) ([]Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM watchlist_entries WHERE chat_id = $1 ORDER BY id`, chatID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// UpdateReferencePrice rebases one entry's alert baseline, typically to
// the price that just triggered an alert.
func (s *Store) UpdateReferencePrice(ctx context.Context, address, chain string, chatID int64, price float64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE watchlist_entries SET reference_price = $4
		WHERE token_address = $1 AND chain_id = $2 AND chat_id = $3`,
		strings.ToLower(address), strings.ToLower(chain), chatID, price)
	return err
}

// UpdateThreshold changes one entry's alert threshold and reports whether
// the entry existed.
func (s *Store) UpdateThreshold(ctx context.Context, address, chain string, chatID int64, threshold float64) (bool, error) {
	if threshold <= 0 || threshold > 100 {
		return false, fmt.Errorf("threshold out of range: %v", threshold)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE watchlist_entries SET drop_threshold = $4
		WHERE token_address = $1 AND chain_id = $2 AND chat_id = $3`,
		strings.ToLower(address), strings.ToLower(chain), chatID, threshold)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Count returns the total number of entries across all chats.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM watchlist_entries`).Scan(&count)
	return count, err
}
