package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS watchlist_entries (
    id BIGSERIAL PRIMARY KEY,
    token_address TEXT NOT NULL,
    chain_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    symbol TEXT NOT NULL DEFAULT '',
    drop_threshold DOUBLE PRECISION NOT NULL CHECK (drop_threshold > 0 AND drop_threshold <= 100),
    reference_price DOUBLE PRECISION NOT NULL CHECK (reference_price > 0),
    initial_price DOUBLE PRECISION NOT NULL CHECK (initial_price > 0),
    chat_id BIGINT NOT NULL,
    added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (token_address, chain_id, chat_id)
);

CREATE INDEX IF NOT EXISTS idx_watchlist_entries_chat ON watchlist_entries (chat_id);
CREATE INDEX IF NOT EXISTS idx_watchlist_entries_chain ON watchlist_entries (chain_id);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
