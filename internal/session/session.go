package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is an explicit tag for where a chat is in a multi-step command.
type State string

const (
	StateIdle              State = "idle"
	StateAwaitingChain     State = "awaiting_chain"
	StateAwaitingAddress   State = "awaiting_address"
	StateAwaitingThreshold State = "awaiting_threshold"
	StateAwaitingQuery     State = "awaiting_query"
)

// Conversation is the per-chat state of an in-progress command. Fields
// fill in as the chat answers prompts.
type Conversation struct {
	State        State  `json:"state"`
	ChainID      string `json:"chain_id,omitempty"`
	TokenAddress string `json:"token_address,omitempty"`
}

// Abandoned conversations expire on their own.
const conversationTTL = 10 * time.Minute

// Store keeps conversation state in Redis, keyed by chat ID.
type Store struct {
	rdb *redis.Client
}

func New(redisURL, password string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Store{rdb: rdb}, nil
}

// Close shuts down the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func key(chatID int64) string {
	return fmt.Sprintf("conversation:%d", chatID)
}

// Get returns the chat's current conversation, or an idle one when no
// conversation is in progress or the previous one expired.
func (s *Store) Get(ctx context.Context, chatID int64) (*Conversation, error) {
	raw, err := s.rdb.Get(ctx, key(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return &Conversation{State: StateIdle}, nil
	}
	if err != nil {
		return nil, err
	}

	var conv Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &conv, nil
}

// Set stores the chat's conversation state with a fresh TTL.
func (s *Store) Set(ctx context.Context, chatID int64, conv *Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	return s.rdb.Set(ctx, key(chatID), raw, conversationTTL).Err()
}

// Clear drops the chat's conversation state, returning it to idle.
func (s *Store) Clear(ctx context.Context, chatID int64) error {
	return s.rdb.Del(ctx, key(chatID)).Err()
}
