package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-table/internal/usertable"
)

const tableStatePrefix = "usertable:state:"

// TableStore keeps user table snapshots of browser sessions in Redis.
// Every save refreshes the TTL, so active sessions never expire.
type TableStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewTableStore creates a Redis-backed usertable.Store.
func NewTableStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *TableStore {
	return &TableStore{
		client: client,
		ttl:    ttl,
		log:    log.Named("table_store"),
	}
}

func tableKey(sessionID string) string {
	return tableStatePrefix + sessionID
}

// Load returns the saved snapshot of a session, or nil when there is none.
func (s *TableStore) Load(ctx context.Context, sessionID string) (*usertable.State, error) {
	var state usertable.State
	found, err := getJSON(ctx, s.client, tableKey(sessionID), &state)
	if err != nil {
		return nil, err
	}
	if !found {
		s.log.Debug("no saved table state", zap.String("session_id", sessionID))
		return nil, nil
	}
	return &state, nil
}

// Save stores a snapshot and refreshes its TTL.
func (s *TableStore) Save(ctx context.Context, sessionID string, state usertable.State) error {
	return setJSON(ctx, s.client, tableKey(sessionID), state, s.ttl)
}

// Delete removes the snapshot of a session.
func (s *TableStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, tableKey(sessionID)).Err()
}
