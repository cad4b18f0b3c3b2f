package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Store.Lookup for unknown or expired tokens.
var ErrNotFound = errors.New("session: not found")

// Store persists server-side sessions.
type Store interface {
	Create(ctx context.Context, token string, accountID int64, expiresAt time.Time) error
	Lookup(ctx context.Context, token string) (*models.SessionInfo, error)
	Renew(ctx context.Context, token string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	CleanExpired(ctx context.Context) (int64, error)
}

// SQLStore keeps sessions in the relational database.
type SQLStore struct {
	db *storage.DB
}

// NewSQLStore creates a Store over the sessions table.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, token string, accountID int64, expiresAt time.Time) error {
	return s.db.CreateSession(ctx, token, accountID, expiresAt)
}

func (s *SQLStore) Lookup(ctx context.Context, token string) (*models.SessionInfo, error) {
	info, err := s.db.LookupSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return info, err
}

func (s *SQLStore) Renew(ctx context.Context, token string, expiresAt time.Time) error {
	return s.db.RenewSession(ctx, token, expiresAt)
}

func (s *SQLStore) Delete(ctx context.Context, token string) error {
	return s.db.DeleteSession(ctx, token)
}

func (s *SQLStore) CleanExpired(ctx context.Context) (int64, error) {
	return s.db.CleanExpiredSessions(ctx)
}

// RedisStore keeps sessions in Redis, one key per token with a TTL equal to
// the remaining lifetime.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type redisRecord struct {
	AccountID    int64 `json:"account_id"`
	ExpiresAt    int64 `json:"expires_at"`
	LastActivity int64 `json:"last_activity"`
}

// NewRedisStore creates a Store backed by client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) Create(ctx context.Context, token string, accountID int64, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(redisRecord{
		AccountID:    accountID,
		ExpiresAt:    expiresAt.Unix(),
		LastActivity: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(token), payload, ttl).Err()
}

func (s *RedisStore) Lookup(ctx context.Context, token string) (*models.SessionInfo, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if rec.ExpiresAt <= time.Now().Unix() {
		return nil, ErrNotFound
	}
	return &models.SessionInfo{
		Token:        token,
		AccountID:    rec.AccountID,
		LastActivity: time.Unix(rec.LastActivity, 0),
		ExpiresAt:    time.Unix(rec.ExpiresAt, 0),
	}, nil
}

// Renew only touches an existing key, so a concurrently deleted session
// stays deleted.
func (s *RedisStore) Renew(ctx context.Context, token string, expiresAt time.Time) error {
	info, err := s.Lookup(ctx, token)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(redisRecord{
		AccountID:    info.AccountID,
		ExpiresAt:    expiresAt.Unix(),
		LastActivity: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return s.client.SetXX(ctx, s.key(token), payload, time.Until(expiresAt)).Err()
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

// CleanExpired is a no-op: Redis expires keys itself.
func (s *RedisStore) CleanExpired(context.Context) (int64, error) {
	return 0, nil
}
