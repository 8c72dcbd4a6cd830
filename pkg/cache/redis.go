package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"learnpath/internal/models"
)

const maxTxRetries = 5

// RedisCache stores quiz sessions. Each session is one JSON key with a TTL
// equal to its remaining lifetime; an owner key per (user, progress) points
// at the live session.
type RedisCache struct {
	client *redis.Client
	now    func() time.Time
}

type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(opts Options) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisCache{client: client, now: time.Now}
}

// WithClock replaces the clock used for the lazy expiry check.
func (c *RedisCache) WithClock(now func() time.Time) *RedisCache {
	c.now = now
	return c
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func sessionKey(id string) string {
	return "quizsession:" + id
}

func ownerKey(userID, progressID uint) string {
	return fmt.Sprintf("quizsession:owner:%d:%d", userID, progressID)
}

// ReplaceSession makes s the only live session for its (user, progress).
// The previous session is deleted in the same MULTI/EXEC that makes the new
// one visible, so a reader never sees both or neither.
func (c *RedisCache) ReplaceSession(ctx context.Context, s *models.QuizSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := s.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	owner := ownerKey(s.UserID, s.ProgressID)

	return c.withRetry(ctx, func(tx *redis.Tx) error {
		oldID, err := tx.Get(ctx, owner).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if oldID != "" && oldID != s.ID {
				pipe.Del(ctx, sessionKey(oldID))
			}
			pipe.Set(ctx, sessionKey(s.ID), data, ttl)
			pipe.Set(ctx, owner, s.ID, ttl)
			return nil
		})
		return err
	}, owner)
}

// GetSession returns nil when the session does not exist or has expired.
// Expired sessions are removed on the way out.
func (c *RedisCache) GetSession(ctx context.Context, id string) (*models.QuizSession, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s models.QuizSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Expired(c.now()) {
		if err := c.DeleteSession(ctx, &s); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &s, nil
}

// DeleteSession removes s, and its owner pointer if that still points at s.
func (c *RedisCache) DeleteSession(ctx context.Context, s *models.QuizSession) error {
	owner := ownerKey(s.UserID, s.ProgressID)
	return c.withRetry(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, owner).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, sessionKey(s.ID))
			if current == s.ID {
				pipe.Del(ctx, owner)
			}
			return nil
		})
		return err
	}, owner)
}

func (c *RedisCache) withRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := c.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}
