package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const profileKeyPrefix = "station:profile:"

// CachedDirectory is a read-through Redis cache in front of another Directory.
// Cache failures degrade to a direct lookup; they never fail the request.
type CachedDirectory struct {
	next  Directory
	redis redis.Cmdable
	ttl   time.Duration
}

// NewCachedDirectory wraps next with a cache whose entries live for ttl.
func NewCachedDirectory(next Directory, rdb redis.Cmdable, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{next: next, redis: rdb, ttl: ttl}
}

func profileKey(id string) string {
	return profileKeyPrefix + id
}

func (d *CachedDirectory) GetProfile(ctx context.Context, id string) (*Profile, error) {
	key := profileKey(id)

	raw, err := d.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Profile
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		slog.Warn("discarding corrupt cached profile", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("profile cache read failed", "key", key, "error", err)
	}

	p, err := d.next.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	if err := d.redis.Set(ctx, key, data, d.ttl).Err(); err != nil {
		slog.Warn("profile cache write failed", "key", key, "error", err)
	}

	return p, nil
}

// Invalidate drops a cached profile, e.g. after the account subsystem reports a change.
func (d *CachedDirectory) Invalidate(ctx context.Context, id string) error {
	return d.redis.Del(ctx, profileKey(id)).Err()
}

// NewRedisClient parses url (redis://...) and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
