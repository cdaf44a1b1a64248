package redisstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/CodeWizard-AB/realtime-chat/internal/domain"
	"github.com/CodeWizard-AB/realtime-chat/internal/repository"
)

// Hash field names of the room record.
const (
	fieldOwnerID   = "ownerId"
	fieldUsername  = "username"
	fieldType      = "type"
	fieldAvatar    = "avatar"
	fieldCreatedAt = "createdAt"
	fieldExpiresAt = "expiresAt"
)

// RedisRoomRepository implements repository.RoomRepository,
// repository.LockRepository and repository.QuotaRepository on a single Redis
// client. Redis is the only source of truth; every operation here is a single
// atomic primitive (SETNX, INCR, EXPIRE, ...) or a pipeline of them, never a
// transaction.
type RedisRoomRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRoomRepository creates a RedisRoomRepository. keyPrefix may be empty;
// it exists so several deployments can share one Redis database.
func NewRedisRoomRepository(client *redis.Client, keyPrefix string) *RedisRoomRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisRoomRepository")
	}
	return &RedisRoomRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisRoomRepository) roomKey(token string) string {
	return fmt.Sprintf("%sroom:%s", r.keyPrefix, token)
}

func (r *RedisRoomRepository) roomMembersKey(token string) string {
	return fmt.Sprintf("%sroom:%s:members", r.keyPrefix, token)
}

func (r *RedisRoomRepository) userRoomKey(username string) string {
	return fmt.Sprintf("%suser:%s:room", r.keyPrefix, username)
}

func (r *RedisRoomRepository) usernameLockKey(username string) string {
	return fmt.Sprintf("%susername:lock:%s", r.keyPrefix, username)
}

func (r *RedisRoomRepository) createCountKey(address string) string {
	return fmt.Sprintf("%sip:%s:room:create", r.keyPrefix, address)
}

func (r *RedisRoomRepository) memberSetPattern() string {
	return fmt.Sprintf("%sroom:*:members", r.keyPrefix)
}

// --- RoomRepository ---

// SaveRoom writes the room hash and applies its TTL in one pipeline round trip.
func (r *RedisRoomRepository) SaveRoom(ctx context.Context, token string, room *domain.Room, ttl time.Duration) error {
	key := r.roomKey(token)
	fields := map[string]interface{}{
		fieldOwnerID:   room.OwnerID,
		fieldUsername:  room.Username,
		fieldType:      string(room.Type),
		fieldAvatar:    room.AvatarURL,
		fieldCreatedAt: strconv.FormatInt(room.CreatedAt, 10),
		fieldExpiresAt: strconv.FormatInt(room.ExpiresAt, 10),
	}
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to save room on key %s: %w", key, err)
	}
	return nil
}

func (r *RedisRoomRepository) FindRoom(ctx context.Context, token string) (*domain.Room, error) {
	key := r.roomKey(token)
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to get room from %s: %w", key, err)
	}
	// HGETALL on a missing key returns an empty map, not redis.Nil.
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}
	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: failed to parse createdAt %q on %s: %w", fields[fieldCreatedAt], key, err)
	}
	expiresAt, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: failed to parse expiresAt %q on %s: %w", fields[fieldExpiresAt], key, err)
	}
	return &domain.Room{
		OwnerID:   fields[fieldOwnerID],
		Username:  fields[fieldUsername],
		Type:      domain.RoomType(fields[fieldType]),
		AvatarURL: fields[fieldAvatar],
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (r *RedisRoomRepository) RoomTTL(ctx context.Context, token string) (time.Duration, error) {
	return r.keyTTL(ctx, r.roomKey(token))
}

func (r *RedisRoomRepository) AddMember(ctx context.Context, token, memberID string) error {
	key := r.roomMembersKey(token)
	if err := r.client.SAdd(ctx, key, memberID).Err(); err != nil {
		return fmt.Errorf("redis: failed to add member to %s: %w", key, err)
	}
	return nil
}

func (r *RedisRoomRepository) SyncMembersTTL(ctx context.Context, token string, ttl time.Duration) error {
	key := r.roomMembersKey(token)
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set TTL on %s: %w", key, err)
	}
	return nil
}

func (r *RedisRoomRepository) MembersTTL(ctx context.Context, token string) (time.Duration, error) {
	return r.keyTTL(ctx, r.roomMembersKey(token))
}

func (r *RedisRoomRepository) DeleteMembers(ctx context.Context, token string) error {
	key := r.roomMembersKey(token)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete %s: %w", key, err)
	}
	return nil
}

// MemberSetTokens walks the keyspace with SCAN (never KEYS) and extracts the
// room token out of each room:<token>:members key.
func (r *RedisRoomRepository) MemberSetTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	var cursor uint64
	prefixLen := len(r.keyPrefix) + len("room:")
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.memberSetPattern(), 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: failed to scan member sets: %w", err)
		}
		for _, key := range keys {
			if len(key) > prefixLen+len(":members") {
				tokens = append(tokens, key[prefixLen:len(key)-len(":members")])
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return tokens, nil
}

func (r *RedisRoomRepository) SetUserRoom(ctx context.Context, username, token string, ttl time.Duration) error {
	key := r.userRoomKey(username)
	if err := r.client.Set(ctx, key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set user room pointer on %s: %w", key, err)
	}
	return nil
}

func (r *RedisRoomRepository) FindUserRoom(ctx context.Context, username string) (string, error) {
	key := r.userRoomKey(username)
	token, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis: failed to get user room pointer from %s: %w", key, err)
	}
	return token, nil
}

// --- LockRepository ---

func (r *RedisRoomRepository) AcquireUsernameLock(ctx context.Context, username string, ttl time.Duration) (bool, error) {
	key := r.usernameLockKey(username)
	granted, err := r.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to acquire username lock on %s: %w", key, err)
	}
	return granted, nil
}

func (r *RedisRoomRepository) ReleaseUsernameLock(ctx context.Context, username string) error {
	key := r.usernameLockKey(username)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to release username lock on %s: %w", key, err)
	}
	return nil
}

// --- QuotaRepository ---

// BumpCreateCount increments the per-address counter and applies the window
// TTL on every first-observed count of 1. INCR and EXPIRE are not atomic as a
// pair, so a crash between the two can leave the counter without an expiry;
// the reconciliation worker does not cover this key, it is a known limitation.
func (r *RedisRoomRepository) BumpCreateCount(ctx context.Context, address string, window time.Duration) (int64, error) {
	key := r.createCountKey(address)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: failed to increment create count on %s: %w", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("redis: failed to set window on %s: %w", key, err)
		}
	}
	return count, nil
}

// keyTTL maps Redis's TTL sentinels (-2 missing key, -1 no expiry) to
// ErrNotFound; every key this repository writes carries an expiry.
func (r *RedisRoomRepository) keyTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: failed to get TTL of %s: %w", key, err)
	}
	if ttl < 0 {
		return 0, repository.ErrNotFound
	}
	return ttl, nil
}
