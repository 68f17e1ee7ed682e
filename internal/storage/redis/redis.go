package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BorodachevAV/shortlinkbot/internal/storage"
)

const credentialsKey = "shortlinkbot:credentials"

// RedisStorage keeps all credentials in one hash keyed by user id.
type RedisStorage struct {
	client *goredis.Client
}

func NewRedisStorage(ctx context.Context, client *goredis.Client) (*RedisStorage, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStorage{client: client}, nil
}

func field(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (r *RedisStorage) WriteCredential(ctx context.Context, cd *storage.CredentialData) error {
	return r.client.HSet(ctx, credentialsKey, field(cd.UserID), cd.APIKey).Err()
}

func (r *RedisStorage) ReadCredential(ctx context.Context, userID int64) (*storage.CredentialData, error) {
	key, err := r.client.HGet(ctx, credentialsKey, field(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &storage.CredentialData{UserID: userID, APIKey: key}, nil
}

func (r *RedisStorage) DeleteCredential(ctx context.Context, userID int64) error {
	return r.client.HDel(ctx, credentialsKey, field(userID)).Err()
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
