package infra_redis_membership

import (
	"context"
	"time"

	"github.com/go-redis/redis"
)

// Driver keeps session -> room code pairs. A zero ttl keeps them until Delete.
type Driver struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func New(
	client *redis.Client,
	key string,
	ttl time.Duration,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (d *Driver) Set(ctx context.Context, sessionID string, roomCode string) error {
	return d.client.Set(d.getFullKey(sessionID), roomCode, d.ttl).Err()
}

func (d *Driver) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := d.client.Get(d.getFullKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}

	return val, nil
}

func (d *Driver) Delete(ctx context.Context, sessionID string) error {
	return d.client.Del(d.getFullKey(sessionID)).Err()
}

func (d *Driver) getFullKey(key string) string {
	if d.key != "" {
		return d.key + ":" + key
	}
	return key
}
