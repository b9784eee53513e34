package infra_redis_token

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"
	"golang.org/x/oauth2"
)

// Driver stores provider OAuth tokens per host session as JSON.
type Driver struct {
	client *redis.Client
	key    string
}

func New(
	client *redis.Client,
	key string,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
	}
}

func (d *Driver) Save(ctx context.Context, sessionID string, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return d.client.Set(d.getFullKey(sessionID), raw, 0).Err()
}

// Load returns nil, nil when the session never linked an account.
func (d *Driver) Load(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	raw, err := d.client.Get(d.getFullKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &token, nil
}

func (d *Driver) getFullKey(key string) string {
	if d.key != "" {
		return d.key + ":" + key
	}
	return key
}
