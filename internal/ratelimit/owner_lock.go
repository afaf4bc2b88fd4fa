package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// releaseOwnerLockScript deletes the lock only when the caller still holds
// it. A lock that expired and was re-acquired by another spend keeps its
// new token untouched.
const releaseOwnerLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// ownerLock serializes spends for a single owner. Each acquisition is
// fenced with a random token so only the holder can release it.
type ownerLock struct {
	client  *redis.Client
	release *redis.Script
	ttl     time.Duration
}

func newOwnerLock(client *redis.Client, ttl time.Duration) (*ownerLock, error) {
	if client == nil {
		return nil, errors.New("owner lock requires a redis client")
	}
	if ttl <= 0 {
		return nil, errors.New("owner lock ttl must be positive")
	}
	return &ownerLock{
		client:  client,
		release: redis.NewScript(releaseOwnerLockScript),
		ttl:     ttl,
	}, nil
}

func (l *ownerLock) key(ownerID string) string {
	return fmt.Sprintf(keySpendLock, strings.TrimSpace(ownerID))
}

// Acquire takes the owner's spend lock. ok reports whether the lock was
// won; the returned token must be passed back to Release.
func (l *ownerLock) Acquire(ctx context.Context, ownerID string) (token string, ok bool, err error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", false, errors.New("owner id is empty")
	}

	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.key(ownerID), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *ownerLock) Release(ctx context.Context, ownerID, token string) error {
	if token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{l.key(ownerID)}, token).Err()
}
