package hosting

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const claimKeyPrefix = "hosting:claim:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisClaimer keeps claims as expiring keys so several processes sharing a hosting root agree on
// who holds a subdomain.
type RedisClaimer struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ Claimer = (*RedisClaimer)(nil)

func NewRedisClaimer(client redis.Cmdable, ttl time.Duration) *RedisClaimer {
	return &RedisClaimer{client: client, ttl: ttl}
}

func (r *RedisClaimer) TryClaim(ctx context.Context, name string) (*Claim, error) {
	claim := &Claim{Name: name, Token: uuid.NewString(), AcquiredAt: time.Now()}
	ok, err := r.client.SetNX(ctx, claimKeyPrefix+name, claim.Token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("err claiming subdomain in redis, %v", err)
	}
	if !ok {
		return nil, ErrClaimed
	}
	return claim, nil
}

func (r *RedisClaimer) Release(ctx context.Context, claim *Claim) error {
	if err := releaseScript.Run(ctx, r.client, []string{claimKeyPrefix + claim.Name}, claim.Token).Err(); err != nil {
		return fmt.Errorf("err releasing subdomain claim in redis, %v", err)
	}
	return nil
}

func (r *RedisClaimer) Held(ctx context.Context, name string) (bool, error) {
	n, err := r.client.Exists(ctx, claimKeyPrefix+name).Result()
	if err != nil {
		return false, fmt.Errorf("err checking subdomain claim in redis, %v", err)
	}
	return n > 0, nil
}
