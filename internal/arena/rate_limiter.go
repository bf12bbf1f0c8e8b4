package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// VoteLimiter throttles crowd votes per spectator so a single viewer
// cannot steer momentum by mashing the vote button.
type VoteLimiter struct {
	rdb *redis.Client
	ctx context.Context
}

// NewVoteLimiter creates a limiter backed by the shared Redis client.
func NewVoteLimiter() *VoteLimiter {
	return &VoteLimiter{
		rdb: GetRedisClient(),
		ctx: GetContext(),
	}
}

// VoteLimitConfig defines the vote throttle window.
type VoteLimitConfig struct {
	MaxVotes int           // per window
	Window   time.Duration // sliding by key expiry
}

// DefaultVoteLimitConfig returns the default throttle: 5 votes per 10s.
func DefaultVoteLimitConfig() VoteLimitConfig {
	return VoteLimitConfig{
		MaxVotes: 5,
		Window:   10 * time.Second,
	}
}

// Allow checks whether the spectator may vote right now. Without Redis
// the limiter fails open: votes are cheap and capped at ±1 anyway.
func (vl *VoteLimiter) Allow(matchID, voterHash string, config VoteLimitConfig) bool {
	if vl == nil || vl.rdb == nil {
		return true
	}

	key := fmt.Sprintf("rate:vote:%s:%s", matchID, voterHash)

	count, err := vl.rdb.Incr(vl.ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		vl.rdb.Expire(vl.ctx, key, config.Window)
	}

	return count <= int64(config.MaxVotes)
}
