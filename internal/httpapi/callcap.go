package httpapi

import (
	"context"
	"time"

	"callcenter-api/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// CallLimiter bounds how many open calls an attendant may hold at once.
// Handlers acquire a slot before opening and release it only when a close
// actually transitions the call out of the open state.
type CallLimiter interface {
	acquire(ctx context.Context, attendantID string) (bool, error)
	release(ctx context.Context, attendantID string) error
}

// CallCap is the Redis-backed CallLimiter. A nil cap (or a zero limit)
// disables the feature entirely.
type CallCap struct {
	RDB   *redis.Client
	Limit int
	// TTL expires leaked slots if a process dies between open and close.
	TTL time.Duration
}

func (cc *CallCap) enabled() bool {
	return cc != nil && cc.RDB != nil && cc.Limit > 0
}

func (cc *CallCap) key(attendantID string) string {
	return "callcap:attendant:" + attendantID
}

func (cc *CallCap) acquire(ctx context.Context, attendantID string) (bool, error) {
	if !cc.enabled() {
		return true, nil
	}
	ttl := cc.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return utils.AcquireCallCap(ctx, cc.RDB, cc.key(attendantID), cc.Limit, ttl)
}

func (cc *CallCap) release(ctx context.Context, attendantID string) error {
	if !cc.enabled() {
		return nil
	}
	return utils.ReleaseCallCap(ctx, cc.RDB, cc.key(attendantID))
}
