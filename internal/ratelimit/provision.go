package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyProvisionIP   = "provision:ip:%s"
	keyProvisionLock = "provision:lock:%s"

	provisionRate  = 0.2 // sustained provisions per second per client
	provisionBurst = 3
	lockTTL        = 30 * time.Second
)

// ProvisionLimiter throttles tenant provisioning per client and serializes
// racing attempts on the same routing key. All methods degrade to permissive
// no-ops when redis is not configured.
type ProvisionLimiter struct {
	bucket *TokenBucket
	locker *Locker
}

func NewProvisionLimiter(client *redis.Client) *ProvisionLimiter {
	if client == nil {
		return &ProvisionLimiter{}
	}
	return &ProvisionLimiter{
		bucket: NewTokenBucket(client),
		locker: NewLocker(client),
	}
}

func (l *ProvisionLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowClient rate-limits provisioning attempts from one client IP.
func (l *ProvisionLimiter) AllowClient(ctx context.Context, clientIP string) bool {
	if !l.Enabled() {
		return true
	}
	allowed, err := l.bucket.Allow(ctx, fmt.Sprintf(keyProvisionIP, strings.TrimSpace(clientIP)), provisionRate, provisionBurst)
	if err != nil {
		// Redis being down must not take provisioning with it.
		zap.L().Warn("provision rate limit check failed", zap.Error(err))
		return true
	}
	return allowed
}

// TryLockKey takes the advisory lock for a routing key.
func (l *ProvisionLimiter) TryLockKey(ctx context.Context, routingKey string) (string, bool) {
	if l == nil || l.locker == nil {
		return "", true
	}
	token, ok, err := l.locker.TryLock(ctx, fmt.Sprintf(keyProvisionLock, routingKey), lockTTL)
	if err != nil {
		zap.L().Warn("provision lock failed", zap.String("routing_key", routingKey), zap.Error(err))
		return "", true
	}
	return token, ok
}

// ReleaseKey releases the advisory lock for a routing key.
func (l *ProvisionLimiter) ReleaseKey(ctx context.Context, routingKey, token string) {
	if l == nil || l.locker == nil || token == "" {
		return
	}
	if err := l.locker.Release(ctx, fmt.Sprintf(keyProvisionLock, routingKey), token); err != nil {
		zap.L().Warn("provision lock release failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
