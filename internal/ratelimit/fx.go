package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/storelane/storelane/internal/config"
	"go.uber.org/fx"
)

func newRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

var Module = fx.Module("rate.limit",
	fx.Provide(newRedisClient),
	fx.Provide(NewProvisionLimiter),
)
