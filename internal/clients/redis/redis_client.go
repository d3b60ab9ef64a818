package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 3 * time.Second

// Client wraps the Redis connection used for review streams
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewClient connects and pings once so a bad address fails at startup.
func NewClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	logger.Info("redis connected", zap.String("addr", addr), zap.Int("db", db))

	return &Client{
		rdb:    rdb,
		logger: logger,
	}, nil
}

// Ping reports whether Redis is reachable, for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	return c.rdb.XAdd(ctx, args)
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
