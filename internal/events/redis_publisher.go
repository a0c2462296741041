package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/wordmemo/internal/logger"
)

const publishTimeout = 5 * time.Second

// RedisPublisher forwards vocabulary updates to a Redis Pub/Sub channel so
// other front-ends can refresh.
type RedisPublisher struct {
	rdb     *goredis.Client
	channel string
	log     *logger.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection
func NewRedisPublisher(ctx context.Context, addr, channel string, log *logger.Logger) (*RedisPublisher, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "wordmemo:vocabulary"
	}
	if log == nil {
		log = logger.NewNop()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		log:     log.With("component", "redis_publisher"),
	}, nil
}

// HandleVocabularyUpdated implements Listener
func (p *RedisPublisher) HandleVocabularyUpdated(ctx context.Context, evt *VocabularyUpdated) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	p.log.Debug("vocabulary update published", "channel", p.channel, "event_id", evt.ID.String())
	return nil
}

// Close releases the Redis connection
func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
