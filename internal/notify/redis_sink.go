package notify

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"dbd/internal/providers"
	"dbd/internal/structures"
)

const publishTimeout = 2 * time.Second

// RedisSink publishes ledger events to a per-tenant pub/sub channel so
// websocket front-ends on other processes can fan them out.
type RedisSink struct {
	client *redis.Client
	logger providers.Logger
}

func NewRedisSink(conf *structures.Config, logger providers.Logger) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Notify.RedisAddr,
		Password: conf.Notify.RedisPassword,
		DB:       conf.Notify.RedisDB,
	})
	return &RedisSink{client: client, logger: logger}
}

func (s *RedisSink) Broadcast(tenant string, event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "encode event for %s: %s", tenant, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.client.Publish(ctx, "board:"+tenant, payload).Err(); err != nil {
		s.logger.Warnf(providers.TypeApp, "publish event for %s: %s", tenant, err)
	}
}
