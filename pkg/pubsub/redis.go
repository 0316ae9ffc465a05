package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type redisPubSub struct {
	client *redis.Client
	logger *logger.CanonicalLogger

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// NewRedisPubSub connects and pings once. A failed ping is returned so the
// caller can decide whether to run without events.
func NewRedisPubSub(ctx context.Context, cfg RedisConfig, log *logger.CanonicalLogger) (PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	if log == nil {
		log = logger.NewNop()
	}
	log = log.Component("pubsub")
	log.Info("redis client initialized", zap.String("addr", cfg.Addr))

	return newRedisPubSub(client, log), nil
}

func newRedisPubSub(client *redis.Client, log *logger.CanonicalLogger) *redisPubSub {
	return &redisPubSub{client: client, logger: log}
}

func (r *redisPubSub) Publish(ctx context.Context, channel string, message string) error {
	if err := r.client.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

func (r *redisPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels given")
	}

	ps := r.client.Subscribe(ctx, channels...)
	// Wait for the confirmation so a bad connection fails here, not later.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.pubsub = ps
	r.cancel = cancel
	r.mu.Unlock()

	out := make(chan Message, 16)
	go r.listen(listenCtx, ps, out)

	r.logger.Info("subscribed to redis channels", zap.Strings("channels", channels))
	return out, nil
}

func (r *redisPubSub) Unsubscribe(ctx context.Context, channels ...string) error {
	r.mu.Lock()
	ps := r.pubsub
	r.mu.Unlock()
	if ps == nil {
		return nil
	}
	return ps.Unsubscribe(ctx, channels...)
}

func (r *redisPubSub) Close() error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	if r.pubsub != nil {
		_ = r.pubsub.Close()
	}
	r.mu.Unlock()
	return r.client.Close()
}

// listen forwards messages until ctx is done or the subscription closes,
// then closes out.
func (r *redisPubSub) listen(ctx context.Context, ps *redis.PubSub, out chan<- Message) {
	defer close(out)
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				r.logger.Debug("redis pubsub channel closed")
				return
			}
			select {
			case out <- Message{Channel: m.Channel, Payload: m.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}
}
