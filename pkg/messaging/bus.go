package messaging

import (
	"context"
	"crypto/tls"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/corner4world/gstd-1.x/pkg/config"
	"github.com/corner4world/gstd-1.x/pkg/logger"
)

type MessageBus interface {
	Publish(ctx context.Context, channel string, msg []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

type Subscription interface {
	Channel() <-chan []byte
	Close() error
}

func NewMessageBus(conf *config.Config) (MessageBus, error) {
	logger.Infow("connecting to redis", "addr", conf.Redis.Address)
	rcOptions := &redis.Options{
		Addr:     conf.Redis.Address,
		Username: conf.Redis.Username,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	}
	if conf.Redis.UseTLS {
		rcOptions.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	rc := redis.NewClient(rcOptions)
	if err := rc.Ping(context.Background()).Err(); err != nil {
		_ = rc.Close()
		return nil, errors.Wrap(err, "unable to connect to redis")
	}
	return NewRedisMessageBus(rc), nil
}

type redisMessageBus struct {
	rc *redis.Client
}

func NewRedisMessageBus(rc *redis.Client) MessageBus {
	return &redisMessageBus{rc: rc}
}

func (r *redisMessageBus) Publish(ctx context.Context, channel string, msg []byte) error {
	return r.rc.Publish(ctx, channel, msg).Err()
}

func (r *redisMessageBus) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := r.rc.Subscribe(ctx, channel)
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrapf(err, "unable to subscribe to %s", channel)
	}

	sub := &redisSubscription{
		ps:   ps,
		msgs: make(chan []byte, 100),
	}
	go sub.forward()
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	msgs chan []byte
}

func (s *redisSubscription) forward() {
	defer close(s.msgs)
	for msg := range s.ps.Channel() {
		s.msgs <- []byte(msg.Payload)
	}
}

func (s *redisSubscription) Channel() <-chan []byte {
	return s.msgs
}

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}
