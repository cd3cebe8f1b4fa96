package websocket

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-redis/redis/v8"
)

type RelayedMessage struct {
	Room string
	Data []byte
}

// Relay carries room broadcasts between server instances.
type Relay interface {
	Publish(ctx context.Context, room string, data []byte) error
	Subscribe(ctx context.Context) (<-chan RelayedMessage, error)
}

// RedisRelay publishes each room on its own channel, "<prefix><room>", and
// pattern-subscribes to "<prefix>*".
type RedisRelay struct {
	rdb    *redis.Client
	prefix string
	log    *slog.Logger
}

func NewRedisRelay(rdb *redis.Client, prefix string, log *slog.Logger) *RedisRelay {
	return &RedisRelay{rdb: rdb, prefix: prefix, log: log}
}

func (r *RedisRelay) Publish(ctx context.Context, room string, data []byte) error {
	return r.rdb.Publish(ctx, r.prefix+room, data).Err()
}

// Subscribe returns a channel that is closed once ctx is done or the
// subscription drops.
func (r *RedisRelay) Subscribe(ctx context.Context) (<-chan RelayedMessage, error) {
	ps := r.rdb.PSubscribe(ctx, r.prefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan RelayedMessage)
	go func() {
		defer close(out)
		defer ps.Close()

		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					r.log.Warn("Redis relay subscription closed")
					return
				}
				relayed := RelayedMessage{
					Room: strings.TrimPrefix(msg.Channel, r.prefix),
					Data: []byte(msg.Payload),
				}
				select {
				case out <- relayed:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	r.log.Info("Redis relay subscribed", "pattern", r.prefix+"*")
	return out, nil
}
