package redisstore

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/websocket"
)

const (
	channelPrefix  = "chat:"
	channelPattern = channelPrefix + "*"
)

// LocalFanout - локальная рассылка по группе, её реализует websocket.Hub
type LocalFanout interface {
	Publish(group string, payload []byte) int
}

// Relay рассылает сообщения комнат через Redis pub/sub, чтобы их получили
// участники, подключённые к другим узлам
type Relay struct {
	rdb *redis.Client
	hub LocalFanout
}

var (
	_ websocket.Publisher = (*Relay)(nil)
	_ LocalFanout         = (*websocket.Hub)(nil)
)

func NewRelay(rdb *redis.Client, hub LocalFanout) *Relay {
	return &Relay{rdb: rdb, hub: hub}
}

// Publish отправляет payload в канал chat:<group>. Локальные участники
// получают его через Run, как и все остальные узлы.
func (r *Relay) Publish(ctx context.Context, group string, payload []byte) error {
	return r.rdb.Publish(ctx, channelPrefix+group, payload).Err()
}

// Subscribe подписывается на chat:* и ждёт подтверждения от Redis,
// чтобы публикации после возврата уже не терялись
func (r *Relay) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := r.rdb.PSubscribe(ctx, channelPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	log.Info().Str("pattern", channelPattern).Msg("relay subscribed")
	return &Subscription{pubsub: pubsub, hub: r.hub}, nil
}

// Run = Subscribe + Subscription.Run
func (r *Relay) Run(ctx context.Context) error {
	sub, err := r.Subscribe(ctx)
	if err != nil {
		return err
	}
	return sub.Run(ctx)
}

// Subscription - активная подписка узла на сообщения всех комнат
type Subscription struct {
	pubsub *redis.PubSub
	hub    LocalFanout
}

// Run передаёт каждое сообщение локальному hub до отмены ctx
func (s *Subscription) Run(ctx context.Context) error {
	defer s.pubsub.Close()

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			group := strings.TrimPrefix(msg.Channel, channelPrefix)
			s.hub.Publish(group, []byte(msg.Payload))
		}
	}
}
