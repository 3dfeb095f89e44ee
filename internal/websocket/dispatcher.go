package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thereayou/dma-chat/internal/metrics"
	"github.com/thereayou/dma-chat/internal/models"
	"github.com/thereayou/dma-chat/internal/services"
)

// Dispatcher сохраняет сообщение и рассылает сохранённый результат группе комнаты.
// Общий путь для websocket-сессий и HTTP-отправки.
type Dispatcher struct {
	store     services.ChatStore
	publisher Publisher
}

func NewDispatcher(store services.ChatStore, publisher Publisher) *Dispatcher {
	return &Dispatcher{store: store, publisher: publisher}
}

// Deliver: сначала запись в БД, потом рассылка. Если рассылка не удалась,
// сообщение уже сохранено и возвращается вместе с ErrDeliveryFailed.
func (d *Dispatcher) Deliver(ctx context.Context, room *models.ChatRoom, sender *models.User, content string) (*OutboundMessage, error) {
	message := &models.Message{
		ChatRoomID: room.ID,
		SenderID:   sender.ID,
		Content:    content,
	}
	if err := d.store.SaveMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	out := NewOutboundMessage(message, sender)
	payload, err := json.Marshal(out)
	if err != nil {
		return &out, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if err := d.publisher.Publish(ctx, GroupKey(room.ID.String()), payload); err != nil {
		return &out, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	metrics.WsMessagesTotal.Inc()
	return &out, nil
}
