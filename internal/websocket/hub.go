package websocket

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/metrics"
)

const groupPrefix = "chat_"

// GroupKey - ключ группы рассылки для комнаты
func GroupKey(roomID string) string {
	return groupPrefix + roomID
}

// Hub - реестр групп: комната -> подключённые клиенты.
// Publish держит RLock на всё время рассылки, поэтому Join/Leave
// не могут изменить группу посреди рассылки.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	closed bool
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[*Client]struct{})}
}

// Join добавляет клиента в группу
func (h *Hub) Join(group string, client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[group] = members
	}
	members[client] = struct{}{}
	return nil
}

// Leave удаляет клиента из группы. Возвращает false, если его там не было.
func (h *Hub) Leave(group string, client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		return false
	}
	if _, ok := members[client]; !ok {
		return false
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.groups, group)
	}
	return true
}

// Publish отправляет payload всем участникам группы без блокировки.
// Переполненная очередь клиента теряет этот фрейм. Возвращает число доставленных.
func (h *Hub) Publish(group string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.groups[group] {
		if err := client.Enqueue(payload); err != nil {
			metrics.WsDropped.Inc()
			log.Warn().Str("group", group).Str("client_id", client.ID.String()).Msg("client send queue full, frame dropped")
			continue
		}
		delivered++
	}
	return delivered
}

// Members возвращает число клиентов в группе
func (h *Hub) Members(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Groups возвращает число непустых групп
func (h *Hub) Groups() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

// Close останавливает hub: новые Join отклоняются, соединения закрываются,
// сессии сами выходят из групп.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, members := range h.groups {
		for client := range members {
			client.closeConn()
		}
	}
}

// Publisher доставляет payload всем участникам группы, возможно через другие узлы
type Publisher interface {
	Publish(ctx context.Context, group string, payload []byte) error
}

// LocalPublisher рассылает только в пределах этого процесса
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(_ context.Context, group string, payload []byte) error {
	p.hub.Publish(group, payload)
	return nil
}
