package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения
	maxMessageSize = 512 * 1024 // 512KB

	DefaultSendBuffer = 256
)

// Client - одно websocket-соединение и его очередь исходящих фреймов
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID

	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, userID uuid.UUID, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
}

// Enqueue кладёт фрейм в очередь без блокировки.
// Вызывать только пока клиент состоит в группе или из его собственной сессии.
func (c *Client) Enqueue(payload []byte) error {
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// Close закрывает очередь: WritePump отправит close-фрейм и закроет соединение
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

func (c *Client) closeConn() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// ReadPump читает фреймы по одному и передаёт их в frames в порядке прихода.
// frames закрывается, когда транспорт закрыт или ctx отменён.
func (c *Client) ReadPump(ctx context.Context, frames chan<- []byte) {
	defer close(frames)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("client_id", c.ID.String()).Msg("websocket read error")
			}
			return
		}

		select {
		case frames <- data:
		case <-ctx.Done():
			return
		}
	}
}

// WritePump отправляет фреймы клиенту, по одному websocket-сообщению на фрейм
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Сессия закрыла очередь
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
