package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/metrics"
	"github.com/thereayou/dma-chat/internal/models"
	"github.com/thereayou/dma-chat/internal/services"
)

// Сколько прочитанных, но ещё не обработанных фреймов держит сессия
const inboundQueue = 32

// State - состояние сессии: Connecting -> Joined -> Closed
type State int32

const (
	StateConnecting State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session - одно соединение, привязанное к одной комнате
type Session struct {
	roomID     string
	group      string
	hub        *Hub
	store      services.ChatStore
	dispatcher *Dispatcher

	user   *models.User
	client *Client

	state     atomic.Int32
	closeOnce sync.Once
	logger    zerolog.Logger
}

func NewSession(hub *Hub, store services.ChatStore, dispatcher *Dispatcher, roomID string) *Session {
	return &Session{
		roomID:     roomID,
		group:      GroupKey(roomID),
		hub:        hub,
		store:      store,
		dispatcher: dispatcher,
		logger:     log.With().Str("room_id", roomID).Logger(),
	}
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) Group() string {
	return s.group
}

// Open переводит сессию в Joined, если личность известна, иначе сразу в Closed
func (s *Session) Open(user *models.User, client *Client) error {
	if user == nil || client == nil {
		s.state.Store(int32(StateClosed))
		return ErrUnauthorized
	}
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateJoined)) {
		return ErrSessionClosed
	}

	s.user = user
	s.client = client
	if err := s.hub.Join(s.group, client); err != nil {
		s.state.Store(int32(StateClosed))
		return err
	}

	s.logger = s.logger.With().Str("user_id", user.ID.String()).Str("client_id", client.ID.String()).Logger()
	metrics.WsConnections.Inc()
	s.logger.Info().Msg("session joined")
	return nil
}

// Serve обрабатывает фреймы строго по очереди до закрытия транспорта.
// Закрытие соединения отменяет ctx текущей обработки.
func (s *Session) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.Close()

	if s.State() != StateJoined {
		return
	}

	// Буфер позволяет ReadPump заметить закрытие транспорта, пока
	// обрабатывается предыдущий фрейм
	frames := make(chan []byte, inboundQueue)
	go func() {
		s.client.ReadPump(ctx, frames)
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-frames:
			if !ok {
				return
			}
			// Транспорт уже закрыт: прочитанные ранее фреймы не обрабатываем
			if ctx.Err() != nil {
				return
			}
			s.HandleFrame(ctx, raw)
		}
	}
}

// HandleFrame обрабатывает один входящий фрейм. Ошибки клиента отправляются
// только отправителю и не закрывают сессию.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) {
	if s.State() != StateJoined || ctx.Err() != nil {
		return
	}

	frame, err := DecodeFrame(raw)
	if err != nil {
		s.reject(err)
		return
	}

	room, err := s.store.GetChatRoom(ctx, s.roomID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.reject(ErrRoomNotFound)
			return
		}
		s.logger.Error().Err(err).Msg("load chat room")
		s.reject(ErrRoomLookupFailed)
		return
	}

	if !room.HasParticipant(s.user.ID) {
		s.reject(ErrNotParticipant)
		return
	}

	if ctx.Err() != nil {
		return
	}
	if _, err := s.dispatcher.Deliver(ctx, room, s.user, frame.Message.String()); err != nil {
		s.logger.Error().Err(err).Msg("deliver message")
		s.reject(err)
	}
}

// reject отправляет {"error": reason} только этому клиенту
func (s *Session) reject(err error) {
	reason := ErrSaveFailed.Reason
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		reason = frameErr.Reason
	}

	metrics.WsFrameErrors.WithLabelValues(reason).Inc()
	if err := s.client.Enqueue(encodeError(reason)); err != nil {
		s.logger.Warn().Err(err).Str("reason", reason).Msg("error frame dropped")
	}
}

// Close выводит клиента из группы. Повторный вызов ничего не делает.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		prev := State(s.state.Swap(int32(StateClosed)))
		if prev != StateJoined {
			return
		}

		s.hub.Leave(s.group, s.client)
		s.client.Close()
		metrics.WsConnections.Dec()
		s.logger.Info().Msg("session closed")
	})
}
