package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionClosed   = errors.New("session is not connecting")
	ErrHubClosed       = errors.New("hub is closed")
)

// FrameError - ошибка одного входящего фрейма. Reason уходит клиенту как
// {"error": Reason}, сессия при этом остаётся открытой.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string { return e.Reason }

var (
	ErrEmptyFrame       = &FrameError{Reason: "Empty message received"}
	ErrInvalidJSON      = &FrameError{Reason: "Invalid JSON format"}
	ErrRoomNotFound     = &FrameError{Reason: "Chat room not found"}
	ErrNotParticipant   = &FrameError{Reason: "You are not a participant of this chat room"}
	ErrRoomLookupFailed = &FrameError{Reason: "Failed to load chat room"}
	ErrSaveFailed       = &FrameError{Reason: "Failed to save message"}
	ErrDeliveryFailed   = &FrameError{Reason: "Failed to deliver message"}
)
