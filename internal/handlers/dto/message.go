package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/dma-chat/internal/models"
)

// MessageResponse - сообщение в истории чата
type MessageResponse struct {
	MessageID string    `json:"message_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt string    `json:"created_at"`
}

type HistoryResponse struct {
	Messages []MessageResponse `json:"messages"`
	HasMore  bool              `json:"has_more"`
}

type ReadResponse struct {
	Updated int64 `json:"updated"`
}

// ChatRoomResponse - комната с точки зрения одного из участников
type ChatRoomResponse struct {
	ID        uuid.UUID `json:"id"`
	Peer      UserInfo  `json:"peer"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessageResponse(m *models.Message, createdAt string) MessageResponse {
	return MessageResponse{
		MessageID: m.ID.String(),
		SenderID:  m.SenderID,
		Sender:    m.Sender.Username,
		Content:   m.Content,
		IsRead:    m.IsRead,
		CreatedAt: createdAt,
	}
}

// NewChatRoomResponse ожидает, что User1 и User2 загружены
func NewChatRoomResponse(room *models.ChatRoom, viewer uuid.UUID) ChatRoomResponse {
	peer := room.User1
	if room.User1ID == viewer {
		peer = room.User2
	}
	return ChatRoomResponse{
		ID:        room.ID,
		Peer:      NewUserInfo(&peer),
		CreatedAt: room.CreatedAt,
	}
}
