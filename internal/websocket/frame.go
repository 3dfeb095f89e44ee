package websocket

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/thereayou/dma-chat/internal/models"
)

// BodyKind различает строковое и любое другое значение поля "message"
type BodyKind int

const (
	BodyText BodyKind = iota
	BodyOther
)

// MessageBody - значение поля "message" входящего фрейма.
// Строка хранится в Text, всё остальное - исходным JSON в Raw.
type MessageBody struct {
	Kind BodyKind
	Text string
	Raw  json.RawMessage
}

var jsonNull = []byte("null")

func (b *MessageBody) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if !bytes.Equal(trimmed, jsonNull) {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*b = MessageBody{Kind: BodyText, Text: s}
			return nil
		}
	}
	*b = MessageBody{Kind: BodyOther, Raw: append(json.RawMessage(nil), trimmed...)}
	return nil
}

// String приводит тело к тексту для сохранения. Любое значение принимается:
// строка как есть, null - пустая строка, остальное - компактный JSON.
func (b MessageBody) String() string {
	if b.Kind == BodyText {
		return b.Text
	}
	if len(b.Raw) == 0 || bytes.Equal(b.Raw, jsonNull) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b.Raw); err != nil {
		return string(b.Raw)
	}
	return buf.String()
}

// InboundFrame - входящий фрейм {"message": <any>}. Прочие ключи игнорируются,
// отсутствие "message" даёт пустой текст.
type InboundFrame struct {
	Message    MessageBody
	HasMessage bool
}

// DecodeFrame разбирает текст фрейма. Возвращает ErrEmptyFrame для пустого
// текста и ErrInvalidJSON, если это не JSON-объект.
func DecodeFrame(raw []byte) (InboundFrame, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return InboundFrame{}, ErrEmptyFrame
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return InboundFrame{}, ErrInvalidJSON
	}

	var frame InboundFrame
	if body, ok := fields["message"]; ok {
		frame.HasMessage = true
		if err := json.Unmarshal(body, &frame.Message); err != nil {
			return InboundFrame{}, ErrInvalidJSON
		}
	}
	return frame, nil
}

// OutboundMessage рассылается всем сессиям комнаты, включая отправителя
type OutboundMessage struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func NewOutboundMessage(msg *models.Message, sender *models.User) OutboundMessage {
	return OutboundMessage{
		MessageID: msg.ID.String(),
		Sender:    sender.Username,
		Content:   msg.Content,
		CreatedAt: FormatTimestamp(msg.CreatedAt),
	}
}

// FormatTimestamp - формат created_at во всех ответах
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type ErrorFrame struct {
	Error string `json:"error"`
}

func encodeError(reason string) []byte {
	data, err := json.Marshal(ErrorFrame{Error: reason})
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return data
}
