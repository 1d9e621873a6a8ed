package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is the transcript entry union: either a TextMessage or an
// ImageGridMessage. Handlers and renderers switch exhaustively on the
// concrete type; the JSON form carries a "type" discriminator.
type Message interface {
	isMessage()
}

type TextMessage struct {
	ID        string
	Content   string
	Sender    Sender
	Timestamp time.Time
}

func (*TextMessage) isMessage() {}

func (m *TextMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"id"`
		Type      string    `json:"type"`
		Content   string    `json:"content"`
		Sender    Sender    `json:"sender"`
		Timestamp time.Time `json:"timestamp"`
	}{m.ID, "text", m.Content, m.Sender, m.Timestamp})
}

// ImageGridMessage presents a set of generated images. SelectedImageIndex,
// when non-nil, is a valid index into Images; setting it is the only
// mutation allowed on an appended message.
type ImageGridMessage struct {
	ID                 string
	Images             []string
	Sender             Sender
	Timestamp          time.Time
	SelectedImageIndex *int
}

func (*ImageGridMessage) isMessage() {}

func (m *ImageGridMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID                 string    `json:"id"`
		Type               string    `json:"type"`
		Images             []string  `json:"images"`
		Sender             Sender    `json:"sender"`
		Timestamp          time.Time `json:"timestamp"`
		SelectedImageIndex *int      `json:"selected_image_index,omitempty"`
	}{m.ID, "image-grid", m.Images, m.Sender, m.Timestamp, m.SelectedImageIndex})
}

func newTextMessage(content string, sender Sender) *TextMessage {
	return &TextMessage{
		ID:        "msg-" + uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now(),
	}
}

func newImageGridMessage(images []string) *ImageGridMessage {
	return &ImageGridMessage{
		ID:        "msg-" + uuid.NewString(),
		Images:    images,
		Sender:    SenderAI,
		Timestamp: time.Now(),
	}
}
