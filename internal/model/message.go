package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
	MessageTypeVoice MessageType = "voice"
	MessageTypeVideo MessageType = "video"
)

// MessageKind distinguishes how a message participates in the conversation,
// orthogonal to its content type.
type MessageKind string

const (
	MessageKindStandard     MessageKind = "standard"
	MessageKindSystem       MessageKind = "system"
	MessageKindAnnouncement MessageKind = "announcement"
	MessageKindReaction     MessageKind = "reaction"
	MessageKindReply        MessageKind = "reply"
)

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRead      DeliveryStatus = "read"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// Reaction aggregates all reactions with one emoji on a message.
// Count must always equal len(Users); there is at most one Reaction
// per distinct emoji on a message.
type Reaction struct {
	Emoji string   `bson:"emoji" json:"emoji"`
	Users []string `bson:"users" json:"users"`
	Count int      `bson:"count" json:"count"`
}

// EditRecord preserves the content that was current immediately before an
// edit. The edit history is append-only.
type EditRecord struct {
	Content   string    `bson:"content" json:"content"`
	EditedBy  string    `bson:"edited_by" json:"edited_by"`
	EditedAt  time.Time `bson:"edited_at" json:"edited_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID      string             `bson:"room_id" json:"room_id"`
	SenderID    string             `bson:"sender_id,omitempty" json:"sender_id,omitempty"` // empty for system messages
	Content     string             `bson:"content" json:"content"`
	Type        MessageType        `bson:"type" json:"type"`
	Kind        MessageKind        `bson:"kind" json:"kind"`
	ReplyToID   string             `bson:"reply_to_id,omitempty" json:"reply_to_id,omitempty"`
	ThreadID    string             `bson:"thread_id,omitempty" json:"thread_id,omitempty"`
	Reactions   []Reaction         `bson:"reactions" json:"reactions"`
	Mentions    []string           `bson:"mentions,omitempty" json:"mentions,omitempty"`
	EditHistory []EditRecord       `bson:"edit_history" json:"edit_history"`
	IsEdited    bool               `bson:"is_edited" json:"is_edited"`
	IsDeleted   bool               `bson:"is_deleted" json:"is_deleted"`
	DeletedAt   time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	IsPinned    bool               `bson:"is_pinned" json:"is_pinned"`
	Status      DeliveryStatus     `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsSystem checks if the message was produced by the system rather than a user
func (m *Message) IsSystem() bool {
	return m.Kind == MessageKindSystem || m.SenderID == ""
}

// GetReaction returns the reaction entry for an emoji, or nil
func (m *Message) GetReaction(emoji string) *Reaction {
	for i := range m.Reactions {
		if m.Reactions[i].Emoji == emoji {
			return &m.Reactions[i]
		}
	}
	return nil
}

// HasReacted checks whether a user already reacted with the given emoji
func (m *Message) HasReacted(emoji, userID string) bool {
	r := m.GetReaction(emoji)
	if r == nil {
		return false
	}
	for _, id := range r.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// MessageWithSender includes sender profile info for rendering
type MessageWithSender struct {
	Message
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
