package response

import (
	"time"

	"github.com/codehive/chat/internal/model"
)

// MessageResponse represents a message response
type MessageResponse struct {
	ID          string           `json:"id"`
	RoomID      string           `json:"room_id"`
	SenderID    string           `json:"sender_id,omitempty"`
	Content     string           `json:"content"`
	Type        string           `json:"type"`
	Kind        string           `json:"kind"`
	ReplyToID   string           `json:"reply_to_id,omitempty"`
	Reactions   []model.Reaction `json:"reactions"`
	Mentions    []string         `json:"mentions,omitempty"`
	IsEdited    bool             `json:"is_edited"`
	IsDeleted   bool             `json:"is_deleted"`
	IsPinned    bool             `json:"is_pinned"`
	CreatedAt   string           `json:"created_at"`
	Username    string           `json:"username,omitempty"`
	DisplayName string           `json:"display_name,omitempty"`
	AvatarURL   string           `json:"avatar_url,omitempty"`
}

// NewMessageResponse creates a message response from model.
// Deleted messages keep their flags but expose no content.
func NewMessageResponse(msg *model.Message) *MessageResponse {
	content := msg.Content
	if msg.IsDeleted {
		content = ""
	}

	return &MessageResponse{
		ID:        msg.ID.Hex(),
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Content:   content,
		Type:      string(msg.Type),
		Kind:      string(msg.Kind),
		ReplyToID: msg.ReplyToID,
		Reactions: msg.Reactions,
		Mentions:  msg.Mentions,
		IsEdited:  msg.IsEdited,
		IsDeleted: msg.IsDeleted,
		IsPinned:  msg.IsPinned,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	}
}

// NewMessageResponseWithSender attaches sender profile fields
func NewMessageResponseWithSender(msg *model.Message, sender *model.UserProfile) *MessageResponse {
	resp := NewMessageResponse(msg)
	if sender != nil {
		resp.Username = sender.Username
		resp.DisplayName = sender.DisplayName
		resp.AvatarURL = sender.AvatarURL
	}
	return resp
}

// MessageListResponse represents a chronological page of messages
type MessageListResponse struct {
	Messages []*MessageResponse `json:"messages"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// NewMessageListResponse creates a message list response
func NewMessageListResponse(messages []*model.Message, total, limit, offset int) *MessageListResponse {
	responses := make([]*MessageResponse, len(messages))
	for i, msg := range messages {
		responses[i] = NewMessageResponse(msg)
	}

	return &MessageListResponse{
		Messages: responses,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
}
