package ws

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/codehive/chat/internal/model"
)

// EventType identifies a socket event
type EventType string

const (
	// Client -> Server events
	EventJoinRoom      EventType = "join-room"
	EventLeaveRoom     EventType = "leave-room"
	EventSendMessage   EventType = "send-message"
	EventTyping        EventType = "typing"
	EventAddReaction   EventType = "add-reaction"
	EventEditMessage   EventType = "edit-message"
	EventDeleteMessage EventType = "delete-message"
	EventPinMessage    EventType = "pin-message"
	EventPing          EventType = "ping"

	// Server -> Client events
	EventRoomsList      EventType = "rooms-list"
	EventRoomJoined     EventType = "room-joined"
	EventUserJoined     EventType = "user-joined"
	EventUserLeft       EventType = "user-left"
	EventUserOffline    EventType = "user-offline"
	EventNewMessage     EventType = "new-message"
	EventMessageEdited  EventType = "message-edited"
	EventMessageDeleted EventType = "message-deleted"
	EventMessagePinned  EventType = "message-pinned"
	EventReactionAdded  EventType = "reaction-added"
	EventUserTyping     EventType = "user-typing"
	EventMentioned      EventType = "mentioned"
	EventError          EventType = "error"
	EventAck            EventType = "ack"
	EventPong           EventType = "pong"
)

// Event is the wire envelope for every socket message
type Event struct {
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// Payload validation errors
var (
	errMissingRoomID    = errors.New("room_id is required")
	errMissingMessageID = errors.New("message_id is required")
	errMissingContent   = errors.New("content is required")
	errMissingEmoji     = errors.New("emoji is required")
)

// JoinRoomPayload represents join room payload
type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

func (p *JoinRoomPayload) Validate() error {
	if p.RoomID == "" {
		return errMissingRoomID
	}
	return nil
}

// LeaveRoomPayload represents leave room payload
type LeaveRoomPayload struct {
	RoomID string `json:"room_id"`
}

func (p *LeaveRoomPayload) Validate() error {
	if p.RoomID == "" {
		return errMissingRoomID
	}
	return nil
}

// SendMessagePayload represents send message payload
type SendMessagePayload struct {
	RoomID    string   `json:"room_id"`
	Content   string   `json:"content"`
	Type      string   `json:"type,omitempty"` // text, image, file, voice, video
	ReplyToID string   `json:"reply_to_id,omitempty"`
	Mentions  []string `json:"mentions,omitempty"`
}

func (p *SendMessagePayload) Validate() error {
	if p.RoomID == "" {
		return errMissingRoomID
	}
	if strings.TrimSpace(p.Content) == "" {
		return errMissingContent
	}
	return nil
}

// TypingPayload represents typing indicator payload
type TypingPayload struct {
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

func (p *TypingPayload) Validate() error {
	if p.RoomID == "" {
		return errMissingRoomID
	}
	return nil
}

// ReactionPayload represents add reaction payload
type ReactionPayload struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

func (p *ReactionPayload) Validate() error {
	if p.RoomID == "" {
		return errMissingRoomID
	}
	if p.MessageID == "" {
		return errMissingMessageID
	}
	if p.Emoji == "" {
		return errMissingEmoji
	}
	return nil
}

// EditMessagePayload represents edit message payload
type EditMessagePayload struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

func (p *EditMessagePayload) Validate() error {
	if p.RoomID == "" {
		return errMissingRoomID
	}
	if p.MessageID == "" {
		return errMissingMessageID
	}
	if strings.TrimSpace(p.Content) == "" {
		return errMissingContent
	}
	return nil
}

// MessageRefPayload identifies one message in one room (delete, pin)
type MessageRefPayload struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

func (p *MessageRefPayload) Validate() error {
	if p.RoomID == "" {
		return errMissingRoomID
	}
	if p.MessageID == "" {
		return errMissingMessageID
	}
	return nil
}

// RoomsListPayload carries the connecting user's rooms
type RoomsListPayload struct {
	Rooms []*model.Room `json:"rooms"`
}

// RoomJoinedPayload carries full room state to the joining user
type RoomJoinedPayload struct {
	Room *model.Room `json:"room"`
}

// RosterDeltaPayload represents a membership change broadcast
type RosterDeltaPayload struct {
	RoomID      string             `json:"room_id"`
	UserID      string             `json:"user_id"`
	Username    string             `json:"username"`
	DisplayName string             `json:"display_name"`
	MemberCount int                `json:"member_count"`
	Members     []model.RoomMember `json:"members,omitempty"`
}

// UserOfflinePayload represents a member going offline without leaving
type UserOfflinePayload struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// UserTypingPayload represents user typing broadcast
type UserTypingPayload struct {
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	IsTyping    bool   `json:"is_typing"`
}

// ReactionAddedPayload represents updated reaction state
type ReactionAddedPayload struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	Count     int    `json:"count"`
	UserID    string `json:"user_id"`
	Removed   bool   `json:"removed"`
}

// MessageDeletedPayload carries only the id of the deleted message
type MessageDeletedPayload struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

// MessagePinnedPayload represents a newly pinned message
type MessagePinnedPayload struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	PinnedBy  string `json:"pinned_by"`
}

// MentionedPayload is delivered to a mentioned user directly
type MentionedPayload struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
	Username  string `json:"username"`
	Preview   string `json:"preview"`
}

// ErrorPayload represents error event
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AckPayload represents acknowledgement
type AckPayload struct {
	RequestID string `json:"request_id"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
}

// NewEvent creates an event with the payload marshalled in place
func NewEvent(eventType EventType, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		Type:      eventType,
		Payload:   payloadBytes,
		Timestamp: time.Now(),
	}, nil
}

// NewErrorEvent creates an error event
func NewErrorEvent(code int, message string) (*Event, error) {
	return NewEvent(EventError, &ErrorPayload{
		Code:    code,
		Message: message,
	})
}

// ParsePayload parses event payload into the given type
func (e *Event) ParsePayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}
