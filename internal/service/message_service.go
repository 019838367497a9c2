package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/codehive/chat/internal/model"
	apperrors "github.com/codehive/chat/internal/pkg/errors"
	"github.com/codehive/chat/internal/pkg/metrics"
	"github.com/codehive/chat/internal/pkg/utils"
	"github.com/codehive/chat/internal/repository"
	"go.uber.org/zap"
)

type MessageService struct {
	messageStore MessageStore
	roomStore    RoomStore
	logger       *zap.Logger
}

func NewMessageService(messageStore MessageStore, roomStore RoomStore, logger *zap.Logger) *MessageService {
	return &MessageService{
		messageStore: messageStore,
		roomStore:    roomStore,
		logger:       logger,
	}
}

// SendMessageInput represents message sending input
type SendMessageInput struct {
	RoomID    string
	SenderID  string
	Content   string
	Type      model.MessageType
	Kind      model.MessageKind
	ReplyToID string
	ThreadID  string
	Mentions  []string
}

// Send validates membership and content, then persists a new message and
// bumps the room's message counter (two separate document updates; drift
// between them is accepted).
func (s *MessageService) Send(ctx context.Context, input *SendMessageInput) (*model.Message, error) {
	member, room, err := s.requireMember(ctx, input.RoomID, input.SenderID)
	if err != nil {
		return nil, err
	}
	if member.IsMuted || !member.HasPermission(model.PermissionWrite) {
		return nil, apperrors.ErrAccessDenied
	}

	content := strings.TrimSpace(input.Content)
	if content == "" || utf8.RuneCountInString(content) > utils.MaxMessageLength {
		return nil, apperrors.ErrInvalidContent
	}

	if input.Type == "" {
		input.Type = model.MessageTypeText
	}
	if input.Kind == "" {
		input.Kind = model.MessageKindStandard
		if input.ReplyToID != "" {
			input.Kind = model.MessageKindReply
		}
	}

	msg := &model.Message{
		RoomID:    input.RoomID,
		SenderID:  input.SenderID,
		Content:   content,
		Type:      input.Type,
		Kind:      input.Kind,
		ReplyToID: input.ReplyToID,
		ThreadID:  input.ThreadID,
		Mentions:  input.Mentions,
		Status:    model.DeliveryStatusDelivered,
	}

	if err := s.messageStore.Create(ctx, msg); err != nil {
		s.logger.Error("Failed to create message", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	// Counter update is best-effort; the message is already durable
	if err := s.roomStore.IncrementMessageCount(ctx, input.RoomID); err != nil {
		s.logger.Warn("Failed to increment message count",
			zap.String("room_id", input.RoomID),
			zap.Error(err),
		)
	}

	metrics.MessagesSent.WithLabelValues(string(room.Type)).Inc()
	return msg, nil
}

// ReactionChange describes the outcome of a reaction toggle
type ReactionChange struct {
	Emoji   string
	Count   int
	Removed bool
}

// React toggles a reaction: a second reaction with the same emoji by the
// same user removes the first, dropping the emoji entry entirely when its
// user set becomes empty.
func (s *MessageService) React(ctx context.Context, roomID, userID, messageID, emoji string) (*model.Message, *ReactionChange, error) {
	if _, _, err := s.requireMember(ctx, roomID, userID); err != nil {
		return nil, nil, err
	}

	msg, err := s.getRoomMessage(ctx, roomID, messageID)
	if err != nil {
		return nil, nil, err
	}

	change := &ReactionChange{Emoji: emoji}
	reactions := make([]model.Reaction, 0, len(msg.Reactions)+1)
	found := false

	for _, r := range msg.Reactions {
		if r.Emoji != emoji {
			reactions = append(reactions, r)
			continue
		}
		found = true
		users := make([]string, 0, len(r.Users))
		for _, id := range r.Users {
			if id != userID {
				users = append(users, id)
			}
		}
		if len(users) == len(r.Users) {
			users = append(users, userID)
		} else {
			change.Removed = true
		}
		if len(users) > 0 {
			reactions = append(reactions, model.Reaction{Emoji: emoji, Users: users, Count: len(users)})
			change.Count = len(users)
		}
	}

	if !found {
		reactions = append(reactions, model.Reaction{Emoji: emoji, Users: []string{userID}, Count: 1})
		change.Count = 1
	}

	if err := s.messageStore.SetReactions(ctx, messageID, reactions); err != nil {
		s.logger.Error("Failed to persist reactions", zap.Error(err))
		return nil, nil, apperrors.ErrPersistence
	}

	msg.Reactions = reactions
	return msg, change, nil
}

// Edit replaces a message's content, preserving the prior content on the
// append-only edit history
func (s *MessageService) Edit(ctx context.Context, roomID, editorID, messageID, newContent string) (*model.Message, error) {
	member, _, err := s.requireMember(ctx, roomID, editorID)
	if err != nil {
		return nil, err
	}
	if !member.HasPermission(model.PermissionWrite) {
		return nil, apperrors.ErrAccessDenied
	}

	content := strings.TrimSpace(newContent)
	if content == "" || utf8.RuneCountInString(content) > utils.MaxMessageLength {
		return nil, apperrors.ErrInvalidContent
	}

	msg, err := s.getRoomMessage(ctx, roomID, messageID)
	if err != nil {
		return nil, err
	}

	// Non-moderators may only edit their own messages
	if msg.SenderID != editorID && !member.CanModerate() {
		return nil, apperrors.ErrAccessDenied
	}

	now := time.Now()
	rec := model.EditRecord{
		Content:   msg.Content,
		EditedBy:  editorID,
		EditedAt:  now,
		CreatedAt: msg.CreatedAt,
	}

	if err := s.messageStore.UpdateContent(ctx, messageID, content, rec); err != nil {
		if err == repository.ErrMessageNotFound {
			return nil, apperrors.ErrMessageNotFound
		}
		s.logger.Error("Failed to update message", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	msg.EditHistory = append(msg.EditHistory, rec)
	msg.Content = content
	msg.IsEdited = true
	msg.UpdatedAt = now

	return msg, nil
}

// Delete soft-deletes a message; content is retained for audit
func (s *MessageService) Delete(ctx context.Context, roomID, userID, messageID string) error {
	member, _, err := s.requireMember(ctx, roomID, userID)
	if err != nil {
		return err
	}

	msg, err := s.getRoomMessage(ctx, roomID, messageID)
	if err != nil {
		return err
	}

	if msg.SenderID != userID && !member.HasPermission(model.PermissionDelete) {
		return apperrors.ErrAccessDenied
	}

	if err := s.messageStore.SoftDelete(ctx, messageID, time.Now()); err != nil {
		if err == repository.ErrMessageNotFound {
			return apperrors.ErrMessageNotFound
		}
		s.logger.Error("Failed to delete message", zap.Error(err))
		return apperrors.ErrPersistence
	}

	s.logger.Info("Message deleted",
		zap.String("message_id", messageID),
		zap.String("deleted_by", userID),
	)

	return nil
}

// Pin appends a message to the room's pinned list and flags the message
func (s *MessageService) Pin(ctx context.Context, roomID, userID, messageID string) (*model.Message, error) {
	member, _, err := s.requireMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member.HasPermission(model.PermissionPinMessages) {
		return nil, apperrors.ErrAccessDenied
	}

	msg, err := s.getRoomMessage(ctx, roomID, messageID)
	if err != nil {
		return nil, err
	}

	pin := model.PinnedMessage{
		MessageID: messageID,
		PinnedBy:  userID,
		PinnedAt:  time.Now(),
	}

	if err := s.roomStore.AddPinned(ctx, roomID, pin); err != nil {
		if err == repository.ErrAlreadyPinned {
			return nil, apperrors.ErrConflict
		}
		s.logger.Error("Failed to pin message", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	if err := s.messageStore.SetPinned(ctx, messageID, true); err != nil {
		s.logger.Warn("Failed to flag pinned message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}

	msg.IsPinned = true
	return msg, nil
}

// List retrieves messages for a room. includeDeleted is a moderation view.
func (s *MessageService) List(ctx context.Context, roomID, userID string, limit, offset int, includeDeleted bool) ([]*model.Message, error) {
	member, _, err := s.requireMember(ctx, roomID, userID)
	if err != nil {
		// Non-members may read public rooms
		if err == apperrors.ErrAccessDenied {
			room, rerr := s.roomStore.GetByID(ctx, roomID)
			if rerr != nil || !room.IsPublic() {
				return nil, err
			}
			member = nil
		} else {
			return nil, err
		}
	}

	if includeDeleted && (member == nil || !member.CanModerate()) {
		return nil, apperrors.ErrAccessDenied
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := s.messageStore.ListByRoom(ctx, roomID, limit, offset, includeDeleted)
	if err != nil {
		s.logger.Error("Failed to list messages", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	return messages, nil
}

func (s *MessageService) requireMember(ctx context.Context, roomID, userID string) (*model.RoomMember, *model.Room, error) {
	room, err := s.roomStore.GetByID(ctx, roomID)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return nil, nil, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to get room", zap.Error(err))
		return nil, nil, apperrors.ErrPersistence
	}

	member := room.GetMember(userID)
	if member == nil {
		return nil, nil, apperrors.ErrAccessDenied
	}

	return member, room, nil
}

func (s *MessageService) getRoomMessage(ctx context.Context, roomID, messageID string) (*model.Message, error) {
	msg, err := s.messageStore.GetByID(ctx, messageID)
	if err != nil {
		if err == repository.ErrMessageNotFound {
			return nil, apperrors.ErrMessageNotFound
		}
		s.logger.Error("Failed to get message", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	if msg.RoomID != roomID {
		return nil, apperrors.ErrMessageNotFound
	}

	return msg, nil
}
