package service

import (
	"context"
	"time"

	"github.com/codehive/chat/internal/model"
	apperrors "github.com/codehive/chat/internal/pkg/errors"
	"github.com/codehive/chat/internal/repository"
	"go.uber.org/zap"
)

type RoomService struct {
	roomStore RoomStore
	userStore UserStore
	logger    *zap.Logger
}

func NewRoomService(roomStore RoomStore, userStore UserStore, logger *zap.Logger) *RoomService {
	return &RoomService{
		roomStore: roomStore,
		userStore: userStore,
		logger:    logger,
	}
}

// CreateRoomInput represents room creation input
type CreateRoomInput struct {
	Name        string
	Description string
	Type        model.RoomType
	OwnerID     string
	MaxMembers  int
	JoinMode    model.JoinMode
}

// Create creates a new room; the creator becomes its owner member
func (s *RoomService) Create(ctx context.Context, input *CreateRoomInput) (*model.Room, error) {
	if input.MaxMembers <= 0 {
		input.MaxMembers = 100
	}
	if input.Type == "" {
		input.Type = model.RoomTypePublic
	}
	if input.JoinMode == "" {
		input.JoinMode = model.JoinModeOpen
	}

	room := &model.Room{
		Name:        input.Name,
		Description: input.Description,
		Type:        input.Type,
		OwnerID:     input.OwnerID,
		MaxMembers:  input.MaxMembers,
		IsJoinable:  true,
		JoinMode:    input.JoinMode,
		Members: []model.RoomMember{{
			UserID:      input.OwnerID,
			Role:        model.MemberRoleOwner,
			Permissions: model.DefaultPermissions(model.MemberRoleOwner),
			JoinedAt:    time.Now(),
		}},
	}

	if err := s.roomStore.Create(ctx, room); err != nil {
		s.logger.Error("Failed to create room", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	s.logger.Info("Room created",
		zap.String("room_id", room.ID.Hex()),
		zap.String("name", room.Name),
		zap.String("owner_id", input.OwnerID),
	)

	return room, nil
}

// GetByID retrieves a room by ID
func (s *RoomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.roomStore.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return nil, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to get room", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}
	return room, nil
}

// Join adds a user to a room. An existing member joins without any persisted
// change (presence-only). Returns the post-join room state and whether a new
// membership record was created.
func (s *RoomService) Join(ctx context.Context, roomID, userID string) (*model.Room, bool, error) {
	room, err := s.GetByID(ctx, roomID)
	if err != nil {
		return nil, false, err
	}

	if room.IsArchived {
		return nil, false, apperrors.ErrRoomUnavailable
	}

	if room.IsMember(userID) {
		return room, false, nil
	}

	// Approval, invite and password rooms require an external pre-check
	// the socket path cannot satisfy
	if !room.IsJoinable || room.JoinMode != model.JoinModeOpen {
		return nil, false, apperrors.ErrJoinDenied
	}

	if room.IsFull() {
		return nil, false, apperrors.ErrRoomFull
	}

	member := model.RoomMember{
		UserID:      userID,
		Role:        model.MemberRoleMember,
		Permissions: model.DefaultPermissions(model.MemberRoleMember),
		JoinedAt:    time.Now(),
		Online:      true,
	}

	joined := true
	if err := s.roomStore.AddMember(ctx, roomID, member); err != nil {
		switch err {
		case repository.ErrAlreadyRoomMember:
			// Lost a race with another connection of the same user; the
			// membership exists, but this call did not create it and no
			// roster delta should be announced for it
			joined = false
		case repository.ErrRoomFull:
			return nil, false, apperrors.ErrRoomFull
		case repository.ErrRoomNotFound:
			return nil, false, apperrors.ErrRoomNotFound
		default:
			s.logger.Error("Failed to add room member", zap.Error(err))
			return nil, false, apperrors.ErrPersistence
		}
	}

	room, err = s.GetByID(ctx, roomID)
	if err != nil {
		return nil, false, err
	}

	return room, joined, nil
}

// Leave removes a user's membership. Leaving a room one is not a member of
// is a no-op, not an error. Returns the post-leave room state and whether a
// membership record was removed.
func (s *RoomService) Leave(ctx context.Context, roomID, userID string) (*model.Room, bool, error) {
	if err := s.roomStore.RemoveMember(ctx, roomID, userID); err != nil {
		switch err {
		case repository.ErrNotRoomMember, repository.ErrRoomNotFound:
			return nil, false, nil
		default:
			s.logger.Error("Failed to remove room member", zap.Error(err))
			return nil, false, apperrors.ErrPersistence
		}
	}

	room, err := s.GetByID(ctx, roomID)
	if err != nil {
		return nil, true, nil
	}

	return room, true, nil
}

// MemberOf returns the membership record of a user in a room
func (s *RoomService) MemberOf(ctx context.Context, roomID, userID string) (*model.RoomMember, error) {
	room, err := s.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	member := room.GetMember(userID)
	if member == nil {
		return nil, apperrors.ErrAccessDenied
	}

	return member, nil
}

// SetMemberOnline flips the persisted online flag of a membership record
func (s *RoomService) SetMemberOnline(ctx context.Context, roomID, userID string, online bool) error {
	if err := s.roomStore.SetMemberOnline(ctx, roomID, userID, online); err != nil {
		if err == repository.ErrNotRoomMember || err == repository.ErrRoomNotFound {
			return nil
		}
		return apperrors.ErrPersistence
	}
	return nil
}

// RecordPeakOnline raises the room's peak concurrent online counter
func (s *RoomService) RecordPeakOnline(ctx context.Context, roomID string, online int) {
	if err := s.roomStore.UpdatePeakOnline(ctx, roomID, online); err != nil {
		s.logger.Warn("Failed to record peak online",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
	}
}

// ListMine retrieves all rooms a user belongs to
func (s *RoomService) ListMine(ctx context.Context, userID string) ([]*model.Room, error) {
	rooms, err := s.roomStore.ListByMember(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list rooms", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}
	return rooms, nil
}

// ListPublic retrieves joinable public rooms
func (s *RoomService) ListPublic(ctx context.Context, limit, offset int) ([]*model.Room, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rooms, err := s.roomStore.ListPublic(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list public rooms", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}
	return rooms, nil
}

// Archive archives a room; only the owner or a member with manage_room may
func (s *RoomService) Archive(ctx context.Context, roomID, userID string) error {
	room, err := s.GetByID(ctx, roomID)
	if err != nil {
		return err
	}

	member := room.GetMember(userID)
	if member == nil || !member.HasPermission(model.PermissionManageRoom) {
		return apperrors.ErrAccessDenied
	}

	if err := s.roomStore.Archive(ctx, roomID); err != nil {
		s.logger.Error("Failed to archive room", zap.Error(err))
		return apperrors.ErrPersistence
	}

	s.logger.Info("Room archived",
		zap.String("room_id", roomID),
		zap.String("archived_by", userID),
	)

	return nil
}

// Update updates mutable room attributes (manage_room permission required)
func (s *RoomService) Update(ctx context.Context, roomID, userID string, name, description *string, maxMembers *int) (*model.Room, error) {
	room, err := s.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	member := room.GetMember(userID)
	if member == nil || !member.HasPermission(model.PermissionManageRoom) {
		return nil, apperrors.ErrAccessDenied
	}

	if name != nil {
		room.Name = *name
	}
	if description != nil {
		room.Description = *description
	}
	if maxMembers != nil && *maxMembers > 0 {
		room.MaxMembers = *maxMembers
	}

	if err := s.roomStore.Update(ctx, room); err != nil {
		s.logger.Error("Failed to update room", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	return room, nil
}
