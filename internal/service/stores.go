package service

import (
	"context"
	"time"

	"github.com/codehive/chat/internal/model"
)

// Store interfaces consumed by the services. The mongo-backed types in
// internal/repository satisfy them; tests substitute in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateStatus(ctx context.Context, id string, status model.UserStatus) error
	GetMany(ctx context.Context, ids []string) ([]*model.User, error)
}

type RoomStore interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	AddMember(ctx context.Context, roomID string, member model.RoomMember) error
	RemoveMember(ctx context.Context, roomID, userID string) error
	SetMemberOnline(ctx context.Context, roomID, userID string, online bool) error
	UpdatePeakOnline(ctx context.Context, roomID string, online int) error
	IncrementMessageCount(ctx context.Context, roomID string) error
	AddPinned(ctx context.Context, roomID string, pin model.PinnedMessage) error
	Archive(ctx context.Context, roomID string) error
	Update(ctx context.Context, room *model.Room) error
	ListByMember(ctx context.Context, userID string) ([]*model.Room, error)
	ListPublic(ctx context.Context, limit, offset int) ([]*model.Room, error)
}

type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	UpdateContent(ctx context.Context, id, content string, rec model.EditRecord) error
	SetReactions(ctx context.Context, id string, reactions []model.Reaction) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	SetPinned(ctx context.Context, id string, pinned bool) error
	ListByRoom(ctx context.Context, roomID string, limit, offset int, includeDeleted bool) ([]*model.Message, error)
	CountByRoom(ctx context.Context, roomID string) (int, error)
}

// TokenStore holds refresh token state; backed by redis in production.
type TokenStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
