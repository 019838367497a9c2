package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
	RoomTypeTeam    RoomType = "team"
	RoomTypeDirect  RoomType = "direct"
	RoomTypeChannel RoomType = "channel"
	RoomTypeGroup   RoomType = "group"
)

type MemberRole string

const (
	MemberRoleOwner     MemberRole = "owner"
	MemberRoleAdmin     MemberRole = "admin"
	MemberRoleModerator MemberRole = "moderator"
	MemberRoleMember    MemberRole = "member"
)

type Permission string

const (
	PermissionRead          Permission = "read"
	PermissionWrite         Permission = "write"
	PermissionDelete        Permission = "delete"
	PermissionManageMembers Permission = "manage_members"
	PermissionPinMessages   Permission = "pin_messages"
	PermissionManageRoom    Permission = "manage_room"
)

// JoinMode controls how a user may become a member of a room.
type JoinMode string

const (
	JoinModeOpen     JoinMode = "open"
	JoinModeApproval JoinMode = "approval"
	JoinModeInvite   JoinMode = "invite"
	JoinModePassword JoinMode = "password"
)

// DefaultPermissions returns the permission set implied by a role.
func DefaultPermissions(role MemberRole) []Permission {
	switch role {
	case MemberRoleOwner, MemberRoleAdmin:
		return []Permission{
			PermissionRead, PermissionWrite, PermissionDelete,
			PermissionManageMembers, PermissionPinMessages, PermissionManageRoom,
		}
	case MemberRoleModerator:
		return []Permission{
			PermissionRead, PermissionWrite, PermissionDelete, PermissionPinMessages,
		}
	default:
		return []Permission{PermissionRead, PermissionWrite}
	}
}

// RoomMember is a membership record embedded in a room document.
type RoomMember struct {
	UserID      string       `bson:"user_id" json:"user_id"`
	Role        MemberRole   `bson:"role" json:"role"`
	Permissions []Permission `bson:"permissions" json:"permissions"`
	JoinedAt    time.Time    `bson:"joined_at" json:"joined_at"`
	Online      bool         `bson:"online" json:"online"`
	IsMuted     bool         `bson:"is_muted" json:"is_muted"`
}

// IsOwner checks if member is room owner
func (m *RoomMember) IsOwner() bool {
	return m.Role == MemberRoleOwner
}

// CanModerate checks if member can moderate (owner or admin)
func (m *RoomMember) CanModerate() bool {
	return m.Role == MemberRoleOwner || m.Role == MemberRoleAdmin
}

// HasPermission checks an explicit permission; owner and admin bypass by role.
func (m *RoomMember) HasPermission(p Permission) bool {
	if m.CanModerate() {
		return true
	}
	for _, perm := range m.Permissions {
		if perm == p {
			return true
		}
	}
	return false
}

// PinnedMessage records a pin in the room's pinned list.
type PinnedMessage struct {
	MessageID string    `bson:"message_id" json:"message_id"`
	PinnedBy  string    `bson:"pinned_by" json:"pinned_by"`
	PinnedAt  time.Time `bson:"pinned_at" json:"pinned_at"`
}

// RoomStats holds aggregate counters maintained best-effort alongside the
// room document (no cross-document transaction, drift is accepted).
type RoomStats struct {
	TotalMessages int `bson:"total_messages" json:"total_messages"`
	TotalMembers  int `bson:"total_members" json:"total_members"`
	PeakOnline    int `bson:"peak_online" json:"peak_online"`
}

type Room struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        RoomType           `bson:"type" json:"type"`
	OwnerID     string             `bson:"owner_id" json:"owner_id"`
	Members     []RoomMember       `bson:"members" json:"members"`
	MemberCount int                `bson:"member_count" json:"member_count"`
	MaxMembers  int                `bson:"max_members" json:"max_members"`
	IsJoinable  bool               `bson:"is_joinable" json:"is_joinable"`
	JoinMode    JoinMode           `bson:"join_mode" json:"join_mode"`
	IsArchived  bool               `bson:"is_archived" json:"is_archived"`
	Pinned      []PinnedMessage    `bson:"pinned" json:"pinned"`
	Stats       RoomStats          `bson:"stats" json:"stats"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsPublic checks if room is public
func (r *Room) IsPublic() bool {
	return r.Type == RoomTypePublic || r.Type == RoomTypeChannel
}

// IsFull checks if room has reached its member cap
func (r *Room) IsFull() bool {
	return r.MaxMembers > 0 && r.MemberCount >= r.MaxMembers
}

// GetMember returns the membership record for a user, or nil
func (r *Room) GetMember(userID string) *RoomMember {
	for i := range r.Members {
		if r.Members[i].UserID == userID {
			return &r.Members[i]
		}
	}
	return nil
}

// IsMember checks if a user is in the member list
func (r *Room) IsMember(userID string) bool {
	return r.GetMember(userID) != nil
}

// IsPinned checks if a message is already pinned in this room
func (r *Room) IsPinned(messageID string) bool {
	for _, p := range r.Pinned {
		if p.MessageID == messageID {
			return true
		}
	}
	return false
}
