package response

import (
	"time"

	"github.com/codehive/chat/internal/model"
)

// RoomResponse represents a room response
type RoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	OwnerID     string `json:"owner_id"`
	MaxMembers  int    `json:"max_members"`
	MemberCount int    `json:"member_count"`
	IsArchived  bool   `json:"is_archived"`
	JoinMode    string `json:"join_mode"`
	CreatedAt   string `json:"created_at"`
}

// NewRoomResponse creates a room response from model
func NewRoomResponse(room *model.Room) *RoomResponse {
	return &RoomResponse{
		ID:          room.ID.Hex(),
		Name:        room.Name,
		Description: room.Description,
		Type:        string(room.Type),
		OwnerID:     room.OwnerID,
		MaxMembers:  room.MaxMembers,
		MemberCount: room.MemberCount,
		IsArchived:  room.IsArchived,
		JoinMode:    string(room.JoinMode),
		CreatedAt:   room.CreatedAt.Format(time.RFC3339),
	}
}

// RoomDetailResponse represents a detailed room response
type RoomDetailResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Type        string                `json:"type"`
	OwnerID     string                `json:"owner_id"`
	MaxMembers  int                   `json:"max_members"`
	MemberCount int                   `json:"member_count"`
	IsArchived  bool                  `json:"is_archived"`
	JoinMode    string                `json:"join_mode"`
	Members     []*RoomMemberResponse `json:"members"`
	Pinned      []model.PinnedMessage `json:"pinned"`
	Stats       model.RoomStats       `json:"stats"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
}

// NewRoomDetailResponse creates a detailed room response from model
func NewRoomDetailResponse(room *model.Room) *RoomDetailResponse {
	members := make([]*RoomMemberResponse, len(room.Members))
	for i := range room.Members {
		members[i] = NewRoomMemberResponse(&room.Members[i])
	}

	return &RoomDetailResponse{
		ID:          room.ID.Hex(),
		Name:        room.Name,
		Description: room.Description,
		Type:        string(room.Type),
		OwnerID:     room.OwnerID,
		MaxMembers:  room.MaxMembers,
		MemberCount: room.MemberCount,
		IsArchived:  room.IsArchived,
		JoinMode:    string(room.JoinMode),
		Members:     members,
		Pinned:      room.Pinned,
		Stats:       room.Stats,
		CreatedAt:   room.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   room.UpdatedAt.Format(time.RFC3339),
	}
}

// RoomMemberResponse represents a room member response
type RoomMemberResponse struct {
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Online      bool     `json:"online"`
	IsMuted     bool     `json:"is_muted"`
	JoinedAt    string   `json:"joined_at"`
}

// NewRoomMemberResponse creates a room member response from model
func NewRoomMemberResponse(m *model.RoomMember) *RoomMemberResponse {
	perms := make([]string, len(m.Permissions))
	for i, p := range m.Permissions {
		perms[i] = string(p)
	}

	return &RoomMemberResponse{
		UserID:      m.UserID,
		Role:        string(m.Role),
		Permissions: perms,
		Online:      m.Online,
		IsMuted:     m.IsMuted,
		JoinedAt:    m.JoinedAt.Format(time.RFC3339),
	}
}

// RoomListResponse represents a list of rooms
type RoomListResponse struct {
	Rooms []*RoomResponse `json:"rooms"`
	Total int             `json:"total"`
}

// NewRoomListResponse creates a room list response
func NewRoomListResponse(rooms []*model.Room) *RoomListResponse {
	roomResponses := make([]*RoomResponse, len(rooms))
	for i, room := range rooms {
		roomResponses[i] = NewRoomResponse(room)
	}

	return &RoomListResponse{
		Rooms: roomResponses,
		Total: len(roomResponses),
	}
}
