package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codehive/chat/internal/model"
)

func createTestRoom(t *testing.T, repo *RoomRepository, maxMembers int) *model.Room {
	t.Helper()

	room := &model.Room{
		Name:       "general",
		Type:       model.RoomTypePublic,
		OwnerID:    "owner-1",
		MaxMembers: maxMembers,
		IsJoinable: true,
		JoinMode:   model.JoinModeOpen,
		Members: []model.RoomMember{
			{
				UserID:      "owner-1",
				Role:        model.MemberRoleOwner,
				Permissions: model.DefaultPermissions(model.MemberRoleOwner),
				JoinedAt:    time.Now(),
			},
		},
	}
	if err := repo.Create(context.Background(), room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return room
}

func TestRoomRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)

	room := createTestRoom(t, repo, 10)

	if room.ID.IsZero() {
		t.Error("Create() did not assign an ID")
	}
	if room.MemberCount != 1 {
		t.Errorf("Create() member_count = %d, want 1", room.MemberCount)
	}
	if room.Stats.TotalMembers != 1 {
		t.Errorf("Create() stats.total_members = %d, want 1", room.Stats.TotalMembers)
	}

	got, err := repo.GetByID(context.Background(), room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "general" {
		t.Errorf("GetByID() name = %v, want general", got.Name)
	}
	if !got.IsMember("owner-1") {
		t.Error("GetByID() owner should be a member")
	}
}

func TestRoomRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)

	if _, err := repo.GetByID(context.Background(), nonExistentID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("GetByID() for missing room error = %v, want ErrRoomNotFound", err)
	}
	if _, err := repo.GetByID(context.Background(), "bad-id"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("GetByID() for malformed id error = %v, want ErrRoomNotFound", err)
	}
}

func TestRoomRepository_AddMember(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)

	member := model.RoomMember{
		UserID:      "user-2",
		Role:        model.MemberRoleMember,
		Permissions: model.DefaultPermissions(model.MemberRoleMember),
		JoinedAt:    time.Now(),
	}
	if err := repo.AddMember(ctx, room.ID.Hex(), member); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.MemberCount != 2 {
		t.Errorf("member_count = %d, want 2", got.MemberCount)
	}
	if got.Stats.TotalMembers != 2 {
		t.Errorf("stats.total_members = %d, want 2", got.Stats.TotalMembers)
	}
	if !got.IsMember("user-2") {
		t.Error("user-2 should be a member")
	}
}

func TestRoomRepository_AddMemberDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)

	dup := model.RoomMember{UserID: "owner-1", Role: model.MemberRoleMember, JoinedAt: time.Now()}
	if err := repo.AddMember(ctx, room.ID.Hex(), dup); !errors.Is(err, ErrAlreadyRoomMember) {
		t.Errorf("AddMember() duplicate error = %v, want ErrAlreadyRoomMember", err)
	}

	// Counter untouched by the rejected update
	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.MemberCount != 1 {
		t.Errorf("member_count = %d, want 1", got.MemberCount)
	}
}

func TestRoomRepository_AddMemberFull(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 2)

	second := model.RoomMember{UserID: "user-2", Role: model.MemberRoleMember, JoinedAt: time.Now()}
	if err := repo.AddMember(ctx, room.ID.Hex(), second); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	third := model.RoomMember{UserID: "user-3", Role: model.MemberRoleMember, JoinedAt: time.Now()}
	if err := repo.AddMember(ctx, room.ID.Hex(), third); !errors.Is(err, ErrRoomFull) {
		t.Errorf("AddMember() over capacity error = %v, want ErrRoomFull", err)
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.MemberCount != 2 {
		t.Errorf("member_count = %d, want 2", got.MemberCount)
	}
	if got.IsMember("user-3") {
		t.Error("user-3 should not have been admitted")
	}
}

func TestRoomRepository_AddMemberUnlimited(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	// max_members 0 means no cap
	room := createTestRoom(t, repo, 0)

	for _, id := range []string{"user-2", "user-3", "user-4"} {
		m := model.RoomMember{UserID: id, Role: model.MemberRoleMember, JoinedAt: time.Now()}
		if err := repo.AddMember(ctx, room.ID.Hex(), m); err != nil {
			t.Fatalf("AddMember(%s) error = %v", id, err)
		}
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.MemberCount != 4 {
		t.Errorf("member_count = %d, want 4", got.MemberCount)
	}
}

func TestRoomRepository_RemoveMember(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)
	member := model.RoomMember{UserID: "user-2", Role: model.MemberRoleMember, JoinedAt: time.Now()}
	if err := repo.AddMember(ctx, room.ID.Hex(), member); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	if err := repo.RemoveMember(ctx, room.ID.Hex(), "user-2"); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.IsMember("user-2") {
		t.Error("user-2 should have been removed")
	}
	if got.MemberCount != 1 {
		t.Errorf("member_count = %d, want 1", got.MemberCount)
	}

	// Removing again must not decrement past the real membership
	if err := repo.RemoveMember(ctx, room.ID.Hex(), "user-2"); !errors.Is(err, ErrNotRoomMember) {
		t.Errorf("RemoveMember() non-member error = %v, want ErrNotRoomMember", err)
	}
	got, err = repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.MemberCount != 1 {
		t.Errorf("member_count after no-op removal = %d, want 1", got.MemberCount)
	}
}

func TestRoomRepository_SetMemberOnline(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)

	if err := repo.SetMemberOnline(ctx, room.ID.Hex(), "owner-1", true); err != nil {
		t.Fatalf("SetMemberOnline() error = %v", err)
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if m := got.GetMember("owner-1"); m == nil || !m.Online {
		t.Error("owner-1 should be marked online")
	}

	if err := repo.SetMemberOnline(ctx, room.ID.Hex(), "stranger", true); !errors.Is(err, ErrNotRoomMember) {
		t.Errorf("SetMemberOnline() for non-member error = %v, want ErrNotRoomMember", err)
	}
}

func TestRoomRepository_UpdatePeakOnline(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)

	if err := repo.UpdatePeakOnline(ctx, room.ID.Hex(), 5); err != nil {
		t.Fatalf("UpdatePeakOnline() error = %v", err)
	}
	// A lower observation never lowers the recorded peak
	if err := repo.UpdatePeakOnline(ctx, room.ID.Hex(), 3); err != nil {
		t.Fatalf("UpdatePeakOnline() error = %v", err)
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Stats.PeakOnline != 5 {
		t.Errorf("stats.peak_online = %d, want 5", got.Stats.PeakOnline)
	}
}

func TestRoomRepository_IncrementMessageCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)

	for i := 0; i < 3; i++ {
		if err := repo.IncrementMessageCount(ctx, room.ID.Hex()); err != nil {
			t.Fatalf("IncrementMessageCount() error = %v", err)
		}
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Stats.TotalMessages != 3 {
		t.Errorf("stats.total_messages = %d, want 3", got.Stats.TotalMessages)
	}

	if err := repo.IncrementMessageCount(ctx, nonExistentID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("IncrementMessageCount() for missing room error = %v, want ErrRoomNotFound", err)
	}
}

func TestRoomRepository_AddPinned(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)

	pin := model.PinnedMessage{MessageID: "msg-1", PinnedBy: "owner-1", PinnedAt: time.Now()}
	if err := repo.AddPinned(ctx, room.ID.Hex(), pin); err != nil {
		t.Fatalf("AddPinned() error = %v", err)
	}

	if err := repo.AddPinned(ctx, room.ID.Hex(), pin); !errors.Is(err, ErrAlreadyPinned) {
		t.Errorf("AddPinned() duplicate error = %v, want ErrAlreadyPinned", err)
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Pinned) != 1 {
		t.Errorf("pinned count = %d, want 1", len(got.Pinned))
	}
	if !got.IsPinned("msg-1") {
		t.Error("msg-1 should be pinned")
	}
}

func TestRoomRepository_Archive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)

	if err := repo.Archive(ctx, room.ID.Hex()); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.IsArchived {
		t.Error("room should be archived")
	}
	if got.IsJoinable {
		t.Error("archived room should not be joinable")
	}

	if err := repo.Archive(ctx, nonExistentID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Archive() for missing room error = %v, want ErrRoomNotFound", err)
	}
}

func TestRoomRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := createTestRoom(t, repo, 10)
	room.Name = "renamed"
	room.MaxMembers = 50
	room.JoinMode = model.JoinModeInvite

	if err := repo.Update(ctx, room); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "renamed" {
		t.Errorf("name = %v, want renamed", got.Name)
	}
	if got.MaxMembers != 50 {
		t.Errorf("max_members = %d, want 50", got.MaxMembers)
	}
	if got.JoinMode != model.JoinModeInvite {
		t.Errorf("join_mode = %v, want %v", got.JoinMode, model.JoinModeInvite)
	}
}

func TestRoomRepository_ListByMember(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	first := createTestRoom(t, repo, 10)
	second := createTestRoom(t, repo, 10)
	archived := createTestRoom(t, repo, 10)
	if err := repo.Archive(ctx, archived.ID.Hex()); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	rooms, err := repo.ListByMember(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListByMember() error = %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("ListByMember() returned %d rooms, want 2", len(rooms))
	}
	for _, r := range rooms {
		if r.ID != first.ID && r.ID != second.ID {
			t.Errorf("ListByMember() returned unexpected room %v", r.ID)
		}
	}

	rooms, err = repo.ListByMember(ctx, "stranger")
	if err != nil {
		t.Fatalf("ListByMember() error = %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("ListByMember() for stranger returned %d rooms, want 0", len(rooms))
	}
}

func TestRoomRepository_ListPublic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	createTestRoom(t, repo, 10)
	createTestRoom(t, repo, 10)

	private := &model.Room{
		Name:    "secret",
		Type:    model.RoomTypePrivate,
		OwnerID: "owner-1",
		Members: []model.RoomMember{{UserID: "owner-1", Role: model.MemberRoleOwner, JoinedAt: time.Now()}},
	}
	if err := repo.Create(ctx, private); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rooms, err := repo.ListPublic(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("ListPublic() returned %d rooms, want 2", len(rooms))
	}
	for _, r := range rooms {
		if r.Type == model.RoomTypePrivate {
			t.Error("ListPublic() leaked a private room")
		}
	}

	// Pagination
	rooms, err = repo.ListPublic(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if len(rooms) != 1 {
		t.Errorf("ListPublic() with limit 1 offset 1 returned %d rooms, want 1", len(rooms))
	}
}
