package service

import (
	"context"
	"testing"

	"github.com/codehive/chat/internal/model"
	apperrors "github.com/codehive/chat/internal/pkg/errors"
	"github.com/codehive/chat/internal/repository"
	"go.uber.org/zap"
)

func newTestRoomService(t *testing.T) (*RoomService, *memRoomStore) {
	t.Helper()
	rooms := newMemRoomStore()
	return NewRoomService(rooms, newMemUserStore(), zap.NewNop()), rooms
}

func createTestRoom(t *testing.T, svc *RoomService, input *CreateRoomInput) *model.Room {
	t.Helper()
	room, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return room
}

func TestRoomServiceCreate(t *testing.T) {
	svc, _ := newTestRoomService(t)

	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})

	if room.Type != model.RoomTypePublic {
		t.Errorf("Expected default type public, got %s", room.Type)
	}
	if room.JoinMode != model.JoinModeOpen {
		t.Errorf("Expected default join mode open, got %s", room.JoinMode)
	}
	if room.MemberCount != 1 {
		t.Errorf("Expected member count 1, got %d", room.MemberCount)
	}
	owner := room.GetMember("owner-1")
	if owner == nil || owner.Role != model.MemberRoleOwner {
		t.Error("Expected creator to be the owner member")
	}
}

func TestRoomServiceJoin(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})
	ctx := context.Background()

	joined, created, err := svc.Join(ctx, room.ID.Hex(), "user-2")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !created {
		t.Error("Expected a new membership record")
	}
	if !joined.IsMember("user-2") {
		t.Error("Expected user-2 in member list")
	}
	if joined.MemberCount != 2 {
		t.Errorf("Expected member count 2, got %d", joined.MemberCount)
	}
}

func TestRoomServiceJoinIdempotent(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})
	ctx := context.Background()

	if _, _, err := svc.Join(ctx, room.ID.Hex(), "user-2"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	again, created, err := svc.Join(ctx, room.ID.Hex(), "user-2")
	if err != nil {
		t.Fatalf("Second join failed: %v", err)
	}
	if created {
		t.Error("Re-join must not create another membership record")
	}
	if again.MemberCount != 2 {
		t.Errorf("Expected member count to stay 2, got %d", again.MemberCount)
	}
}

func TestRoomServiceJoinArchived(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "old", OwnerID: "owner-1"})
	ctx := context.Background()

	if err := svc.Archive(ctx, room.ID.Hex(), "owner-1"); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if _, _, err := svc.Join(ctx, room.ID.Hex(), "user-2"); err != apperrors.ErrRoomUnavailable {
		t.Errorf("Expected ErrRoomUnavailable, got %v", err)
	}
}

func TestRoomServiceJoinFull(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "tiny", OwnerID: "owner-1", MaxMembers: 2})
	ctx := context.Background()

	if _, _, err := svc.Join(ctx, room.ID.Hex(), "user-2"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, _, err := svc.Join(ctx, room.ID.Hex(), "user-3"); err != apperrors.ErrRoomFull {
		t.Errorf("Expected ErrRoomFull, got %v", err)
	}

	// A member of a full room still joins fine (presence-only)
	if _, created, err := svc.Join(ctx, room.ID.Hex(), "user-2"); err != nil || created {
		t.Errorf("Expected existing member to re-join, got created=%v err=%v", created, err)
	}
}

// raceLosingRoomStore reports every membership insert as lost to a
// concurrent writer, the way a second connection of the same user can
// race past the pre-check read.
type raceLosingRoomStore struct {
	*memRoomStore
}

func (s *raceLosingRoomStore) AddMember(context.Context, string, model.RoomMember) error {
	return repository.ErrAlreadyRoomMember
}

func TestRoomServiceJoinLostRace(t *testing.T) {
	rooms := newMemRoomStore()
	svc := NewRoomService(&raceLosingRoomStore{rooms}, newMemUserStore(), zap.NewNop())
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})

	got, created, err := svc.Join(context.Background(), room.ID.Hex(), "user-2")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	// The membership exists either way, but this call did not create it,
	// so no roster delta should be announced for it
	if created {
		t.Error("A join that lost the duplicate-member race must not report a new membership")
	}
	if got == nil {
		t.Fatal("Expected the room state back")
	}
}

func TestRoomServiceJoinDenied(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{
		Name:     "invite-only",
		OwnerID:  "owner-1",
		Type:     model.RoomTypePrivate,
		JoinMode: model.JoinModeInvite,
	})

	if _, _, err := svc.Join(context.Background(), room.ID.Hex(), "user-2"); err != apperrors.ErrJoinDenied {
		t.Errorf("Expected ErrJoinDenied, got %v", err)
	}
}

func TestRoomServiceJoinUnknownRoom(t *testing.T) {
	svc, _ := newTestRoomService(t)

	if _, _, err := svc.Join(context.Background(), "000000000000000000000000", "user-2"); err != apperrors.ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomServiceLeave(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})
	ctx := context.Background()

	if _, _, err := svc.Join(ctx, room.ID.Hex(), "user-2"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	left, removed, err := svc.Leave(ctx, room.ID.Hex(), "user-2")
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if !removed {
		t.Error("Expected membership record to be removed")
	}
	if left.IsMember("user-2") {
		t.Error("Expected user-2 gone from member list")
	}
	if left.MemberCount != 1 {
		t.Errorf("Expected member count 1, got %d", left.MemberCount)
	}
}

func TestRoomServiceLeaveNonMember(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})

	_, removed, err := svc.Leave(context.Background(), room.ID.Hex(), "stranger")
	if err != nil {
		t.Fatalf("Expected no-op leave, got %v", err)
	}
	if removed {
		t.Error("Leaving a room one never joined must not report a removal")
	}
}

func TestRoomServiceRecordPeakOnline(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})
	ctx := context.Background()

	svc.RecordPeakOnline(ctx, room.ID.Hex(), 5)
	svc.RecordPeakOnline(ctx, room.ID.Hex(), 3)

	got, err := svc.GetByID(ctx, room.ID.Hex())
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Stats.PeakOnline != 5 {
		t.Errorf("Expected peak online 5, got %d", got.Stats.PeakOnline)
	}
}

func TestRoomServiceArchivePermission(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})
	ctx := context.Background()

	if _, _, err := svc.Join(ctx, room.ID.Hex(), "user-2"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := svc.Archive(ctx, room.ID.Hex(), "user-2"); err != apperrors.ErrAccessDenied {
		t.Errorf("Expected ErrAccessDenied for plain member, got %v", err)
	}
	if err := svc.Archive(ctx, room.ID.Hex(), "owner-1"); err != nil {
		t.Errorf("Expected owner to archive, got %v", err)
	}
}

func TestRoomServiceUpdate(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})
	ctx := context.Background()

	name := "renamed"
	updated, err := svc.Update(ctx, room.ID.Hex(), "owner-1", &name, nil, nil)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "renamed" {
		t.Errorf("Expected name renamed, got %s", updated.Name)
	}

	if _, _, err := svc.Join(ctx, room.ID.Hex(), "user-2"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := svc.Update(ctx, room.ID.Hex(), "user-2", &name, nil, nil); err != apperrors.ErrAccessDenied {
		t.Errorf("Expected ErrAccessDenied for plain member, got %v", err)
	}
}

func TestRoomServiceListMine(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	createTestRoom(t, svc, &CreateRoomInput{Name: "a", OwnerID: "owner-1"})
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "b", OwnerID: "owner-2"})
	if _, _, err := svc.Join(ctx, room.ID.Hex(), "owner-1"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	rooms, err := svc.ListMine(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListMine failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("Expected 2 rooms, got %d", len(rooms))
	}
}

func TestRoomServiceMemberOf(t *testing.T) {
	svc, _ := newTestRoomService(t)
	room := createTestRoom(t, svc, &CreateRoomInput{Name: "general", OwnerID: "owner-1"})
	ctx := context.Background()

	member, err := svc.MemberOf(ctx, room.ID.Hex(), "owner-1")
	if err != nil {
		t.Fatalf("MemberOf failed: %v", err)
	}
	if member.Role != model.MemberRoleOwner {
		t.Errorf("Expected owner role, got %s", member.Role)
	}

	if _, err := svc.MemberOf(ctx, room.ID.Hex(), "stranger"); err != apperrors.ErrAccessDenied {
		t.Errorf("Expected ErrAccessDenied, got %v", err)
	}
}
