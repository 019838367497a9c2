package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/codehive/chat/internal/model"
	"github.com/codehive/chat/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory store fakes. They mirror the guards the mongo repositories
// enforce (duplicate keys, member capacity, pin uniqueness) so the services
// can be exercised without a database.

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*model.User)}
}

func (s *memUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID.Hex()] = &cp
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memUserStore) UpdateStatus(_ context.Context, id string, status model.UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Status = status
	u.LastSeenAt = time.Now()
	return nil
}

func (s *memUserStore) GetMany(_ context.Context, ids []string) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			users = append(users, &cp)
		}
	}
	return users, nil
}

type memRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
}

func newMemRoomStore() *memRoomStore {
	return &memRoomStore{rooms: make(map[string]*model.Room)}
}

func (s *memRoomStore) Create(_ context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID.IsZero() {
		room.ID = primitive.NewObjectID()
	}
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	room.MemberCount = len(room.Members)
	room.Stats.TotalMembers = len(room.Members)
	cp := cloneRoom(room)
	s.rooms[room.ID.Hex()] = cp
	return nil
}

func (s *memRoomStore) GetByID(_ context.Context, id string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return cloneRoom(r), nil
}

func (s *memRoomStore) AddMember(_ context.Context, roomID string, member model.RoomMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if r.IsMember(member.UserID) {
		return repository.ErrAlreadyRoomMember
	}
	if r.IsFull() {
		return repository.ErrRoomFull
	}
	r.Members = append(r.Members, member)
	r.MemberCount++
	r.Stats.TotalMembers = r.MemberCount
	return nil
}

func (s *memRoomStore) RemoveMember(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	for i := range r.Members {
		if r.Members[i].UserID == userID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			if r.MemberCount > 0 {
				r.MemberCount--
			}
			r.Stats.TotalMembers = r.MemberCount
			return nil
		}
	}
	return repository.ErrNotRoomMember
}

func (s *memRoomStore) SetMemberOnline(_ context.Context, roomID, userID string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	m := r.GetMember(userID)
	if m == nil {
		return repository.ErrNotRoomMember
	}
	m.Online = online
	return nil
}

func (s *memRoomStore) UpdatePeakOnline(_ context.Context, roomID string, online int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if online > r.Stats.PeakOnline {
		r.Stats.PeakOnline = online
	}
	return nil
}

func (s *memRoomStore) IncrementMessageCount(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	r.Stats.TotalMessages++
	return nil
}

func (s *memRoomStore) AddPinned(_ context.Context, roomID string, pin model.PinnedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if r.IsPinned(pin.MessageID) {
		return repository.ErrAlreadyPinned
	}
	r.Pinned = append(r.Pinned, pin)
	return nil
}

func (s *memRoomStore) Archive(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	r.IsArchived = true
	r.IsJoinable = false
	return nil
}

func (s *memRoomStore) Update(_ context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID.Hex()]; !ok {
		return repository.ErrRoomNotFound
	}
	room.UpdatedAt = time.Now()
	s.rooms[room.ID.Hex()] = cloneRoom(room)
	return nil
}

func (s *memRoomStore) ListByMember(_ context.Context, userID string) ([]*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []*model.Room
	for _, r := range s.rooms {
		if r.IsMember(userID) {
			rooms = append(rooms, cloneRoom(r))
		}
	}
	return rooms, nil
}

func (s *memRoomStore) ListPublic(_ context.Context, limit, offset int) ([]*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []*model.Room
	for _, r := range s.rooms {
		if r.IsPublic() && !r.IsArchived {
			rooms = append(rooms, cloneRoom(r))
		}
	}
	if offset >= len(rooms) {
		return nil, nil
	}
	rooms = rooms[offset:]
	if limit > 0 && len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

func cloneRoom(r *model.Room) *model.Room {
	cp := *r
	cp.Members = append([]model.RoomMember(nil), r.Members...)
	cp.Pinned = append([]model.PinnedMessage(nil), r.Pinned...)
	return &cp
}

type memMessageStore struct {
	mu       sync.Mutex
	messages map[string]*model.Message
	order    []string
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{messages: make(map[string]*model.Message)}
}

func (s *memMessageStore) Create(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	cp := cloneMessage(msg)
	s.messages[msg.ID.Hex()] = cp
	s.order = append(s.order, msg.ID.Hex())
	return nil
}

func (s *memMessageStore) GetByID(_ context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, repository.ErrMessageNotFound
	}
	return cloneMessage(m), nil
}

func (s *memMessageStore) UpdateContent(_ context.Context, id, content string, rec model.EditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	m.EditHistory = append(m.EditHistory, rec)
	m.Content = content
	m.IsEdited = true
	m.UpdatedAt = rec.EditedAt
	return nil
}

func (s *memMessageStore) SetReactions(_ context.Context, id string, reactions []model.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	m.Reactions = append([]model.Reaction(nil), reactions...)
	return nil
}

func (s *memMessageStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	m.IsDeleted = true
	m.DeletedAt = at
	return nil
}

func (s *memMessageStore) SetPinned(_ context.Context, id string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return repository.ErrMessageNotFound
	}
	m.IsPinned = pinned
	return nil
}

func (s *memMessageStore) ListByRoom(_ context.Context, roomID string, limit, offset int, includeDeleted bool) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var messages []*model.Message
	// Newest first, like the repository
	for i := len(s.order) - 1; i >= 0; i-- {
		m := s.messages[s.order[i]]
		if m.RoomID != roomID {
			continue
		}
		if m.IsDeleted && !includeDeleted {
			continue
		}
		messages = append(messages, cloneMessage(m))
	}
	if offset >= len(messages) {
		return nil, nil
	}
	messages = messages[offset:]
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (s *memMessageStore) CountByRoom(_ context.Context, roomID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.RoomID == roomID && !m.IsDeleted {
			count++
		}
	}
	return count, nil
}

func cloneMessage(m *model.Message) *model.Message {
	cp := *m
	cp.Reactions = append([]model.Reaction(nil), m.Reactions...)
	cp.EditHistory = append([]model.EditRecord(nil), m.EditHistory...)
	cp.Mentions = append([]string(nil), m.Mentions...)
	return &cp
}

var errTokenMissing = errors.New("token not found")

type memTokenStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{values: make(map[string]string)}
}

func (s *memTokenStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if str, ok := value.(string); ok {
		s.values[key] = str
	} else {
		s.values[key] = ""
	}
	return nil
}

func (s *memTokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", errTokenMissing
	}
	return v, nil
}

func (s *memTokenStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
