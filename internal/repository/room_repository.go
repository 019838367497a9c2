package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codehive/chat/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotRoomMember     = errors.New("not a room member")
	ErrAlreadyRoomMember = errors.New("already a room member")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyPinned     = errors.New("message already pinned")
)

type RoomRepository struct {
	coll *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{coll: db.Collection("rooms")}
}

// Create inserts a new room
func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.Members == nil {
		room.Members = []model.RoomMember{}
	}
	if room.Pinned == nil {
		room.Pinned = []model.PinnedMessage{}
	}
	room.MemberCount = len(room.Members)
	room.Stats.TotalMembers = len(room.Members)

	res, err := r.coll.InsertOne(ctx, room)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}

	room.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID retrieves a room by its hex id
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*model.Room, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	var room model.Room
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	return &room, nil
}

// AddMember appends a membership record. The filter guards against a
// duplicate member and against exceeding max_members, so the push and the
// counter increment stay consistent within the single document update.
func (r *RoomRepository) AddMember(ctx context.Context, roomID string, member model.RoomMember) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrRoomNotFound
	}

	filter := bson.M{
		"_id":             oid,
		"members.user_id": bson.M{"$ne": member.UserID},
		"$expr": bson.M{"$or": bson.A{
			bson.M{"$lte": bson.A{"$max_members", 0}},
			bson.M{"$lt": bson.A{"$member_count", "$max_members"}},
		}},
	}
	update := bson.M{
		"$push": bson.M{"members": member},
		"$inc":  bson.M{"member_count": 1, "stats.total_members": 1},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add room member: %w", err)
	}
	if res.MatchedCount == 0 {
		// Disambiguate: the guard rejected either a duplicate or a full room
		room, err := r.GetByID(ctx, roomID)
		if err != nil {
			return err
		}
		if room.IsMember(member.UserID) {
			return ErrAlreadyRoomMember
		}
		return ErrRoomFull
	}

	return nil
}

// RemoveMember pulls a membership record and decrements the counter. The
// filter requires the member to be present, so the count never goes negative.
func (r *RoomRepository) RemoveMember(ctx context.Context, roomID, userID string) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrRoomNotFound
	}

	filter := bson.M{"_id": oid, "members.user_id": userID}
	update := bson.M{
		"$pull": bson.M{"members": bson.M{"user_id": userID}},
		"$inc":  bson.M{"member_count": -1, "stats.total_members": -1},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove room member: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotRoomMember
	}

	return nil
}

// SetMemberOnline flips the online flag on a membership record
func (r *RoomRepository) SetMemberOnline(ctx context.Context, roomID, userID string, online bool) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrRoomNotFound
	}

	filter := bson.M{"_id": oid, "members.user_id": userID}
	update := bson.M{"$set": bson.M{"members.$.online": online}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set member online state: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotRoomMember
	}

	return nil
}

// UpdatePeakOnline raises the peak concurrent online counter, never lowers it
func (r *RoomRepository) UpdatePeakOnline(ctx context.Context, roomID string, online int) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrRoomNotFound
	}

	update := bson.M{"$max": bson.M{"stats.peak_online": online}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("failed to update peak online: %w", err)
	}

	return nil
}

// IncrementMessageCount bumps the room's total message counter
func (r *RoomRepository) IncrementMessageCount(ctx context.Context, roomID string) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrRoomNotFound
	}

	update := bson.M{"$inc": bson.M{"stats.total_messages": 1}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to increment message count: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// AddPinned appends a pin; the filter rejects pinning the same message twice
func (r *RoomRepository) AddPinned(ctx context.Context, roomID string, pin model.PinnedMessage) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrRoomNotFound
	}

	filter := bson.M{"_id": oid, "pinned.message_id": bson.M{"$ne": pin.MessageID}}
	update := bson.M{
		"$push": bson.M{"pinned": pin},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add pinned message: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyPinned
	}

	return nil
}

// Archive soft-deletes a room; archived rooms are never removed
func (r *RoomRepository) Archive(ctx context.Context, roomID string) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrRoomNotFound
	}

	update := bson.M{"$set": bson.M{"is_archived": true, "is_joinable": false, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to archive room: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// Update rewrites mutable room attributes
func (r *RoomRepository) Update(ctx context.Context, room *model.Room) error {
	update := bson.M{"$set": bson.M{
		"name":        room.Name,
		"description": room.Description,
		"max_members": room.MaxMembers,
		"is_joinable": room.IsJoinable,
		"join_mode":   room.JoinMode,
		"updated_at":  time.Now(),
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": room.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// ListByMember retrieves all non-archived rooms a user belongs to
func (r *RoomRepository) ListByMember(ctx context.Context, userID string) ([]*model.Room, error) {
	filter := bson.M{"members.user_id": userID, "is_archived": false}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms by member: %w", err)
	}
	defer cur.Close(ctx)

	var rooms []*model.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}

	return rooms, nil
}

// ListPublic retrieves joinable public rooms (paginated)
func (r *RoomRepository) ListPublic(ctx context.Context, limit, offset int) ([]*model.Room, error) {
	filter := bson.M{
		"type":        bson.M{"$in": bson.A{model.RoomTypePublic, model.RoomTypeChannel}},
		"is_archived": false,
	}
	opts := options.Find().
		SetSort(bson.M{"member_count": -1}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list public rooms: %w", err)
	}
	defer cur.Close(ctx)

	var rooms []*model.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}

	return rooms, nil
}
