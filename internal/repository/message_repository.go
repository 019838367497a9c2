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
	ErrMessageNotFound = errors.New("message not found")
	ErrMessageDeleted  = errors.New("message is deleted")
)

type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection("messages")}
}

// Create inserts a new message
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.Reactions == nil {
		msg.Reactions = []model.Reaction{}
	}
	if msg.EditHistory == nil {
		msg.EditHistory = []model.EditRecord{}
	}

	res, err := r.coll.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	msg.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID retrieves a message by its hex id
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMessageNotFound
	}

	var msg model.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}

	return &msg, nil
}

// UpdateContent replaces the content after pushing the prior content onto the
// edit history, in one document-atomic update. Deleted messages are not
// editable.
func (r *MessageRepository) UpdateContent(ctx context.Context, id, content string, rec model.EditRecord) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrMessageNotFound
	}

	filter := bson.M{"_id": oid, "is_deleted": false}
	update := bson.M{
		"$push": bson.M{"edit_history": rec},
		"$set": bson.M{
			"content":    content,
			"is_edited":  true,
			"updated_at": time.Now(),
		},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update message content: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// SetReactions rewrites the reaction list
func (r *MessageRepository) SetReactions(ctx context.Context, id string, reactions []model.Reaction) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrMessageNotFound
	}

	update := bson.M{"$set": bson.M{"reactions": reactions, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to set reactions: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// SoftDelete flags the message without touching its content, which is
// retained for audit
func (r *MessageRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrMessageNotFound
	}

	update := bson.M{"$set": bson.M{
		"is_deleted": true,
		"deleted_at": at,
		"updated_at": at,
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to soft delete message: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// SetPinned flips the pinned flag
func (r *MessageRepository) SetPinned(ctx context.Context, id string, pinned bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrMessageNotFound
	}

	update := bson.M{"$set": bson.M{"is_pinned": pinned, "updated_at": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to set pinned flag: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// ListByRoom retrieves messages for a room in chronological order. Deleted
// messages are excluded unless includeDeleted is set (moderation view).
func (r *MessageRepository) ListByRoom(ctx context.Context, roomID string, limit, offset int, includeDeleted bool) ([]*model.Message, error) {
	filter := bson.M{"room_id": roomID}
	if !includeDeleted {
		filter["is_deleted"] = false
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cur.Close(ctx)

	var messages []*model.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// CountByRoom counts non-deleted messages in a room
func (r *MessageRepository) CountByRoom(ctx context.Context, roomID string) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"room_id": roomID, "is_deleted": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return int(count), nil
}
