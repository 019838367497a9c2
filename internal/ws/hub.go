package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codehive/chat/internal/model"
	apperrors "github.com/codehive/chat/internal/pkg/errors"
	"github.com/codehive/chat/internal/pkg/metrics"
	"github.com/codehive/chat/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const opTimeout = 5 * time.Second

// frame is one room broadcast: the event is marshalled once and the
// same immutable bytes are delivered to every recipient.
type frame struct {
	roomID  string
	data    []byte
	exclude *Client // nil to include everyone
}

// relayEnvelope carries a frame between instances over Redis Pub/Sub
type relayEnvelope struct {
	Origin string          `json:"origin"`
	RoomID string          `json:"room_id"`
	Data   json.RawMessage `json:"data"`
}

// Hub owns the presence registry and applies every room-scoped event:
// validate membership and payload, persist through the services, update
// presence, then broadcast. Persistence failures abort before any
// broadcast; only the acting connection sees the error.
type Hub struct {
	id string

	registry *Registry

	// Register requests from connections
	register chan *Client

	// Unregister requests from connections
	unregister chan *Client

	roomService    *service.RoomService
	messageService *service.MessageService
	userService    *service.UserService

	// Redis for Pub/Sub across instances
	redis *redis.Client

	logger *zap.Logger
}

// NewHub creates a new Hub
func NewHub(
	roomService *service.RoomService,
	messageService *service.MessageService,
	userService *service.UserService,
	redisClient *redis.Client,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		id:             uuid.New().String(),
		registry:       NewRegistry(),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		roomService:    roomService,
		messageService: messageService,
		userService:    userService,
		redis:          redisClient,
		logger:         logger,
	}
}

// Registry exposes the presence registry for read-side consumers
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run starts the hub loop
func (h *Hub) Run() {
	go h.subscribeRelay()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	displaced := h.registry.Register(client.userID, client)
	if displaced != nil {
		// A reconnect replaces the old entry; close the stale
		// connection so it cannot linger as a silent duplicate.
		displaced.Close()
		h.logger.Info("Displaced stale connection",
			zap.String("user_id", client.userID),
		)
	}

	metrics.ConnectionsActive.Inc()
	h.logger.Info("Client connected",
		zap.String("user_id", client.userID),
		zap.String("username", client.username),
		zap.Int("total_clients", h.registry.Len()),
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if err := h.userService.UpdateStatus(ctx, client.userID, model.UserStatusOnline); err != nil {
			h.logger.Warn("Failed to set user online", zap.Error(err))
		}

		// Send the user's rooms on connect
		rooms, err := h.roomService.ListMine(ctx, client.userID)
		if err != nil {
			h.logger.Warn("Failed to list rooms on connect",
				zap.String("user_id", client.userID),
				zap.Error(err),
			)
			return
		}
		evt, _ := NewEvent(EventRoomsList, &RoomsListPayload{Rooms: rooms})
		client.SendEvent(evt)
	}()
}

// unregisterClient tears down presence for a closed connection. A
// connection that was never registered, was already removed, or was
// displaced by a reconnect produces no state changes and no broadcasts.
func (h *Hub) unregisterClient(client *Client) {
	rooms, ok := h.registry.RemoveClient(client)
	if !ok {
		client.Close()
		return
	}

	client.Close()
	metrics.ConnectionsActive.Dec()

	h.logger.Info("Client disconnected",
		zap.String("user_id", client.userID),
		zap.String("username", client.username),
	)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// A disconnect is not a leave: membership records stay, only the
	// online flag flips. One room failing must not skip the rest.
	for _, roomID := range rooms {
		if err := h.roomService.SetMemberOnline(ctx, roomID, client.userID, false); err != nil {
			h.logger.Warn("Failed to flip member offline",
				zap.String("room_id", roomID),
				zap.String("user_id", client.userID),
				zap.Error(err),
			)
		}

		evt, _ := NewEvent(EventUserOffline, &UserOfflinePayload{
			RoomID:   roomID,
			UserID:   client.userID,
			Username: client.username,
		})
		h.Broadcast(roomID, evt, nil)
	}

	if err := h.userService.UpdateStatus(ctx, client.userID, model.UserStatusOffline); err != nil {
		h.logger.Warn("Failed to set user offline", zap.Error(err))
	}
}

// JoinRoom handles a join-room event
func (h *Hub) JoinRoom(client *Client, payload JoinRoomPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	room, joined, err := h.roomService.Join(ctx, payload.RoomID, client.userID)
	if err != nil {
		h.sendEventError(client, EventJoinRoom, err)
		return
	}

	h.registry.AddRoom(client.userID, payload.RoomID)

	if err := h.roomService.SetMemberOnline(ctx, payload.RoomID, client.userID, true); err != nil {
		h.logger.Warn("Failed to flip member online",
			zap.String("room_id", payload.RoomID),
			zap.Error(err),
		)
	}
	h.roomService.RecordPeakOnline(ctx, payload.RoomID, h.registry.OnlineInRoom(payload.RoomID))

	// Full room state to the joining user
	joinedEvt, _ := NewEvent(EventRoomJoined, &RoomJoinedPayload{Room: room})
	client.SendEvent(joinedEvt)

	// Roster delta to the post-join membership, only when the user was
	// actually appended; re-joining an already-held membership stays quiet.
	if joined {
		rosterEvt, _ := NewEvent(EventUserJoined, &RosterDeltaPayload{
			RoomID:      payload.RoomID,
			UserID:      client.userID,
			Username:    client.username,
			DisplayName: client.displayName,
			MemberCount: room.MemberCount,
			Members:     room.Members,
		})
		h.Broadcast(payload.RoomID, rosterEvt, client)
	}

	h.logger.Debug("Client joined room",
		zap.String("user_id", client.userID),
		zap.String("room_id", payload.RoomID),
	)
}

// LeaveRoom handles a leave-room event. Leaving a room the user is not
// a member of is a no-op.
func (h *Hub) LeaveRoom(client *Client, payload LeaveRoomPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	room, removed, err := h.roomService.Leave(ctx, payload.RoomID, client.userID)
	if err != nil {
		h.sendEventError(client, EventLeaveRoom, err)
		return
	}

	h.registry.RemoveRoom(client.userID, payload.RoomID)

	if !removed {
		return
	}

	leftEvt, _ := NewEvent(EventUserLeft, &RosterDeltaPayload{
		RoomID:      payload.RoomID,
		UserID:      client.userID,
		Username:    client.username,
		DisplayName: client.displayName,
		MemberCount: room.MemberCount,
		Members:     room.Members,
	})
	// Confirmation to the leaver, then the delta to whoever remains
	client.SendEvent(leftEvt)
	h.Broadcast(payload.RoomID, leftEvt, client)

	h.logger.Debug("Client left room",
		zap.String("user_id", client.userID),
		zap.String("room_id", payload.RoomID),
	)
}

// SendMessage handles a send-message event
func (h *Hub) SendMessage(client *Client, payload SendMessagePayload, requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	msg, err := h.messageService.Send(ctx, &service.SendMessageInput{
		RoomID:    payload.RoomID,
		SenderID:  client.userID,
		Content:   payload.Content,
		Type:      messageType(payload.Type),
		ReplyToID: payload.ReplyToID,
		Mentions:  payload.Mentions,
	})
	if err != nil {
		h.sendEventError(client, EventSendMessage, err)
		return
	}

	if requestID != "" {
		ackEvt, _ := NewEvent(EventAck, &AckPayload{
			RequestID: requestID,
			Success:   true,
			MessageID: msg.ID.Hex(),
		})
		client.SendEvent(ackEvt)
	}

	// The sender receives the broadcast too; their own connection is
	// part of the room's delivery set.
	msgEvt, _ := NewEvent(EventNewMessage, &model.MessageWithSender{
		Message:     *msg,
		Username:    client.username,
		DisplayName: client.displayName,
	})
	h.Broadcast(payload.RoomID, msgEvt, nil)

	h.notifyMentions(client, msg)
}

// notifyMentions delivers a targeted event to each mentioned user with
// a live connection, outside the room broadcast.
func (h *Hub) notifyMentions(sender *Client, msg *model.Message) {
	for _, userID := range msg.Mentions {
		if userID == sender.userID {
			continue
		}
		target := h.registry.Get(userID)
		if target == nil {
			continue
		}

		evt, _ := NewEvent(EventMentioned, &MentionedPayload{
			RoomID:    msg.RoomID,
			MessageID: msg.ID.Hex(),
			SenderID:  sender.userID,
			Username:  sender.username,
			Preview:   preview(msg.Content),
		})
		target.SendEvent(evt)
	}
}

// Typing relays a typing indicator to the room, excluding the sender.
// Membership is validated against the persisted room like every other
// room-scoped event; nothing is persisted.
func (h *Hub) Typing(client *Client, payload TypingPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := h.roomService.MemberOf(ctx, payload.RoomID, client.userID); err != nil {
		h.sendEventError(client, EventTyping, err)
		return
	}

	evt, _ := NewEvent(EventUserTyping, &UserTypingPayload{
		RoomID:      payload.RoomID,
		UserID:      client.userID,
		Username:    client.username,
		DisplayName: client.displayName,
		IsTyping:    payload.IsTyping,
	})
	h.Broadcast(payload.RoomID, evt, client)
}

// AddReaction handles an add-reaction event (a toggle)
func (h *Hub) AddReaction(client *Client, payload ReactionPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, change, err := h.messageService.React(ctx, payload.RoomID, client.userID, payload.MessageID, payload.Emoji)
	if err != nil {
		h.sendEventError(client, EventAddReaction, err)
		return
	}

	evt, _ := NewEvent(EventReactionAdded, &ReactionAddedPayload{
		RoomID:    payload.RoomID,
		MessageID: payload.MessageID,
		Emoji:     change.Emoji,
		Count:     change.Count,
		UserID:    client.userID,
		Removed:   change.Removed,
	})
	h.Broadcast(payload.RoomID, evt, nil)
}

// EditMessage handles an edit-message event
func (h *Hub) EditMessage(client *Client, payload EditMessagePayload) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	msg, err := h.messageService.Edit(ctx, payload.RoomID, client.userID, payload.MessageID, payload.Content)
	if err != nil {
		h.sendEventError(client, EventEditMessage, err)
		return
	}

	evt, _ := NewEvent(EventMessageEdited, msg)
	h.Broadcast(payload.RoomID, evt, nil)
}

// DeleteMessage handles a delete-message event. The broadcast carries
// only the message id, never the deleted content.
func (h *Hub) DeleteMessage(client *Client, payload MessageRefPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := h.messageService.Delete(ctx, payload.RoomID, client.userID, payload.MessageID); err != nil {
		h.sendEventError(client, EventDeleteMessage, err)
		return
	}

	evt, _ := NewEvent(EventMessageDeleted, &MessageDeletedPayload{
		RoomID:    payload.RoomID,
		MessageID: payload.MessageID,
	})
	h.Broadcast(payload.RoomID, evt, nil)
}

// PinMessage handles a pin-message event
func (h *Hub) PinMessage(client *Client, payload MessageRefPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := h.messageService.Pin(ctx, payload.RoomID, client.userID, payload.MessageID); err != nil {
		h.sendEventError(client, EventPinMessage, err)
		return
	}

	evt, _ := NewEvent(EventMessagePinned, &MessagePinnedPayload{
		RoomID:    payload.RoomID,
		MessageID: payload.MessageID,
		PinnedBy:  client.userID,
	})
	h.Broadcast(payload.RoomID, evt, nil)
}

// Broadcast marshals the event once and delivers the same immutable
// bytes to every live connection in the room, minus the excluded
// client if any.
func (h *Hub) Broadcast(roomID string, evt *Event, exclude *Client) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast", zap.Error(err))
		return
	}

	h.broadcastToRoom(&frame{
		roomID:  roomID,
		data:    data,
		exclude: exclude,
	})

	h.publishRelay(roomID, data)
}

func (h *Hub) broadcastToRoom(f *frame) {
	clients := h.registry.MembersOf(f.roomID)
	metrics.BroadcastFanout.Observe(float64(len(clients)))

	for _, client := range clients {
		if client == f.exclude {
			continue
		}
		// Send never blocks; one dead recipient cannot stall the rest
		client.Send(f.data)
	}
}

// sendEventError maps a service failure onto an error event for the
// acting connection only. Other members never observe the attempt.
func (h *Hub) sendEventError(client *Client, event EventType, err error) {
	metrics.EventErrors.WithLabelValues(string(event)).Inc()
	client.sendError(apperrors.GetHTTPStatus(err), apperrors.GetMessage(err))
}

// Redis Pub/Sub relays room broadcasts between instances
func (h *Hub) publishRelay(roomID string, data []byte) {
	if h.redis == nil {
		return
	}

	env, err := json.Marshal(&relayEnvelope{
		Origin: h.id,
		RoomID: roomID,
		Data:   data,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := h.redis.Publish(ctx, "room:"+roomID, env).Err(); err != nil {
		h.logger.Warn("Failed to publish relay", zap.Error(err))
	}
}

func (h *Hub) subscribeRelay() {
	if h.redis == nil {
		return
	}

	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "room:*")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue
		}
		if env.Origin == h.id {
			continue
		}

		h.broadcastToRoom(&frame{
			roomID: env.RoomID,
			data:   env.Data,
		})
	}
}

// GetOnlineUsers returns online user IDs
func (h *Hub) GetOnlineUsers() []string {
	return h.registry.OnlineUsers()
}

// IsUserOnline checks if a user is online
func (h *Hub) IsUserOnline(userID string) bool {
	return h.registry.IsOnline(userID)
}

// GetStats returns hub statistics
func (h *Hub) GetStats() map[string]int {
	return map[string]int{
		"total_clients": h.registry.Len(),
	}
}

func messageType(s string) model.MessageType {
	switch s {
	case "image":
		return model.MessageTypeImage
	case "file":
		return model.MessageTypeFile
	case "voice":
		return model.MessageTypeVoice
	case "video":
		return model.MessageTypeVideo
	default:
		return model.MessageTypeText
	}
}

const previewLimit = 120

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "…"
}
