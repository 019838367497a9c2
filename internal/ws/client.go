package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/codehive/chat/internal/pkg/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Send buffer size
	sendBufferSize = 256

	// Inbound event budget per connection
	eventRate  = 20
	eventBurst = 40
)

// Client represents a WebSocket client connection. Room membership is
// tracked by the hub's registry, not by the client.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	userID      string
	username    string
	displayName string
	limiter     *rate.Limiter

	// closeMu orders Send against Close. A broadcaster may still hold
	// this client in a presence snapshot taken just before teardown;
	// queueing into a closed channel would panic, so Send checks the
	// flag under the lock instead.
	closeMu sync.RWMutex
	closed  bool

	logger *zap.Logger
}

// NewClient creates a new client
func NewClient(hub *Hub, conn *websocket.Conn, userID, username, displayName string, logger *zap.Logger) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		userID:      userID,
		username:    username,
		displayName: displayName,
		limiter:     rate.NewLimiter(eventRate, eventBurst),
		logger:      logger,
	}
}

// GetUserID returns client's user ID
func (c *Client) GetUserID() string {
	return c.userID
}

// GetUsername returns client's username
func (c *Client) GetUsername() string {
	return c.username
}

// ReadPump pumps events from the WebSocket connection to the hub.
// Events from one connection are handled in arrival order.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.String("user_id", c.userID),
					zap.Error(err),
				)
			}
			break
		}

		if !c.limiter.Allow() {
			metrics.RateLimitHits.WithLabelValues("ws").Inc()
			c.sendError(429, "too many events, slow down")
			continue
		}

		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Warn("Failed to parse event",
				zap.String("user_id", c.userID),
				zap.Error(err),
			)
			c.sendError(400, "invalid event format")
			continue
		}

		c.handleEvent(&evt)
	}
}

// WritePump pumps events from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued events to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvent validates the payload for the event type before handing
// anything to the hub. Unknown event types are rejected here.
func (c *Client) handleEvent(evt *Event) {
	metrics.EventsReceived.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case EventJoinRoom:
		var payload JoinRoomPayload
		if !c.parse(evt, &payload) {
			return
		}
		c.hub.JoinRoom(c, payload)

	case EventLeaveRoom:
		var payload LeaveRoomPayload
		if !c.parse(evt, &payload) {
			return
		}
		c.hub.LeaveRoom(c, payload)

	case EventSendMessage:
		var payload SendMessagePayload
		if !c.parse(evt, &payload) {
			return
		}
		c.hub.SendMessage(c, payload, evt.RequestID)

	case EventTyping:
		var payload TypingPayload
		if !c.parse(evt, &payload) {
			return
		}
		c.hub.Typing(c, payload)

	case EventAddReaction:
		var payload ReactionPayload
		if !c.parse(evt, &payload) {
			return
		}
		c.hub.AddReaction(c, payload)

	case EventEditMessage:
		var payload EditMessagePayload
		if !c.parse(evt, &payload) {
			return
		}
		c.hub.EditMessage(c, payload)

	case EventDeleteMessage:
		var payload MessageRefPayload
		if !c.parse(evt, &payload) {
			return
		}
		c.hub.DeleteMessage(c, payload)

	case EventPinMessage:
		var payload MessageRefPayload
		if !c.parse(evt, &payload) {
			return
		}
		c.hub.PinMessage(c, payload)

	case EventPing:
		pong, _ := NewEvent(EventPong, nil)
		c.SendEvent(pong)

	default:
		metrics.EventErrors.WithLabelValues(string(evt.Type)).Inc()
		c.sendError(400, "unknown event type")
	}
}

// validatedPayload is the shape every inbound payload satisfies
type validatedPayload interface {
	Validate() error
}

func (c *Client) parse(evt *Event, payload validatedPayload) bool {
	if err := evt.ParsePayload(payload); err != nil {
		metrics.EventErrors.WithLabelValues(string(evt.Type)).Inc()
		c.sendError(400, "invalid event payload")
		return false
	}
	if err := payload.Validate(); err != nil {
		metrics.EventErrors.WithLabelValues(string(evt.Type)).Inc()
		c.sendError(400, err.Error())
		return false
	}
	return true
}

// SendEvent marshals and queues an event for this client
func (c *Client) SendEvent(evt *Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		c.logger.Error("Failed to marshal event",
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
		return
	}
	c.Send(data)
}

// Send queues pre-marshalled bytes without blocking. A slow client
// drops the delivery rather than stalling the caller, and a client
// already torn down drops it silently.
func (c *Client) Send(data []byte) {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		metrics.DroppedDeliveries.Inc()
		c.logger.Warn("Client send buffer full",
			zap.String("user_id", c.userID),
		)
	}
}

// sendError sends an error event to this client only
func (c *Client) sendError(code int, message string) {
	errEvt, _ := NewErrorEvent(code, message)
	c.SendEvent(errEvt)
}

// Close closes the client's send channel. Safe to call more than once
// and safe against concurrent Send.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
