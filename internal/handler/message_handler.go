package handler

import (
	"github.com/codehive/chat/internal/dto/request"
	"github.com/codehive/chat/internal/dto/response"
	"github.com/codehive/chat/internal/middleware"
	"github.com/codehive/chat/internal/model"
	"github.com/codehive/chat/internal/service"
	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService *service.MessageService
	roomService    *service.RoomService
}

func NewMessageHandler(messageService *service.MessageService, roomService *service.RoomService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		roomService:    roomService,
	}
}

// History godoc
// @Summary Room message history
// @Description Chronological message page for a room
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Response{data=response.MessageListResponse}
// @Failure 403 {object} response.Response
// @Router /api/v1/rooms/{id}/messages [get]
func (h *MessageHandler) History(c *gin.Context) {
	var q request.HistoryRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	messages, err := h.messageService.List(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), q.Limit, q.Offset, q.IncludeDeleted)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewMessageListResponse(messages, len(messages), q.Limit, q.Offset))
}

// Send godoc
// @Summary Send a message
// @Description Persist a message over HTTP; broadcasts only reach socket clients
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param request body request.SendMessageRequest true "Message"
// @Success 201 {object} response.Response{data=response.MessageResponse}
// @Failure 403 {object} response.Response
// @Router /api/v1/rooms/{id}/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), &service.SendMessageInput{
		RoomID:    c.Param("id"),
		SenderID:  middleware.GetUserID(c),
		Content:   req.Content,
		Type:      model.MessageType(req.Type),
		ReplyToID: req.ReplyToID,
		Mentions:  req.Mentions,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, response.NewMessageResponse(msg))
}

// Edit godoc
// @Summary Edit a message
// @Description Replace content; the previous content goes to edit history
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param message_id path string true "Message ID"
// @Param request body request.UpdateMessageRequest true "New content"
// @Success 200 {object} response.Response{data=response.MessageResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/rooms/{id}/messages/{message_id} [patch]
func (h *MessageHandler) Edit(c *gin.Context) {
	var req request.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	msg, err := h.messageService.Edit(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("message_id"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewMessageResponse(msg))
}

// Delete godoc
// @Summary Delete a message
// @Description Soft delete; the content is retained but no longer served
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param message_id path string true "Message ID"
// @Success 204 {object} nil
// @Failure 403 {object} response.Response
// @Router /api/v1/rooms/{id}/messages/{message_id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.messageService.Delete(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("message_id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// React godoc
// @Summary Toggle a reaction
// @Description Add or remove the caller's reaction on a message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param message_id path string true "Message ID"
// @Param request body request.ReactionRequest true "Emoji"
// @Success 200 {object} response.Response{data=response.MessageResponse}
// @Failure 403 {object} response.Response
// @Router /api/v1/rooms/{id}/messages/{message_id}/reactions [post]
func (h *MessageHandler) React(c *gin.Context) {
	var req request.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	msg, _, err := h.messageService.React(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("message_id"), req.Emoji)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewMessageResponse(msg))
}

// Pin godoc
// @Summary Pin a message
// @Description Append the message to the room's pinned list
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param message_id path string true "Message ID"
// @Success 200 {object} response.Response{data=response.MessageResponse}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/rooms/{id}/messages/{message_id}/pin [post]
func (h *MessageHandler) Pin(c *gin.Context) {
	msg, err := h.messageService.Pin(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("message_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewMessageResponse(msg))
}

// Pins godoc
// @Summary List pinned messages
// @Description The room's pinned message references
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/rooms/{id}/pins [get]
func (h *MessageHandler) Pins(c *gin.Context) {
	room, err := h.roomService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, room.Pinned)
}
