package handler

import (
	"github.com/codehive/chat/internal/dto/request"
	"github.com/codehive/chat/internal/dto/response"
	"github.com/codehive/chat/internal/middleware"
	"github.com/codehive/chat/internal/model"
	"github.com/codehive/chat/internal/pkg/utils"
	"github.com/codehive/chat/internal/service"
	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
	}
}

// Create godoc
// @Summary Create a room
// @Description Create a new chat room; the creator becomes its owner
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request.CreateRoomRequest true "Room data"
// @Success 201 {object} response.Response{data=response.RoomDetailResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req request.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	v := utils.NewValidator()
	v.ValidateRoomName("name", req.Name)
	if v.HasErrors() {
		response.ValidationError(c, v.Errors())
		return
	}

	roomType := model.RoomTypePublic
	if req.Type != "" {
		roomType = model.RoomType(req.Type)
	}

	room, err := h.roomService.Create(c.Request.Context(), &service.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        roomType,
		OwnerID:     middleware.GetUserID(c),
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, response.NewRoomDetailResponse(room))
}

// List godoc
// @Summary List public rooms
// @Description Browse public rooms
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response{data=response.RoomListResponse}
// @Router /api/v1/rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	var p request.PaginationRequest
	if err := c.ShouldBindQuery(&p); err != nil {
		response.BadRequest(c, "invalid pagination parameters")
		return
	}

	rooms, err := h.roomService.ListPublic(c.Request.Context(), p.Limit, p.Offset())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomListResponse(rooms))
}

// ListMine godoc
// @Summary List my rooms
// @Description Rooms the authenticated user is a member of
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=response.RoomListResponse}
// @Router /api/v1/rooms/mine [get]
func (h *RoomHandler) ListMine(c *gin.Context) {
	rooms, err := h.roomService.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomListResponse(rooms))
}

// Get godoc
// @Summary Get room details
// @Description Full room state including members and pinned messages
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response{data=response.RoomDetailResponse}
// @Failure 404 {object} response.Response
// @Router /api/v1/rooms/{id} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.roomService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomDetailResponse(room))
}

// Update godoc
// @Summary Update a room
// @Description Change name, description or member cap
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param request body request.UpdateRoomRequest true "Fields to update"
// @Success 200 {object} response.Response{data=response.RoomDetailResponse}
// @Failure 403 {object} response.Response
// @Router /api/v1/rooms/{id} [patch]
func (h *RoomHandler) Update(c *gin.Context) {
	var req request.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	room, err := h.roomService.Update(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Name, req.Description, req.MaxMembers)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomDetailResponse(room))
}

// Join godoc
// @Summary Join a room
// @Description Join an open room over HTTP (presence comes from the socket layer)
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response{data=response.RoomDetailResponse}
// @Failure 403 {object} response.Response
// @Failure 410 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/rooms/{id}/join [post]
func (h *RoomHandler) Join(c *gin.Context) {
	room, _, err := h.roomService.Join(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomDetailResponse(room))
}

// Leave godoc
// @Summary Leave a room
// @Description Remove the authenticated user's membership
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response
// @Router /api/v1/rooms/{id}/leave [post]
func (h *RoomHandler) Leave(c *gin.Context) {
	_, _, err := h.roomService.Leave(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "left room", nil)
}

// Members godoc
// @Summary List room members
// @Description Membership roster with roles and online flags
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response{data=[]response.RoomMemberResponse}
// @Failure 404 {object} response.Response
// @Router /api/v1/rooms/{id}/members [get]
func (h *RoomHandler) Members(c *gin.Context) {
	room, err := h.roomService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	members := make([]*response.RoomMemberResponse, len(room.Members))
	for i := range room.Members {
		members[i] = response.NewRoomMemberResponse(&room.Members[i])
	}

	response.Success(c, members)
}

// Archive godoc
// @Summary Archive a room
// @Description Archive a room; archived rooms refuse joins and messages
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/rooms/{id}/archive [post]
func (h *RoomHandler) Archive(c *gin.Context) {
	if err := h.roomService.Archive(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "room archived", nil)
}
