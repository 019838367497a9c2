package handler

import (
	"github.com/codehive/chat/internal/dto/response"
	"github.com/codehive/chat/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Get godoc
// @Summary Get a user profile
// @Description Public profile for a user id
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=response.ProfileResponse}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewProfileResponse(user.ToProfile()))
}

// GetMany godoc
// @Summary Resolve user profiles
// @Description Public profiles for a set of user ids
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param ids query []string true "User IDs"
// @Success 200 {object} response.Response{data=[]response.ProfileResponse}
// @Router /api/v1/users [get]
func (h *UserHandler) GetMany(c *gin.Context) {
	ids := c.QueryArray("ids")
	if len(ids) == 0 {
		response.BadRequest(c, "ids parameter is required")
		return
	}

	profiles, err := h.userService.GetProfiles(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]*response.ProfileResponse, len(profiles))
	for i, p := range profiles {
		resp[i] = response.NewProfileResponse(p)
	}

	response.Success(c, resp)
}
