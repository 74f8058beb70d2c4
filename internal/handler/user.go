package handler

import (
	"net/http"

	"github.com/ahlanjobb/api/internal/constants"
	"github.com/ahlanjobb/api/internal/dto"
	"github.com/ahlanjobb/api/internal/service"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{userService: service}
}

// Create registers an account on behalf of the signed in staff member.
func (h *UserHandler) Create(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "CreateUser")

	owner, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	user, err := h.userService.Create(ctx, owner, req)
	if err != nil {
		respondError(ctx, c, "Create user", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.ResponseFieldMessage: constants.MsgUserCreatedWithAccount,
		"user":                         user,
	})
}

func (h *UserHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "GetByID")

	id, ok := paramID(ctx, c)
	if !ok {
		return
	}

	logger.DebugWithContext(ctx, "Processing get user by ID").
		Uint("user_id", id).
		Log()

	user, err := h.userService.Get(ctx, id)
	if err != nil {
		respondError(ctx, c, "Fetch user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateSelf updates the profile of the signed in user.
func (h *UserHandler) UpdateSelf(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateSelf")

	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	response, err := h.userService.UpdateSelf(ctx, user.ID, req)
	if err != nil {
		respondError(ctx, c, "Update profile", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateUser")

	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(ctx, c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	response, err := h.userService.UpdateUser(ctx, requester, id, req)
	if err != nil {
		respondError(ctx, c, "Update user", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *UserHandler) Delete(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "DeleteUser")

	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(ctx, c)
	if !ok {
		return
	}

	if err := h.userService.Delete(ctx, requester, id); err != nil {
		respondError(ctx, c, "Delete user", err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgDeleted))
}

func (h *UserHandler) ToggleDisable(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ToggleDisable")

	requester, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(ctx, c)
	if !ok {
		return
	}

	user, err := h.userService.ToggleDisable(ctx, requester, id)
	if err != nil {
		respondError(ctx, c, "Toggle user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.ResponseFieldMessage: constants.MsgUserDisabledToggled,
		"user":                         user,
	})
}

// List searches the users the signed in staff member can see.
func (h *UserHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ListUsers")

	requester, ok := currentUser(c)
	if !ok {
		return
	}

	var filter dto.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(ctx, c, err)
		return
	}

	logger.DebugWithContext(ctx, "Listing users").
		String("role", string(filter.Role)).
		Int("page", filter.Page).
		Int("limit", filter.Limit).
		Log()

	response, err := h.userService.List(ctx, requester, filter)
	if err != nil {
		respondError(ctx, c, "List users", err)
		return
	}

	c.JSON(http.StatusOK, response)
}
