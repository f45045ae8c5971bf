package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "user-management-backend/internal/common/errors"
	"user-management-backend/internal/common/middleware"
	"user-management-backend/internal/features/user/mapper"
	"user-management-backend/internal/features/user/models"
	"user-management-backend/internal/features/user/service"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes mounts /users. requireAuth must authenticate the caller.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	wrap := middleware.HandleErrorWrapper()

	users := router.Group("/users", requireAuth)
	{
		users.GET("/me", wrap(h.getMe))
		users.PUT("/me/profile", wrap(h.updateProfile))
	}

	staff := users.Group("", middleware.RequireRole(models.RoleManager, models.RoleAdmin))
	{
		staff.GET("", wrap(h.ListUsers))
		staff.POST("", wrap(h.CreateUser))
		staff.GET("/:id", wrap(h.GetUser))
		staff.PUT("/:id", wrap(h.UpdateUser))
		staff.DELETE("/:id", wrap(h.DeleteUser))
		staff.PUT("/:id/professional-status", wrap(h.UpdateProfessionalStatus))
		staff.POST("/:id/reset-password", wrap(h.ResetPassword))
		staff.POST("/:id/unlock", wrap(h.UnlockAccount))
	}
}

// @Summary Get current user
// @Description Returns the authenticated user's profile.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} models.ErrorResponse "Could not validate credentials"
// @Router /users/me [get]
func (h *UserHandler) getMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperrors.NewUnauthorizedError("Could not validate credentials"))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

// @Summary Update own profile
// @Description Updates names, bio, location, profile links, nickname or password of the caller.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body models.ProfileUpdate true "Profile fields to change"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse "Validation error or empty update"
// @Failure 401 {object} models.ErrorResponse "Could not validate credentials"
// @Failure 409 {object} models.ErrorResponse "Nickname already exists"
// @Router /users/me/profile [put]
func (h *UserHandler) updateProfile(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperrors.NewUnauthorizedError("Could not validate credentials"))
		return
	}

	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), current.ID, req)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

// @Summary List users
// @Description Paginated list of users, oldest first.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Number of users to skip" default(0)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.UserListResponse
// @Failure 401 {object} models.ErrorResponse "Could not validate credentials"
// @Failure 403 {object} models.ErrorResponse "Operation not permitted"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		_ = c.Error(apperrors.NewValidationError("skip", "must be a non-negative integer"))
		return
	}
	limit, err := queryInt(c, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		_ = c.Error(apperrors.NewValidationError("limit", "must be between 1 and 100"))
		return
	}

	users, total, err := h.service.List(c.Request.Context(), skip, limit)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserListResponse(users, c.Request.URL.Path, skip, limit, total))
}

// @Summary Create user
// @Description Creates an account on behalf of someone. A verification email is sent.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body models.UserCreate true "New user"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 403 {object} models.ErrorResponse "Operation not permitted"
// @Failure 409 {object} models.ErrorResponse "Email or nickname already exists"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusCreated, mapper.ToUserResponse(user))
}

// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} models.UserResponse
// @Failure 403 {object} models.ErrorResponse "Operation not permitted"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

// @Summary Update user
// @Description Partial update of any user field, including role and professional status.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Param user body models.UserUpdate true "Fields to change"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse "Validation error or empty update"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 409 {object} models.ErrorResponse "Email or nickname already exists"
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req models.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Success 204 "User deleted"
// @Failure 401 {object} models.ErrorResponse "Could not validate credentials"
// @Failure 403 {object} models.ErrorResponse "Operation not permitted"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Upgrade or downgrade professional status
// @Description Sets is_professional and notifies the user.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Param status body models.ProfessionalStatusUpdate true "New status"
// @Success 200 {object} models.UserResponse
// @Failure 403 {object} models.ErrorResponse "Operation not permitted"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/{id}/professional-status [put]
func (h *UserHandler) UpdateProfessionalStatus(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req models.ProfessionalStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	user, err := h.service.SetProfessionalStatus(c.Request.Context(), id, *req.IsProfessional)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

// @Summary Reset password
// @Description Sets a new password, clears failed attempts and unlocks the account.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Param password body models.ResetPasswordRequest true "New password"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse "Password policy violation"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	user, err := h.service.ResetPassword(c.Request.Context(), id, req.NewPassword)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

// @Summary Unlock account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/{id}/unlock [post]
func (h *UserHandler) UnlockAccount(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.service.UnlockAccount(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("id", "Invalid user ID format"))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func invalidBody(err error) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body").
		WithDetail("reason", err.Error())
}
