package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "user-management-backend/internal/common/errors"
	"user-management-backend/internal/common/middleware"
	"user-management-backend/internal/features/auth/models"
	"user-management-backend/internal/features/auth/service"
	"user-management-backend/internal/features/auth/token"
	"user-management-backend/internal/features/user/mapper"
	usermodels "user-management-backend/internal/features/user/models"
	userservice "user-management-backend/internal/features/user/service"
)

type AuthHandler struct {
	auth  service.AuthService
	users userservice.UserService
}

func NewAuthHandler(auth service.AuthService, users userservice.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	wrap := middleware.HandleErrorWrapper()

	router.POST("/register", wrap(h.Register))
	router.POST("/login", wrap(h.Login))
	router.POST("/login/telegram", wrap(h.LoginTelegram))
	router.GET("/verify-email/:id/:token", wrap(h.VerifyEmail))
	router.POST("/logout", requireAuth, wrap(h.Logout))
	router.POST("/users/me/telegram", requireAuth, wrap(h.LinkTelegram))
}

// @Summary Register
// @Description Self registration. The first account becomes a verified administrator; others must verify their email.
// @Tags auth
// @Accept json
// @Produce json
// @Param user body usermodels.UserCreate true "Registration data"
// @Success 201 {object} usermodels.UserResponse
// @Failure 400 {object} usermodels.ErrorResponse "Validation error"
// @Failure 409 {object} usermodels.ErrorResponse "Email or nickname already exists"
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req usermodels.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusCreated, mapper.ToUserResponse(user))
}

// @Summary Login
// @Description Exchanges email and password for a bearer token. Accepts an OAuth2 password form (username, password) or JSON.
// @Tags auth
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Param username formData string false "Email"
// @Param password formData string false "Password"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} usermodels.ErrorResponse "Account locked"
// @Failure 401 {object} usermodels.ErrorResponse "Incorrect email or password"
// @Failure 403 {object} usermodels.ErrorResponse "Email not verified"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Login with Telegram
// @Description Exchanges signed Telegram Mini App init data for a bearer token. The Telegram account must be linked to a user.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.TelegramLoginRequest true "Init data"
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} usermodels.ErrorResponse "Invalid init data"
// @Failure 404 {object} usermodels.ErrorResponse "No linked user"
// @Router /login/telegram [post]
func (h *AuthHandler) LoginTelegram(c *gin.Context) {
	var req models.TelegramLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	resp, err := h.auth.LoginWithTelegram(c.Request.Context(), req.InitData)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Link Telegram account
// @Description Links the Telegram account proven by signed Mini App init data to the current user.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TelegramLoginRequest true "Init data"
// @Success 200 {object} usermodels.UserResponse
// @Failure 401 {object} usermodels.ErrorResponse "Invalid init data"
// @Failure 409 {object} usermodels.ErrorResponse "Telegram account already linked"
// @Router /users/me/telegram [post]
func (h *AuthHandler) LinkTelegram(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(service.ToAppError(token.ErrInvalidToken))
		return
	}

	var req models.TelegramLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidBody(err))
		return
	}

	user, err := h.auth.LinkTelegram(c.Request.Context(), current.ID, req.InitData)
	if err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, mapper.ToUserResponse(user))
}

// @Summary Logout
// @Description Revokes the presented bearer token.
// @Tags auth
// @Security BearerAuth
// @Success 204 "Logged out"
// @Failure 401 {object} usermodels.ErrorResponse "Could not validate credentials"
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		_ = c.Error(service.ToAppError(token.ErrInvalidToken))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Verify email
// @Tags auth
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param token path string true "Verification token"
// @Success 200 {object} usermodels.MessageResponse
// @Failure 400 {object} usermodels.ErrorResponse "Invalid or expired verification token"
// @Router /verify-email/{id}/{token} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(service.ToAppError(userservice.ErrInvalidVerificationToken))
		return
	}

	if err := h.users.VerifyEmail(c.Request.Context(), id, c.Param("token")); err != nil {
		if errors.Is(err, userservice.ErrUserNotFound) {
			err = userservice.ErrInvalidVerificationToken
		}
		_ = c.Error(service.ToAppError(err))
		return
	}
	c.JSON(http.StatusOK, usermodels.MessageResponse{Message: "Email verified successfully"})
}

func invalidBody(err error) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body").
		WithDetail("reason", err.Error())
}
