package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/gavinvoiceai/meetflow-saas/pkg/log"
	"github.com/gavinvoiceai/meetflow-saas/pkg/middleware"
	"github.com/gavinvoiceai/meetflow-saas/pkg/response"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/domain"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/repository"
	"github.com/gavinvoiceai/meetflow-saas/user-service/internal/service"
)

// Handler handles HTTP requests for user service.
type Handler struct {
	userService    service.UserService
	authMiddleware *middleware.AuthMiddleware
}

func NewHandler(userService service.UserService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		userService:    userService,
		authMiddleware: authMiddleware,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/refresh", h.RefreshToken)
			auth.POST("/logout", h.authMiddleware.RequireAuth(), h.Logout)
			auth.GET("/me", h.authMiddleware.RequireAuth(), h.GetMe)
		}

		users := api.Group("/users")
		users.Use(h.authMiddleware.RequireAuth())
		{
			users.GET("/me", h.GetMe)
			users.PUT("/me", h.UpdateMe)
			users.PUT("/me/password", h.ChangePassword)
		}
	}
}

func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			response.Conflict(c, "email already exists")
			return
		}
		l.Error().Err(err).Msg("register failed")
		response.InternalError(c, "failed to register user")
		return
	}

	response.Created(c, result)
}

func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, result)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid refresh token request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.RefreshToken(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid or expired refresh token")
			return
		}
		l.Error().Err(err).Msg("refresh token failed")
		response.InternalError(c, "failed to refresh token")
		return
	}

	response.Success(c, result)
}

// Logout revokes the presented access token. The body is optional.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req domain.LogoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	if err := h.userService.Logout(ctx, claims, req.RefreshToken); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("logout failed")
		response.InternalError(c, "failed to logout")
		return
	}

	response.Success(c, gin.H{"message": "logged out successfully"})
}

func (h *Handler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("get user failed")
		response.InternalError(c, "failed to get user")
		return
	}

	response.Success(c, user)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid update request")
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateUser(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("update user failed")
		response.InternalError(c, "failed to update user")
		return
	}

	response.Success(c, user)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid change password request")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.userService.ChangePassword(ctx, userID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, service.ErrWrongPassword):
			response.BadRequest(c, "current password is incorrect")
		default:
			l.Error().Err(err).Str(log.FieldUserID, userID).Msg("change password failed")
			response.InternalError(c, "failed to change password")
		}
		return
	}

	response.Success(c, gin.H{"message": "password changed successfully"})
}
