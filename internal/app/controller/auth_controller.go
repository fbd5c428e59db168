package controller

import (
	"errors"
	"net/http"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/internal/app/service"
	apperrors "github.com/fuboru/panel-backend/internal/errors"
	"github.com/fuboru/panel-backend/internal/middleware"
	ws "github.com/fuboru/panel-backend/internal/websocket"
	"github.com/fuboru/panel-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type AuthController struct {
	authService service.AuthService
	hub         *ws.Hub
	upgrader    websocket.Upgrader
}

func NewAuthController(authService service.AuthService, hub *ws.Hub, allowedOrigins []string) *AuthController {
	return &AuthController{
		authService: authService,
		hub:         hub,
		upgrader:    ws.NewUpgrader(allowedOrigins),
	}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func userPayload(user *model.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	}
}

// Login signs an operator in
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Warn("Login failed: invalid credentials", map[string]interface{}{
				"email": req.Email,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.RespondWithParsedError(c, err, "login")
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"user":   userPayload(user),
		"tokens": tokens,
	})
}

// SignUp creates an operator account when sign-up is enabled
// POST /api/v1/auth/signup
func (ctrl *AuthController) SignUp(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.SignUp(c.Request.Context(), service.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSignupDisabled):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthSignupDisabled, "Sign-up is disabled")
		case errors.Is(err, service.ErrEmailAlreadyExists):
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email is already in use")
		case errors.Is(err, util.ErrPasswordTooLong):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Password must be at most 72 bytes")
		default:
			log.Error("Sign-up failed", err)
			apperrors.RespondWithParsedError(c, err, "user")
		}
		return
	}

	log.Info("User signed up", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"user":   userPayload(user),
		"tokens": tokens,
	})
}

// Logout revokes the current session
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.SignOut(c.Request.Context(), identity); err != nil {
		middleware.GetLoggerFromContext(c).Error("Logout failed", err, map[string]interface{}{
			"user_id": identity.UserID,
		})
		apperrors.RespondWithParsedError(c, err, "session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Session returns the identity behind the current token
// GET /api/v1/auth/session
func (ctrl *AuthController) Session(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": identity})
}

// Refresh exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.GetLoggerFromContext(c).Warn("Token refresh rejected", map[string]interface{}{
			"error": err.Error(),
		})
		if errors.Is(err, util.ErrExpiredToken) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Refresh token has expired")
			return
		}
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Events streams auth-state changes for the caller over a websocket
// GET /api/v1/auth/events
func (ctrl *AuthController) Events(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, identity.UserID, identity.SessionID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id":    identity.UserID,
		"session_id": identity.SessionID,
	})
}
