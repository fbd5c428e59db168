package controller

import (
	"errors"
	"net/http"

	"github.com/fuboru/panel-backend/internal/app/service"
	apperrors "github.com/fuboru/panel-backend/internal/errors"
	"github.com/fuboru/panel-backend/internal/middleware"
	"github.com/fuboru/panel-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

type UserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (r UserRequest) input() service.UserInput {
	return service.UserInput{Name: r.Name, Email: r.Email, Password: r.Password}
}

// GET /api/v1/users
func (ctrl *UserController) List(c *gin.Context) {
	users, err := ctrl.userService.List(c.Request.Context())
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// GET /api/v1/users/:id
func (ctrl *UserController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := ctrl.userService.Get(c.Request.Context(), id)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Create adds another panel operator
// POST /api/v1/users
func (ctrl *UserController) Create(c *gin.Context) {
	var req UserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.userService.Create(c.Request.Context(), req.input())
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User created", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Delete removes an operator and revokes every session they hold
// DELETE /api/v1/users/:id
func (ctrl *UserController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if current, ok := middleware.GetUserID(c); ok && current == id.String() {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "You cannot delete your own account")
		return
	}

	if err := ctrl.userService.Delete(c.Request.Context(), id); err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (ctrl *UserController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.UserNotFound, "User not found")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email is already in use")
	case errors.Is(err, util.ErrPasswordTooLong):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Password must be at most 72 bytes")
	default:
		middleware.GetLoggerFromContext(c).Error("User request failed", err)
		apperrors.RespondWithParsedError(c, err, "user")
	}
}
