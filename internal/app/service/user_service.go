package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/internal/app/repository"
	"github.com/fuboru/panel-backend/internal/session"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/fuboru/panel-backend/pkg/util"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
)

type UserInput struct {
	Name     string
	Email    string
	Password string
}

type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, input UserInput) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	userRepo repository.UserRepository
	revoker  session.Revoker
	bus      session.Bus
	tokenTTL time.Duration
}

// NewUserService builds the user admin service. tokenTTL is the longest
// lifetime of any issued token; revocations of deleted users last that long.
func NewUserService(userRepo repository.UserRepository, revoker session.Revoker, bus session.Bus, tokenTTL time.Duration) UserService {
	return &userService{
		userRepo: userRepo,
		revoker:  revoker,
		bus:      bus,
		tokenTTL: tokenTTL,
	}
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.FindAll(ctx)
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, input UserInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		logger.Warn("User creation failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         input.Name,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	logger.Info("User created", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

// Delete removes the account and revokes every token issued to it.
func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	now := time.Now()
	userID := id.String()
	if err := s.revoker.RevokeUser(ctx, userID, now, s.tokenTTL); err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, session.Event{Type: session.EventUserDeleted, UserID: userID, At: now}); err != nil {
		logger.Warn("Failed to publish user deletion", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
	return nil
}
