package service

import (
	"context"
	"errors"
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
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSignupDisabled     = errors.New("sign-up is disabled")
)

type AuthConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	AllowSignup   bool
}

type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error)
	SignUp(ctx context.Context, input UserInput) (*model.User, *util.TokenPair, error)
	SignOut(ctx context.Context, identity *session.Identity) error
	GetSession(ctx context.Context, accessToken string) (*session.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
}

type authService struct {
	userRepo    repository.UserRepository
	userService UserService
	cache       *session.Cache
	revoker     session.Revoker
	bus         session.Bus
	cfg         AuthConfig
}

func NewAuthService(
	userRepo repository.UserRepository,
	userService UserService,
	cache *session.Cache,
	revoker session.Revoker,
	bus session.Bus,
	cfg AuthConfig,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		userService: userService,
		cache:       cache,
		revoker:     revoker,
		bus:         bus,
		cfg:         cfg,
	}
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error) {
	logger.Info("Sign-in attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Sign-in failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Sign-in failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *authService) SignUp(ctx context.Context, input UserInput) (*model.User, *util.TokenPair, error) {
	if !s.cfg.AllowSignup {
		return nil, nil, ErrSignupDisabled
	}

	user, err := s.userService.Create(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *authService) startSession(ctx context.Context, user *model.User) (*util.TokenPair, error) {
	sessionID := uuid.New().String()
	tokens, err := util.GenerateTokenPair(
		user.ID.String(),
		user.Email,
		user.Name,
		sessionID,
		s.cfg.Secret,
		s.cfg.AccessExpiry,
		s.cfg.RefreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	now := time.Now()
	user.LastSignInAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		logger.Warn("Failed to record sign-in time", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	s.publish(ctx, session.Event{Type: session.EventSignedIn, UserID: user.ID.String(), SessionID: sessionID, At: now})

	logger.Info("User signed in", map[string]interface{}{
		"user_id":    user.ID,
		"session_id": sessionID,
	})
	return tokens, nil
}

// SignOut revokes the session for as long as its refresh token would live.
func (s *authService) SignOut(ctx context.Context, identity *session.Identity) error {
	ttl := time.Until(identity.IssuedAt.Add(s.cfg.RefreshExpiry))
	if err := s.revoker.RevokeSession(ctx, identity.SessionID, ttl); err != nil {
		return err
	}

	s.cache.Apply(session.Event{Type: session.EventSignedOut, UserID: identity.UserID, SessionID: identity.SessionID})
	s.publish(ctx, session.Event{Type: session.EventSignedOut, UserID: identity.UserID, SessionID: identity.SessionID})

	logger.Info("User signed out", map[string]interface{}{
		"user_id":    identity.UserID,
		"session_id": identity.SessionID,
	})
	return nil
}

func (s *authService) GetSession(ctx context.Context, accessToken string) (*session.Identity, error) {
	return s.cache.Load(ctx, accessToken)
}

// Refresh issues a new token pair for the same session.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.cfg.Secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}

	revoked, err := s.revoker.IsSessionRevoked(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, session.ErrSessionRevoked
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, util.ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrSessionRevoked
		}
		return nil, err
	}

	return util.GenerateTokenPair(
		user.ID.String(),
		user.Email,
		user.Name,
		claims.SessionID(),
		s.cfg.Secret,
		s.cfg.AccessExpiry,
		s.cfg.RefreshExpiry,
	)
}

func (s *authService) publish(ctx context.Context, event session.Event) {
	if err := s.bus.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish auth event", map[string]interface{}{
			"type":  event.Type,
			"error": err.Error(),
		})
	}
}
