package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-tenant-catalog/internal/model"
	"go-tenant-catalog/internal/repository"
	"go-tenant-catalog/internal/security/ratelimit"
	"go-tenant-catalog/pkg/jwt"
	"go-tenant-catalog/pkg/metrics"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*AccessToken, error)
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

type AccessToken struct {
	Access string `json:"access"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	limiter  ratelimit.Limiter
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, limiter ratelimit.Limiter, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		limiter:  limiter,
		log:      log,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, username)
		if err != nil {
			// a broken limiter backend must not lock everybody out
			s.log.Warn("Login limiter unavailable", zap.Error(err))
		} else if !allowed {
			metrics.ObserveLogin("throttled")
			return nil, ErrTooManyAttempts
		}
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.ObserveLogin("invalid")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !user.CheckPassword(password) {
		metrics.ObserveLogin("invalid")
		return nil, ErrInvalidCredentials
	}

	// Users created before token versions existed get one on first login
	version := user.TokenVersion
	if version == "" {
		version = uuid.NewString()
	}
	if err := s.userRepo.RecordLogin(ctx, user, time.Now().UTC(), version); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// credentials were reset, revoked or deactivated while we checked them
			metrics.ObserveLogin("invalid")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	access, refresh, err := s.tokens.GeneratePair(subjectOf(user))
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, username); err != nil {
			s.log.Warn("Failed to reset login limiter", zap.Error(err))
		}
	}
	metrics.ObserveLogin("ok")
	return &TokenPair{Refresh: refresh, Access: access}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AccessToken, error) {
	claims, err := s.tokens.Validate(refreshToken, jwt.TokenRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.currentUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.Generate(subjectOf(user), jwt.TokenAccess)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &AccessToken{Access: access}, nil
}

// Authenticate resolves an access token to the stored user it was issued for.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.tokens.Validate(accessToken, jwt.TokenAccess)
	if err != nil {
		return nil, err
	}
	return s.currentUser(ctx, claims)
}

func (s *authService) currentUser(ctx context.Context, claims *jwt.Claims) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionRevoked
	}
	return user, nil
}

func subjectOf(user *model.User) jwt.Subject {
	return jwt.Subject{
		UserID:       user.ID,
		Username:     user.Username,
		TenantID:     user.TenantID,
		IsSuperuser:  user.IsSuperuser,
		TokenVersion: user.TokenVersion,
	}
}
