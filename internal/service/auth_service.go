package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/config"
	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util"
)

// AuthService coordinates registration, login and the user directory.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTLHours),
		bcryptCost: cfg.BcryptCost,
		dispatcher: dispatcher,
	}
}

// Register creates a user. Public registration always produces a customer;
// only an authenticated admin may pick the role, and then it is required.
func (s *AuthService) Register(ctx context.Context, name, email, password string, requestedRole domain.Role, caller *domain.Identity) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email and password required", nil)
	}

	role := domain.RoleCustomer
	if caller != nil && caller.Role == domain.RoleAdmin {
		if requestedRole == "" {
			return nil, apperrors.NewValidationError("role is required when creating a user as admin", nil)
		}
		if !requestedRole.IsValid() {
			return nil, apperrors.NewValidationError("Invalid role", nil)
		}
		role = requestedRole
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("Email already taken")
		}
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserRegistered,
			Actor:     events.Actor{UserID: user.ID, Role: user.Role},
			Timestamp: time.Now(),
			Payload:   events.UserRegisteredPayload{UserID: user.ID, Role: user.Role},
		})
	}
	return user, nil
}

// Login authenticates by email and password and issues a credential. Wrong
// password and unknown email produce the same generic failure so accounts
// cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	invalid := apperrors.NewUnauthorized("Invalid email or password")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, invalid
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, invalid
	}

	token, exp, err := s.tokenMgr.GenerateToken(domain.Identity{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Me fetches fresh user data for the authenticated caller.
func (s *AuthService) Me(ctx context.Context, id int64) (*domain.User, error) {
	return s.GetUser(ctx, id)
}

// GetUser returns a single user or not-found.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns the full user directory, ordered by id.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
