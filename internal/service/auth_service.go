package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/campusevents/campus-events/internal/audit"
	"github.com/campusevents/campus-events/internal/auth"
	"github.com/campusevents/campus-events/internal/models"
	"github.com/campusevents/campus-events/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Session is a signed-in user and the token that proves it.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, user *models.User, claims *auth.Claims) error
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
	Promote(ctx context.Context, email string) (*models.User, error)
}

type authService struct {
	users        repository.UserRepository
	tokens       *auth.TokenManager
	revoker      auth.Revoker
	audit        audit.Logger
	isAdminEmail func(email string) bool
	cost         int
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenManager,
	revoker auth.Revoker,
	auditLog audit.Logger,
	isAdminEmail func(email string) bool,
) AuthService {
	return &authService{
		users:        users,
		tokens:       tokens,
		revoker:      revoker,
		audit:        auditLog,
		isAdminEmail: isAdminEmail,
		cost:         bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("email", "Email and password are required.")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, invalid("password", "password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if s.isAdminEmail != nil && s.isAdminEmail(email) {
		user.Role = models.RoleAdmin
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.audit.Log(ctx, audit.ActionUserRegistered, audit.UserID(user.ID), map[string]any{"email": user.Email})
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	s.audit.Log(ctx, audit.ActionUserLogin, audit.UserID(user.ID), nil)
	return s.issue(user)
}

func (s *authService) issue(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *authService) Logout(ctx context.Context, user *models.User, claims *auth.Claims) error {
	if claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	s.audit.Log(ctx, audit.ActionUserLogout, audit.UserID(user.ID), nil)
	return nil
}

// Authenticate resolves a token to its user. Revoked tokens, and tokens whose
// user no longer exists, are rejected with ErrUnauthenticated.
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		log.Printf("[Auth] revocation lookup failed: %v", err)
		return nil, nil, ErrUnauthenticated
	}
	if revoked {
		return nil, nil, ErrUnauthenticated
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	return user, claims, nil
}

func (s *authService) Promote(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return user, nil
	}
	if err := s.users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return nil, err
	}
	user.Role = models.RoleAdmin
	return user, nil
}
