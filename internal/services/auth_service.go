package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"street-screens-service/internal/auth"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/logging"
	"street-screens-service/internal/ports"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	TypeUser  domain.UserType
}

// Session is an issued bearer token and the user it belongs to.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users ports.UserRepository
	jwt   *auth.JWTManager
}

func NewAuthService(users ports.UserRepository, jwt *auth.JWTManager) *AuthService {
	return &AuthService{users: users, jwt: jwt}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.NewFieldError("email", "enter a valid email address")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, domain.NewFieldError("password", fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	if !in.TypeUser.Valid() {
		return nil, domain.NewFieldError("user_type", fmt.Sprintf("%q is not a valid choice", in.TypeUser))
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		TypeUser:     in.TypeUser,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("register %s: %w", email, domain.ErrConflict)
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	logging.Ctx(ctx).Info().Int64("user_id", u.ID).Msg("user registered")
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Me returns the user behind a validated token.
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

func (s *AuthService) issue(u *domain.User) (*Session, error) {
	token, expires, err := s.jwt.GenerateToken(u.ID, u.Email, string(u.TypeUser))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresAt: expires}, nil
}
