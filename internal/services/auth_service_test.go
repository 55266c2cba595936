package services

import (
	"context"
	"errors"
	"street-screens-service/internal/auth"
	"street-screens-service/internal/domain"
	"testing"
	"time"
)

func newAuthService(t *testing.T) (*AuthService, *auth.JWTManager) {
	t.Helper()

	m, err := auth.NewJWTManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return NewAuthService(newTestStore(t).Users, m), m
}

func TestAuthRegisterLoginMe(t *testing.T) {
	ctx := context.Background()
	svc, m := newAuthService(t)

	sess, err := svc.Register(ctx, RegisterInput{
		Email:     " Owner@Example.com ",
		Password:  "correct-horse",
		FirstName: "Aziz",
		TypeUser:  domain.UserAdsManager,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.User.Email != "owner@example.com" {
		t.Fatalf("email = %q, want normalized", sess.User.Email)
	}

	claims, err := m.ValidateToken(sess.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if id, _ := claims.UserID(); id != sess.User.ID {
		t.Fatalf("token subject = %d, want %d", id, sess.User.ID)
	}

	login, err := svc.Login(ctx, "OWNER@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != sess.User.ID {
		t.Fatalf("login user = %d, want %d", login.User.ID, sess.User.ID)
	}

	me, err := svc.Me(ctx, sess.User.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.FirstName != "Aziz" || me.TypeUser != domain.UserAdsManager {
		t.Fatalf("me = %+v", me)
	}
}

func TestAuthRegisterRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "long-enough"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"duplicate email", RegisterInput{Email: "A@example.com", Password: "long-enough"}, domain.ErrConflict},
		{"short password", RegisterInput{Email: "b@example.com", Password: "short"}, domain.ErrInvalid},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "long-enough"}, domain.ErrInvalid},
		{"bad user type", RegisterInput{Email: "c@example.com", Password: "long-enough", TypeUser: "admin"}, domain.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "long-enough"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "a@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "long-enough"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}
