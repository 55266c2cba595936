package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m, err := NewJWTManager("0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, expires, err := m.GenerateToken(42, "a@b.co", "ads_client")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expiry in the past: %v", expires)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("UserID = %d, %v", id, err)
	}
	if claims.Email != "a@b.co" || claims.TypeUser != "ads_client" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	m, _ := NewJWTManager("0123456789abcdef", time.Hour)
	other, _ := NewJWTManager("fedcba9876543210", time.Hour)

	foreign, _, _ := other.GenerateToken(1, "x@y.z", "")
	if _, err := m.ValidateToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature err = %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := m.GenerateToken(1, "x@y.z", "")
	m.now = time.Now
	if _, err := m.ValidateToken(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err = %v", err)
	}

	if _, err := m.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage err = %v", err)
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); err == nil {
		t.Fatal("expected error")
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Fatalf("CheckPassword: %v", err)
	}
	if err := CheckPassword(hash, "wrong horse"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("err = %v, want ErrPasswordMismatch", err)
	}
}

func TestMiddleware(t *testing.T) {
	m, _ := NewJWTManager("0123456789abcdef", time.Hour)
	token, _, _ := m.GenerateToken(7, "u@example.com", "")

	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok || id != 7 {
			t.Errorf("UserIDFromContext = %d, %v", id, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
