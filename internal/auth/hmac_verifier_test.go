package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHMACVerifierRoundTrip(t *testing.T) {
	v, err := NewHMACVerifier("test-secret", testLogger())
	if err != nil {
		t.Fatalf("NewHMACVerifier: %v", err)
	}

	token, err := v.Sign("user-1", "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.GetUserID() != "user-1" || claims.Email != "a@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestHMACVerifierRejects(t *testing.T) {
	v, _ := NewHMACVerifier("test-secret", testLogger())
	other, _ := NewHMACVerifier("other-secret", testLogger())

	sign := func(claims *models.AuthClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	wrongSecret, _ := other.Sign("user-1", "", time.Hour)
	expired, _ := v.Sign("user-1", "", -time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", wrongSecret},
		{"expired", expired},
		{"anonymous role", sign(&models.AuthClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: future},
			Role:             "anon",
		}, "test-secret")},
		{"missing subject", sign(&models.AuthClaims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
			Role:             models.RoleAuthenticated,
		}, "test-secret")},
		{"none algorithm", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &models.AuthClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: future},
				Role:             models.RoleAuthenticated,
			}).SignedString(jwt.UnsafeAllowNoneSignatureType)
			return s
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.VerifyToken(tt.token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestNewHMACVerifierRequiresSecret(t *testing.T) {
	if _, err := NewHMACVerifier("", testLogger()); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestNewJWTVerifierRequiresURL(t *testing.T) {
	if _, err := NewJWTVerifier(t.Context(), "", testLogger()); err == nil {
		t.Fatal("expected error for empty JWKS URL")
	}
}
