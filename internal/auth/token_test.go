package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("rider@example.com", "test-secret")
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	sub, err := ParseSubject(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseSubject: %v", err)
	}
	if sub != "rider@example.com" {
		t.Errorf("subject = %q, want rider@example.com", sub)
	}
}

func TestParseSubjectWrongSecret(t *testing.T) {
	token, err := NewAccessToken("rider@example.com", "test-secret")
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	_, err = ParseSubject(token, "other-secret")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for wrong secret, got %v", err)
	}
}

func TestParseSubjectExpired(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": "rider@example.com",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = ParseSubject(token, "test-secret")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestParseSubjectGarbage(t *testing.T) {
	_, err := ParseSubject("not-a-token", "test-secret")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for garbage token, got %v", err)
	}
}

func TestParseSubjectMissingSubject(t *testing.T) {
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = ParseSubject(token, "test-secret")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated for subjectless token, got %v", err)
	}
}
