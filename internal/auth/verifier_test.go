package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-auth-secret-32bytes-long!!!"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestJWTVerifier_Verify_ValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "user-123",
		"email": "taro@example.com",
		"name":  "Taro",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	identity, err := v.Verify(tokenString)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if identity.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", identity.UserID, "user-123")
	}
	if identity.Email != "taro@example.com" {
		t.Errorf("Email = %q, want %q", identity.Email, "taro@example.com")
	}
	if identity.Name != "Taro" {
		t.Errorf("Name = %q, want %q", identity.Name, "Taro")
	}
}

func TestJWTVerifier_Verify_WrongSecret_ReturnsError(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tokenString := signToken(t, "some-other-secret", jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(tokenString); err == nil {
		t.Fatal("expected error for token signed with wrong secret, got nil")
	}
}

func TestJWTVerifier_Verify_ExpiredToken_ReturnsError(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := v.Verify(tokenString); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestJWTVerifier_Verify_MissingSub_ReturnsError(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"email": "taro@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(tokenString); err == nil {
		t.Fatal("expected error for token without sub claim, got nil")
	}
}

func TestJWTVerifier_Verify_MalformedToken_ReturnsError(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	if _, err := v.Verify("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token, got nil")
	}
}
