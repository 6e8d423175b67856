package auth

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	token, err := m.GenerateToken("user-1", "alex", "alex@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alex" || claims.Email != "alex@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", time.Hour, 24*time.Hour)
	other := NewJWTManager("secret-b", time.Hour, 24*time.Hour)

	token, err := m.GenerateToken("user-1", "alex", "alex@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret should not validate")
	}
}

func TestJWTExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, 24*time.Hour)

	token, err := m.GenerateToken("user-1", "alex", "alex@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expired token should not validate")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "hunter22" {
		t.Error("hash should not equal the plaintext")
	}
	if !CheckPasswordHash("hunter22", hash) {
		t.Error("correct password should verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password should not verify")
	}
}
