package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, []string{"USER"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user 42, got %d", claims.UserID)
	}
	if RemainingTTL(claims) <= 0 {
		t.Fatal("expected positive ttl")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	expired, err := generateToken(1, nil, time.Now().Add(-48*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	valid, _ := GenerateToken(1, nil)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + ".c2lnbmF0dXJl"

	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("another-secret"))

	noSubject, _ := generateToken(0, nil, time.Now(), time.Hour)

	cases := map[string]string{
		"empty":     "",
		"malformed": "not-a-token",
		"expired":   expired,
		"tampered":  tampered,
		"foreign":   foreign,
		"nosubject": noSubject,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ValidateToken(token); err == nil {
				t.Fatalf("expected %s token to be rejected", name)
			}
		})
	}
}

func TestExtractSignature(t *testing.T) {
	if _, err := ExtractSignature("a.b"); err == nil {
		t.Fatal("expected error for two-part token")
	}
	sig, err := ExtractSignature("a.b.c")
	if err != nil || sig != "c" {
		t.Fatalf("unexpected signature %q err %v", sig, err)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err = CheckPasswordHash("secret-pass", hash); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err = CheckPasswordHash("wrong", hash); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
