package utils

import (
	"testing"

	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	password := "secret123"

	// Test Hashing
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == password {
		t.Error("Hash should not match plaintext password")
	}
	if len(hash) == 0 {
		t.Error("Hash should not be empty")
	}

	// Test Comparison (Success)
	if !CheckPasswordHash(password, hash) {
		t.Error("Password should match hash")
	}

	// Test Comparison (Failure)
	if CheckPasswordHash("wrongpassword", hash) {
		t.Error("Wrong password should not match hash")
	}
}

func TestJWT(t *testing.T) {
	cfg := &config.Config{
		JWTSecret: "test-secret-key-12345",
	}

	user := &models.UserAuth{
		ID:       "uuid-1234",
		TenantID: "tenant-1",
		Email:    "cashier@example.com",
		Role:     "cashier",
	}

	// Test Generation
	accessToken, refreshToken, err := GenerateTokens(user, cfg)
	if err != nil {
		t.Fatalf("Failed to generate tokens: %v", err)
	}
	if accessToken == "" || refreshToken == "" {
		t.Error("Tokens should not be empty")
	}

	// Test Validation (Success)
	claims, err := ValidateToken(accessToken, cfg.JWTSecret)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims["id"] != user.ID {
		t.Errorf("Expected user ID %s, got %v", user.ID, claims["id"])
	}
	if claims["tenantId"] != user.TenantID {
		t.Errorf("Expected tenant ID %s, got %v", user.TenantID, claims["tenantId"])
	}

	// Test Validation (Failure - Wrong Key)
	_, err = ValidateToken(accessToken, "wrong-key")
	if err == nil {
		t.Error("Validation should fail with wrong key")
	}
}

func TestDeviceToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret-key-12345"}

	token, err := GenerateDeviceToken("pos-001", "tenant-1", cfg)
	if err != nil {
		t.Fatalf("Failed to generate device token: %v", err)
	}

	claims, err := ValidateToken(token, cfg.JWTSecret)
	if err != nil {
		t.Fatalf("Failed to validate device token: %v", err)
	}
	if claims["type"] != "device" {
		t.Errorf("Expected type device, got %v", claims["type"])
	}
	if claims["deviceId"] != "pos-001" {
		t.Errorf("Expected deviceId pos-001, got %v", claims["deviceId"])
	}
}
