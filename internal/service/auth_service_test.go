package service

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/codehive/chat/internal/pkg/errors"
	"github.com/codehive/chat/internal/pkg/utils"
	"go.uber.org/zap"
)

func newTestAuthService(t *testing.T) (*AuthService, *memUserStore, *memTokenStore) {
	t.Helper()
	users := newMemUserStore()
	tokens := newMemTokenStore()
	jwtManager := utils.NewJWTManager("test-secret-key", 15*time.Minute, 7*24*time.Hour, "codehive-test")
	return NewAuthService(users, tokens, jwtManager, zap.NewNop()), users, tokens
}

func registerTestUser(t *testing.T, svc *AuthService, username, email string) (*RegisterInput, string) {
	t.Helper()
	input := &RegisterInput{
		Username: username,
		Email:    email,
		Password: "password123",
	}
	user, _, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return input, user.ID.Hex()
}

func TestAuthServiceRegister(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	user, tokens, err := svc.Register(ctx, &RegisterInput{
		Username:    "alice",
		Email:       "alice@example.com",
		Password:    "password123",
		DisplayName: "Alice",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID.IsZero() {
		t.Error("Expected user ID to be assigned")
	}
	if user.PasswordHash == "password123" {
		t.Error("Password must not be stored in plain text")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("Expected a full token pair")
	}
}

func TestAuthServiceRegisterDuplicate(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	registerTestUser(t, svc, "alice", "alice@example.com")

	_, _, err := svc.Register(ctx, &RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "password123",
	})
	if err != apperrors.ErrUsernameExists {
		t.Errorf("Expected ErrUsernameExists, got %v", err)
	}

	_, _, err = svc.Register(ctx, &RegisterInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != apperrors.ErrEmailExists {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	input, userID := registerTestUser(t, svc, "bob", "bob@example.com")

	user, tokens, err := svc.Login(ctx, input.Username, input.Password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID.Hex() != userID {
		t.Errorf("Expected user %s, got %s", userID, user.ID.Hex())
	}
	if tokens.AccessToken == "" {
		t.Error("Expected an access token")
	}
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	registerTestUser(t, svc, "bob", "bob@example.com")

	if _, _, err := svc.Login(ctx, "bob", "wrong-password"); err != apperrors.ErrAuthenticationFailed {
		t.Errorf("Expected ErrAuthenticationFailed, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "password123"); err != apperrors.ErrAuthenticationFailed {
		t.Errorf("Expected ErrAuthenticationFailed for unknown user, got %v", err)
	}
}

func TestAuthServiceResolveIdentity(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	input, userID := registerTestUser(t, svc, "carol", "carol@example.com")

	_, tokens, err := svc.Login(ctx, input.Username, input.Password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	user, err := svc.ResolveIdentity(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ResolveIdentity failed: %v", err)
	}
	if user.ID.Hex() != userID {
		t.Errorf("Expected user %s, got %s", userID, user.ID.Hex())
	}
}

func TestAuthServiceResolveIdentityFailsClosed(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.ResolveIdentity(ctx, "not-a-token"); err != apperrors.ErrAuthenticationFailed {
		t.Errorf("Expected ErrAuthenticationFailed for garbage token, got %v", err)
	}

	// A refresh token is not an access credential
	input, _ := registerTestUser(t, svc, "dave", "dave@example.com")
	_, tokens, err := svc.Login(ctx, input.Username, input.Password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := svc.ResolveIdentity(ctx, tokens.RefreshToken); err != apperrors.ErrAuthenticationFailed {
		t.Errorf("Expected ErrAuthenticationFailed for refresh token, got %v", err)
	}
}

func TestAuthServiceRefreshRotation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	input, _ := registerTestUser(t, svc, "erin", "erin@example.com")

	_, tokens, err := svc.Login(ctx, input.Username, input.Password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if rotated.AccessToken == "" {
		t.Error("Expected a new access token")
	}

	// The consumed refresh token must not work a second time
	if _, err := svc.Refresh(ctx, tokens.RefreshToken); err != apperrors.ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken on reuse, got %v", err)
	}
}

func TestAuthServiceLogoutRevokesRefresh(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	input, _ := registerTestUser(t, svc, "frank", "frank@example.com")

	_, tokens, err := svc.Login(ctx, input.Username, input.Password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.Refresh(ctx, tokens.RefreshToken); err != apperrors.ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken after logout, got %v", err)
	}

	// Logging out with a bogus token is a no-op, not an error
	if err := svc.Logout(ctx, "not-a-token"); err != nil {
		t.Errorf("Expected nil for invalid token, got %v", err)
	}
}

func TestAuthServiceGetUser(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	_, userID := registerTestUser(t, svc, "grace", "grace@example.com")

	user, err := svc.GetUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.Username != "grace" {
		t.Errorf("Expected username grace, got %s", user.Username)
	}

	if _, err := svc.GetUser(ctx, "000000000000000000000000"); err != apperrors.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}
