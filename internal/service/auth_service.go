package service

import (
	"context"
	"fmt"
	"time"

	"github.com/codehive/chat/internal/model"
	apperrors "github.com/codehive/chat/internal/pkg/errors"
	"github.com/codehive/chat/internal/pkg/utils"
	"github.com/codehive/chat/internal/repository"
	"go.uber.org/zap"
)

type AuthService struct {
	userStore  UserStore
	tokenStore TokenStore
	jwtManager *utils.JWTManager
	logger     *zap.Logger
}

func NewAuthService(
	userStore UserStore,
	tokenStore TokenStore,
	jwtManager *utils.JWTManager,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userStore:  userStore,
		tokenStore: tokenStore,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*model.User, *utils.TokenPair, error) {
	if _, err := s.userStore.GetByUsername(ctx, input.Username); err == nil {
		return nil, nil, apperrors.ErrUsernameExists
	}
	if _, err := s.userStore.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil, apperrors.ErrEmailExists
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, nil, apperrors.ErrValidation.WithDetails(err.Error())
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		Status:       model.UserStatusOffline,
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, nil, apperrors.ErrUsernameExists
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, nil, apperrors.ErrPersistence
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("username", user.Username),
	)

	return user, tokens, nil
}

// Login authenticates a user by username and password
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, *utils.TokenPair, error) {
	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, nil, apperrors.ErrAuthenticationFailed
		}
		s.logger.Error("Failed to look up user", zap.Error(err))
		return nil, nil, apperrors.ErrPersistence
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, nil, apperrors.ErrAuthenticationFailed
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Refresh rotates a refresh token into a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	// A refresh token must still be on record; logout removes it
	key := fmt.Sprintf("refresh_token:%s", claims.ID)
	if _, err := s.tokenStore.Get(ctx, key); err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	_ = s.tokenStore.Delete(ctx, key)

	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrAuthenticationFailed
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		// Already invalid; nothing to revoke
		return nil
	}

	key := fmt.Sprintf("refresh_token:%s", claims.ID)
	if err := s.tokenStore.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to revoke refresh token", zap.Error(err))
	}

	return nil
}

// ResolveIdentity is the single authentication gate for the real-time layer:
// it turns a bearer credential into a user identity, or fails closed. Every
// socket event after the handshake trusts the identity bound here.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, apperrors.ErrAuthenticationFailed
	}

	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, apperrors.ErrAuthenticationFailed
		}
		s.logger.Error("Failed to resolve identity", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	return user, nil
}

// GetUser returns the account for an authenticated user id
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("Failed to get user", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*utils.TokenPair, error) {
	tokens, err := s.jwtManager.GenerateTokenPair(user.ID.Hex(), user.Username)
	if err != nil {
		s.logger.Error("Failed to generate tokens", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	// Record the refresh token id so it can be revoked
	tokenID, err := s.jwtManager.GetTokenID(tokens.RefreshToken)
	if err == nil {
		key := fmt.Sprintf("refresh_token:%s", tokenID)
		if err := s.tokenStore.Set(ctx, key, user.ID.Hex(), 7*24*time.Hour); err != nil {
			s.logger.Warn("Failed to store refresh token", zap.Error(err))
		}
	}

	return tokens, nil
}
