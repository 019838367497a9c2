package service

import (
	"context"

	"github.com/codehive/chat/internal/model"
	apperrors "github.com/codehive/chat/internal/pkg/errors"
	"github.com/codehive/chat/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	userStore UserStore
	logger    *zap.Logger
}

func NewUserService(userStore UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		userStore: userStore,
		logger:    logger,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		s.logger.Error("Failed to get user", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}
	return user, nil
}

// GetProfiles resolves a set of user ids to public profiles
func (s *UserService) GetProfiles(ctx context.Context, ids []string) ([]*model.UserProfile, error) {
	users, err := s.userStore.GetMany(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to get users", zap.Error(err))
		return nil, apperrors.ErrPersistence
	}

	profiles := make([]*model.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.ToProfile())
	}
	return profiles, nil
}

// UpdateStatus updates a user's presence status
func (s *UserService) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	if err := s.userStore.UpdateStatus(ctx, id, status); err != nil {
		if err == repository.ErrUserNotFound {
			return apperrors.ErrUserNotFound
		}
		return apperrors.ErrPersistence
	}
	return nil
}
