package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/repository"
)

// FollowService manages which packages a user follows.
type FollowService struct {
	follows repository.FollowRepository
	logger  *slog.Logger
}

func NewFollowService(follows repository.FollowRepository, logger *slog.Logger) *FollowService {
	return &FollowService{follows: follows, logger: logger}
}

// Follow is idempotent.
func (s *FollowService) Follow(ctx context.Context, userID int64, packageName string) error {
	name, err := s.check(userID, packageName)
	if err != nil {
		return err
	}
	if err := s.follows.Follow(ctx, userID, name); err != nil {
		return fmt.Errorf("following %s: %w", name, err)
	}

	s.logger.Info("package followed",
		slog.Int64("userID", userID),
		slog.String("package", name),
	)
	return nil
}

// Unfollow succeeds whether or not the edge existed.
func (s *FollowService) Unfollow(ctx context.Context, userID int64, packageName string) error {
	name, err := s.check(userID, packageName)
	if err != nil {
		return err
	}
	if err := s.follows.Unfollow(ctx, userID, name); err != nil {
		return fmt.Errorf("unfollowing %s: %w", name, err)
	}

	s.logger.Info("package unfollowed",
		slog.Int64("userID", userID),
		slog.String("package", name),
	)
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, userID int64, packageName string) (bool, error) {
	name, err := s.check(userID, packageName)
	if err != nil {
		return false, err
	}
	return s.follows.IsFollowing(ctx, userID, name)
}

func (s *FollowService) check(userID int64, packageName string) (string, error) {
	if userID <= 0 {
		return "", apperror.AuthRequired()
	}
	name := strings.TrimSpace(packageName)
	if name == "" {
		return "", apperror.ValidationFailed("name", "package name is required")
	}
	return name, nil
}
