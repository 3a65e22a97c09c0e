package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/pkg/auth"
	"ton_mining_miniapp/pkg/logger"

	"go.uber.org/zap"
)

// LinkConfig names the bot and the Mini App short name used in share links.
type LinkConfig struct {
	BotUsername string `mapstructure:"botUsername"`
	AppName     string `mapstructure:"appName"`
}

type UserService struct {
	repo  UserRepository
	links LinkConfig
}

func NewUserService(repo UserRepository, links LinkConfig) *UserService {
	return &UserService{
		repo:  repo,
		links: links,
	}
}

// EnsureUser registers the user on first open and refreshes the profile on
// later ones. A referrer is only recorded at registration.
func (s *UserService) EnsureUser(ctx context.Context, user *model.User, referrerID *int64) (*model.User, error) {
	existing, err := s.repo.GetUserByTelegramID(ctx, user.TelegramID)
	switch {
	case err == nil:
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.Username = user.Username
		existing.PhotoURL = user.PhotoURL
		existing.Language = user.Language
		existing.AuthDate = user.AuthDate
		if err := s.repo.UpdateUserProfile(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update user profile: %w", err)
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}

	user.ReferrerID = referrerID
	if user.RegistrationDate.IsZero() {
		user.RegistrationDate = time.Now().UTC()
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		// registered concurrently by another request
		return s.GetUserByTelegramID(ctx, user.TelegramID)
	}

	if referrerID != nil {
		registered, err := s.repo.RegisterReferral(ctx, *referrerID, user.TelegramID)
		if err != nil {
			logger.Logger().Warn("Failed to register referral",
				zap.Int64("referrer_id", *referrerID),
				zap.Int64("telegram_id", user.TelegramID),
				zap.Error(err))
		} else if !registered {
			logger.Logger().Info("Referral rejected by store",
				zap.Int64("referrer_id", *referrerID),
				zap.Int64("telegram_id", user.TelegramID))
		}
	}

	return user, nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return user, nil
}

func (s *UserService) GetReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	referrals, err := s.repo.GetUserReferrals(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	return referrals, nil
}

// ReferralLink opens the Mini App with the inviter's start param.
func (s *UserService) ReferralLink(telegramID int64) string {
	return fmt.Sprintf("https://t.me/%s/%s?startapp=%s",
		s.links.BotUsername, s.links.AppName, auth.ReferralStartParam(telegramID))
}

// SetWalletAddress stores the address reported by the wallet bridge. A nil
// address means the wallet was disconnected.
func (s *UserService) SetWalletAddress(ctx context.Context, telegramID int64, address *string) {
	if err := s.repo.UpdateWalletAddress(ctx, telegramID, address); err != nil {
		logger.Logger().Error("Failed to store wallet address",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
	}
}
