package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reactions is the fixed emoji set a giveaway can be reacted with.
var Reactions = []string{"🔥", "❤️", "👍", "🎉", "😢"}

type GiveawayService struct {
	repo     GiveawayRepository
	notifier Notifier
	now      func() time.Time
}

func NewGiveawayService(repo GiveawayRepository, notifier Notifier) *GiveawayService {
	return &GiveawayService{
		repo:     repo,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *GiveawayService) List(ctx context.Context, telegramID int64) ([]*model.Giveaway, error) {
	giveaways, err := s.repo.ListGiveaways(ctx, telegramID, model.GiveawayActive, model.GiveawayDrawing)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	return giveaways, nil
}

func (s *GiveawayService) Get(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error) {
	giveaway, err := s.repo.GetGiveaway(ctx, giveawayID, telegramID)
	if err != nil {
		return nil, mapRepositoryError(err, ErrGiveawayNotFound)
	}
	return giveaway, nil
}

func (s *GiveawayService) Join(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error) {
	giveaway, err := s.repo.JoinGiveaway(ctx, giveawayID, telegramID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrAlreadyJoined
		case errors.Is(err, repository.ErrGiveawayClosed):
			return nil, ErrGiveawayClosed
		case errors.Is(err, repository.ErrGiveawayFull):
			return nil, ErrGiveawayFull
		}
		return nil, mapRepositoryError(err, ErrGiveawayNotFound)
	}

	notify(ctx, s.notifier, telegramID, fmt.Sprintf("You joined the giveaway %q.", giveaway.Title))
	return giveaway, nil
}

// ToggleReaction flips the user's reaction and returns the fresh count.
func (s *GiveawayService) ToggleReaction(ctx context.Context, giveawayID uuid.UUID, telegramID int64, emoji string) (*model.Reaction, error) {
	if !isReaction(emoji) {
		return nil, ErrInvalidReaction
	}

	reacted, err := s.repo.ToggleReaction(ctx, giveawayID, telegramID, emoji)
	if err != nil {
		return nil, mapRepositoryError(err, ErrGiveawayNotFound)
	}

	count, err := s.repo.ReactionCount(ctx, giveawayID, emoji)
	if err != nil {
		return nil, mapRepositoryError(err, ErrGiveawayNotFound)
	}

	return &model.Reaction{
		GiveawayID: giveawayID,
		Emoji:      emoji,
		Count:      count,
		Reacted:    reacted,
	}, nil
}

func (s *GiveawayService) Reactions(ctx context.Context, giveawayID uuid.UUID, telegramID int64) ([]*model.Reaction, error) {
	reactions, err := s.repo.ListReactions(ctx, giveawayID, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return reactions, nil
}

// AdvanceExpired moves every giveaway past its end time to its next state.
// One failing giveaway does not stop the others.
func (s *GiveawayService) AdvanceExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpiredGiveaways(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired giveaways: %w", err)
	}

	advanced := 0
	for _, id := range expired {
		state, err := s.repo.AdvanceGiveawayState(ctx, id)
		if err != nil {
			logger.Logger().Error("Failed to advance giveaway",
				zap.String("giveaway_id", id.String()),
				zap.Error(err))
			continue
		}
		logger.Logger().Info("Giveaway advanced",
			zap.String("giveaway_id", id.String()),
			zap.String("state", state))
		advanced++
	}
	return advanced, nil
}

// RunAdvancer calls AdvanceExpired every interval until ctx is done.
func (s *GiveawayService) RunAdvancer(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.AdvanceExpired(ctx); err != nil {
				logger.Logger().Error("Giveaway advance failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func isReaction(emoji string) bool {
	for _, r := range Reactions {
		if r == emoji {
			return true
		}
	}
	return false
}
