package service

import (
	"context"
	"errors"
	"fmt"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/pkg/ton"

	"github.com/google/uuid"
)

type MissionService struct {
	repo     MissionRepository
	notifier Notifier
}

func NewMissionService(repo MissionRepository, notifier Notifier) *MissionService {
	return &MissionService{
		repo:     repo,
		notifier: notifier,
	}
}

func (s *MissionService) List(ctx context.Context, telegramID int64) ([]*model.UserMission, error) {
	missions, err := s.repo.ListMissions(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	return missions, nil
}

func (s *MissionService) Complete(ctx context.Context, telegramID int64, missionID uuid.UUID) (*model.Mission, error) {
	mission, err := s.repo.CompleteMission(ctx, telegramID, missionID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrMissionAlreadyCompleted
		}
		return nil, mapRepositoryError(err, ErrMissionNotFound)
	}

	if mission.Reward.IsPositive() {
		notify(ctx, s.notifier, telegramID, fmt.Sprintf("Mission %q completed: +%s %s.",
			mission.Title, ton.Format(mission.Reward), mission.RewardSymbol))
	}
	return mission, nil
}
