package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"

	"github.com/google/uuid"
)

type MiningService struct {
	repo MiningRepository
	now  func() time.Time
}

func NewMiningService(repo MiningRepository) *MiningService {
	return &MiningService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Now is the clock sessions are measured against.
func (s *MiningService) Now() time.Time {
	return s.now()
}

func (s *MiningService) Servers(ctx context.Context) ([]*model.Server, error) {
	servers, err := s.repo.ListServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

func (s *MiningService) Rent(ctx context.Context, telegramID int64, serverID int) (*model.MiningSession, error) {
	session, err := s.repo.RentServer(ctx, telegramID, serverID, s.now())
	if err != nil {
		return nil, mapRepositoryError(err, ErrServerNotFound)
	}
	return session, nil
}

// Sessions lists the sessions that have not been claimed yet.
func (s *MiningService) Sessions(ctx context.Context, telegramID int64) ([]*model.MiningSession, error) {
	sessions, err := s.repo.ListSessions(ctx, telegramID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list mining sessions: %w", err)
	}
	return sessions, nil
}

func (s *MiningService) Claim(ctx context.Context, telegramID int64, sessionID uuid.UUID) (*model.MiningSession, error) {
	session, err := s.repo.ClaimSession(ctx, telegramID, sessionID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyClaimed):
			return nil, ErrSessionAlreadyClaimed
		case errors.Is(err, repository.ErrSessionNotFinished):
			return nil, ErrSessionNotFinished
		}
		return nil, mapRepositoryError(err, ErrSessionNotFound)
	}
	return session, nil
}
