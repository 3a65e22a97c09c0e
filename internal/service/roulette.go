package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
)

const SpinCooldown = 24 * time.Hour

// Picker returns a uniform integer in [0, n).
type Picker func(n int) (int, error)

func cryptoPicker(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

type RouletteService struct {
	repo     RouletteRepository
	pick     Picker
	now      func() time.Time
	cooldown time.Duration
}

func NewRouletteService(repo RouletteRepository) *RouletteService {
	return &RouletteService{
		repo:     repo,
		pick:     cryptoPicker,
		now:      func() time.Time { return time.Now().UTC() },
		cooldown: SpinCooldown,
	}
}

func (s *RouletteService) GetStatus(ctx context.Context, telegramID int64) (*model.RouletteStatus, error) {
	lastSpin, err := s.repo.GetLastSpin(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last spin: %w", err)
	}

	prizes, err := s.repo.ListPrizes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}

	now := s.now()
	status := &model.RouletteStatus{
		TelegramID:   telegramID,
		LastSpinAt:   lastSpin,
		HasNeverSpun: lastSpin == nil,
		Prizes:       prizes,
	}

	if status.HasNeverSpun {
		status.IsAvailable = true
	} else {
		next := lastSpin.Add(s.cooldown)
		status.NextSpinAt = &next
		status.IsAvailable = !now.Before(next)
	}

	return status, nil
}

// Spin draws a prize weighted by the prize table and credits it. The draw
// happens here so the client cannot choose its own outcome.
func (s *RouletteService) Spin(ctx context.Context, telegramID int64) (*model.Spin, error) {
	status, err := s.GetStatus(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	if !status.IsAvailable {
		return nil, ErrSpinNotAvailable
	}

	prize, err := s.draw(status.Prizes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	spin := &model.Spin{
		TelegramID: telegramID,
		Prize:      prize,
		SpunAt:     now,
	}

	err = s.repo.RecordSpin(ctx, spin, now.Add(-s.cooldown))
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			return nil, ErrSpinNotAvailable
		}
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}

	return spin, nil
}

func (s *RouletteService) draw(prizes []*model.Prize) (*model.Prize, error) {
	total := 0
	for _, p := range prizes {
		if p.Weight > 0 {
			total += p.Weight
		}
	}
	if total == 0 {
		return nil, ErrNoPrizes
	}

	n, err := s.pick(total)
	if err != nil {
		return nil, fmt.Errorf("failed to draw prize: %w", err)
	}

	for _, p := range prizes {
		if p.Weight <= 0 {
			continue
		}
		if n < p.Weight {
			return p, nil
		}
		n -= p.Weight
	}
	return nil, ErrNoPrizes
}
