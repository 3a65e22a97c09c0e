package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Server struct {
	ServerID     int
	Name         string
	PriceTON     decimal.Decimal
	RewardSymbol string
	Reward       decimal.Decimal
	Duration     time.Duration
}

type MiningSession struct {
	SessionID    uuid.UUID
	TelegramID   int64
	ServerID     int
	ServerName   string
	RewardSymbol string
	Reward       decimal.Decimal
	StartedAt    time.Time
	EndsAt       time.Time
	ClaimedAt    *time.Time
}

func (s *MiningSession) Remaining(now time.Time) time.Duration {
	if now.After(s.EndsAt) {
		return 0
	}
	return s.EndsAt.Sub(now)
}

// Progress is the mined fraction of the session, in [0, 1].
func (s *MiningSession) Progress(now time.Time) float64 {
	total := s.EndsAt.Sub(s.StartedAt)
	if total <= 0 || !now.Before(s.EndsAt) {
		return 1
	}
	if now.Before(s.StartedAt) {
		return 0
	}
	return float64(now.Sub(s.StartedAt)) / float64(total)
}

func (s *MiningSession) Claimable(now time.Time) bool {
	return s.ClaimedAt == nil && !now.Before(s.EndsAt)
}
