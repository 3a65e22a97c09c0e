package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Mission struct {
	MissionID    uuid.UUID
	Title        string
	Description  string
	Link         string
	RewardSymbol string
	Reward       decimal.Decimal
	CreatedAt    time.Time
}

type UserMission struct {
	Mission
	Completed   bool
	CompletedAt *time.Time
}
