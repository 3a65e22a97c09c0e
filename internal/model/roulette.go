package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Prize struct {
	PrizeID int
	Label   string
	Symbol  string
	Amount  decimal.Decimal
	Weight  int
}

func (p *Prize) IsNothing() bool {
	return p.Amount.IsZero()
}

type RouletteStatus struct {
	TelegramID   int64
	LastSpinAt   *time.Time
	NextSpinAt   *time.Time
	IsAvailable  bool
	HasNeverSpun bool
	Prizes       []*Prize
}

type Spin struct {
	TelegramID int64
	Prize      *Prize
	SpunAt     time.Time
}
