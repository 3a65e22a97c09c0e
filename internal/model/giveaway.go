package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GiveawayStatus string

const (
	GiveawayActive   GiveawayStatus = "active"
	GiveawayDrawing  GiveawayStatus = "drawing"
	GiveawayFinished GiveawayStatus = "finished"
)

type Giveaway struct {
	GiveawayID      uuid.UUID
	Title           string
	Description     string
	Status          GiveawayStatus
	FeeSymbol       string
	EntryFee        decimal.Decimal
	PrizePool       decimal.Decimal
	MaxParticipants int
	Participants    int
	StartsAt        time.Time
	EndsAt          time.Time
	Joined          bool
}

func (g *Giveaway) IsFree() bool {
	return g.EntryFee.IsZero()
}

func (g *Giveaway) IsFull() bool {
	return g.MaxParticipants > 0 && g.Participants >= g.MaxParticipants
}

func (g *Giveaway) IsOpen(now time.Time) bool {
	return g.Status == GiveawayActive && !now.Before(g.StartsAt) && now.Before(g.EndsAt)
}

type Reaction struct {
	GiveawayID uuid.UUID
	Emoji      string
	Count      int
	Reacted    bool
}
