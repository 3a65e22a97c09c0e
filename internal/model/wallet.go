package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SymbolTON   = "TON"
	SymbolMined = "MINE"
)

type Token struct {
	Symbol   string
	Name     string
	Decimals int
	PriceTON decimal.Decimal
	IconURL  string
}

type Holding struct {
	TelegramID int64
	Symbol     string
	Balance    decimal.Decimal
	UpdatedAt  time.Time
}

type TransactionKind string

const (
	TransactionDeposit    TransactionKind = "deposit"
	TransactionWithdrawal TransactionKind = "withdrawal"
	TransactionExchange   TransactionKind = "exchange"
	TransactionServerRent TransactionKind = "server_rent"
	TransactionMining     TransactionKind = "mining_reward"
	TransactionMission    TransactionKind = "mission_reward"
	TransactionRoulette   TransactionKind = "roulette_prize"
	TransactionGiveaway   TransactionKind = "giveaway_fee"
	TransactionReferral   TransactionKind = "referral_bonus"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

type Transaction struct {
	ID         uuid.UUID
	TelegramID int64
	Kind       TransactionKind
	Symbol     string
	Amount     decimal.Decimal
	Status     TransactionStatus
	Address    *string
	BOC        *string
	CreatedAt  time.Time
}

// Exchange converts Amount of From into To at registry prices.
type Exchange struct {
	TelegramID int64
	From       string
	To         string
	Amount     decimal.Decimal
}

type ExchangeResult struct {
	Debited  decimal.Decimal
	Credited decimal.Decimal
}
