package service

import (
	"context"
	"errors"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/internal/tonconnect"
	"ton_mining_miniapp/pkg/ton"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletNotConnected  = tonconnect.ErrWalletNotConnected

	ErrDepositNotFound = errors.New("deposit not found")
	ErrDepositSettled  = errors.New("deposit already settled")

	ErrTokenNotFound = errors.New("token not found")
	ErrSameToken     = errors.New("cannot exchange a token for itself")

	ErrMissionNotFound         = errors.New("mission not found")
	ErrMissionAlreadyCompleted = errors.New("mission already completed")

	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrAlreadyJoined    = errors.New("already joined this giveaway")
	ErrGiveawayClosed   = errors.New("giveaway is not open")
	ErrGiveawayFull     = errors.New("giveaway is full")
	ErrInvalidReaction  = errors.New("unsupported reaction")

	ErrServerNotFound        = errors.New("server not found")
	ErrSessionNotFound       = errors.New("mining session not found")
	ErrSessionNotFinished    = errors.New("mining session is still running")
	ErrSessionAlreadyClaimed = errors.New("mining reward already claimed")

	ErrSpinNotAvailable = errors.New("the required time has not yet passed since your last spin")
	ErrNoPrizes         = errors.New("roulette has no prizes")
)

type UserServiceI interface {
	EnsureUser(ctx context.Context, user *model.User, referrerID *int64) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
	ReferralLink(telegramID int64) string
	SetWalletAddress(ctx context.Context, telegramID int64, address *string)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
	UpdateWalletAddress(ctx context.Context, telegramID int64, address *string) error
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
	RegisterReferral(ctx context.Context, referrerID, referredID int64) (bool, error)
}

type WalletServiceI interface {
	Balances(ctx context.Context, telegramID int64) ([]*model.Holding, error)
	Tokens(ctx context.Context) ([]*model.Token, error)
	History(ctx context.Context, telegramID int64, limit int) ([]*model.Transaction, error)
	Deposit(ctx context.Context, telegramID int64, amount float64) (*model.Transaction, error)
	Exchange(ctx context.Context, ex *model.Exchange) (*model.ExchangeResult, error)
	Withdraw(ctx context.Context, telegramID int64, amount float64) (*model.Transaction, error)
	SettleDeposit(ctx context.Context, transactionID uuid.UUID, received bool) (*model.Transaction, error)
}

type WalletRepository interface {
	ListTokens(ctx context.Context) ([]*model.Token, error)
	GetToken(ctx context.Context, symbol string) (*model.Token, error)
	GetHoldings(ctx context.Context, telegramID int64) ([]*model.Holding, error)
	ListTransactions(ctx context.Context, telegramID int64, limit int) ([]*model.Transaction, error)
	RecordDeposit(ctx context.Context, tx *model.Transaction) error
	SettleDeposit(ctx context.Context, transactionID uuid.UUID, status model.TransactionStatus) (*model.Transaction, error)
	ApplyExchange(ctx context.Context, ex *model.Exchange, result *model.ExchangeResult) error
	RequestWithdrawal(ctx context.Context, tx *model.Transaction) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

// BalanceCache is the app-wide cached balance, invalidated on change events.
type BalanceCache interface {
	GetBalances(ctx context.Context, telegramID int64) ([]*model.Holding, error)
	SetBalances(ctx context.Context, telegramID int64, holdings []*model.Holding) error
	InvalidateBalances(ctx context.Context, telegramID int64) error
	InvalidateAllBalances(ctx context.Context) error
}

type TransferClient interface {
	Limits() ton.Limits
	TTL() time.Duration
	Submit(ctx context.Context, telegramID int64, t tonconnect.Transfer) (*tonconnect.Receipt, error)
}

type WalletAddressProvider interface {
	WalletAddress(telegramID int64) (string, bool)
}

type MissionServiceI interface {
	List(ctx context.Context, telegramID int64) ([]*model.UserMission, error)
	Complete(ctx context.Context, telegramID int64, missionID uuid.UUID) (*model.Mission, error)
}

type MissionRepository interface {
	ListMissions(ctx context.Context, telegramID int64) ([]*model.UserMission, error)
	CompleteMission(ctx context.Context, telegramID int64, missionID uuid.UUID) (*model.Mission, error)
}

type GiveawayServiceI interface {
	List(ctx context.Context, telegramID int64) ([]*model.Giveaway, error)
	Get(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error)
	Join(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error)
	ToggleReaction(ctx context.Context, giveawayID uuid.UUID, telegramID int64, emoji string) (*model.Reaction, error)
	Reactions(ctx context.Context, giveawayID uuid.UUID, telegramID int64) ([]*model.Reaction, error)
	AdvanceExpired(ctx context.Context) (int, error)
}

type GiveawayRepository interface {
	ListGiveaways(ctx context.Context, telegramID int64, statuses ...model.GiveawayStatus) ([]*model.Giveaway, error)
	GetGiveaway(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error)
	JoinGiveaway(ctx context.Context, giveawayID uuid.UUID, telegramID int64, now time.Time) (*model.Giveaway, error)
	ListExpiredGiveaways(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	AdvanceGiveawayState(ctx context.Context, giveawayID uuid.UUID) (string, error)
	ToggleReaction(ctx context.Context, giveawayID uuid.UUID, telegramID int64, emoji string) (bool, error)
	ReactionCount(ctx context.Context, giveawayID uuid.UUID, emoji string) (int, error)
	ListReactions(ctx context.Context, giveawayID uuid.UUID, telegramID int64) ([]*model.Reaction, error)
}

type MiningServiceI interface {
	Servers(ctx context.Context) ([]*model.Server, error)
	Rent(ctx context.Context, telegramID int64, serverID int) (*model.MiningSession, error)
	Sessions(ctx context.Context, telegramID int64) ([]*model.MiningSession, error)
	Claim(ctx context.Context, telegramID int64, sessionID uuid.UUID) (*model.MiningSession, error)
	Now() time.Time
}

type MiningRepository interface {
	ListServers(ctx context.Context) ([]*model.Server, error)
	RentServer(ctx context.Context, telegramID int64, serverID int, now time.Time) (*model.MiningSession, error)
	ListSessions(ctx context.Context, telegramID int64, includeClaimed bool) ([]*model.MiningSession, error)
	ClaimSession(ctx context.Context, telegramID int64, sessionID uuid.UUID, now time.Time) (*model.MiningSession, error)
}

type RouletteServiceI interface {
	GetStatus(ctx context.Context, telegramID int64) (*model.RouletteStatus, error)
	Spin(ctx context.Context, telegramID int64) (*model.Spin, error)
}

type RouletteRepository interface {
	ListPrizes(ctx context.Context) ([]*model.Prize, error)
	GetLastSpin(ctx context.Context, telegramID int64) (*time.Time, error)
	RecordSpin(ctx context.Context, spin *model.Spin, notBefore time.Time) error
}

// Notifier delivers a chat message outside of the Mini App.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string) error
}

type AvatarSource interface {
	AvatarPath(ctx context.Context, telegramID int64) (string, error)
}

// mapRepositoryError translates the errors shared by every repository.
func mapRepositoryError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrInsufficientBalance):
		return ErrInsufficientBalance
	}
	return err
}
