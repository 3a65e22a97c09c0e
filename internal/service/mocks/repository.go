package mocks

import (
	"context"
	"time"

	"ton_mining_miniapp/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUserProfile(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateWalletAddress(ctx context.Context, telegramID int64, address *string) error {
	args := m.Called(ctx, telegramID, address)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

func (m *MockUserRepository) RegisterReferral(ctx context.Context, referrerID, referredID int64) (bool, error) {
	args := m.Called(ctx, referrerID, referredID)
	return args.Bool(0), args.Error(1)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) ListTokens(ctx context.Context) ([]*model.Token, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Token), args.Error(1)
}

func (m *MockWalletRepository) GetToken(ctx context.Context, symbol string) (*model.Token, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Token), args.Error(1)
}

func (m *MockWalletRepository) GetHoldings(ctx context.Context, telegramID int64) ([]*model.Holding, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Holding), args.Error(1)
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, telegramID int64, limit int) ([]*model.Transaction, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockWalletRepository) RecordDeposit(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockWalletRepository) SettleDeposit(ctx context.Context, transactionID uuid.UUID, status model.TransactionStatus) (*model.Transaction, error) {
	args := m.Called(ctx, transactionID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockWalletRepository) ApplyExchange(ctx context.Context, ex *model.Exchange, result *model.ExchangeResult) error {
	args := m.Called(ctx, ex, result)
	return args.Error(0)
}

func (m *MockWalletRepository) RequestWithdrawal(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockWalletRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockMissionRepository struct {
	mock.Mock
}

func (m *MockMissionRepository) ListMissions(ctx context.Context, telegramID int64) ([]*model.UserMission, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserMission), args.Error(1)
}

func (m *MockMissionRepository) CompleteMission(ctx context.Context, telegramID int64, missionID uuid.UUID) (*model.Mission, error) {
	args := m.Called(ctx, telegramID, missionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Mission), args.Error(1)
}

type MockGiveawayRepository struct {
	mock.Mock
}

func (m *MockGiveawayRepository) ListGiveaways(ctx context.Context, telegramID int64, statuses ...model.GiveawayStatus) ([]*model.Giveaway, error) {
	args := m.Called(ctx, telegramID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) GetGiveaway(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error) {
	args := m.Called(ctx, giveawayID, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) JoinGiveaway(ctx context.Context, giveawayID uuid.UUID, telegramID int64, now time.Time) (*model.Giveaway, error) {
	args := m.Called(ctx, giveawayID, telegramID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Giveaway), args.Error(1)
}

func (m *MockGiveawayRepository) ListExpiredGiveaways(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockGiveawayRepository) AdvanceGiveawayState(ctx context.Context, giveawayID uuid.UUID) (string, error) {
	args := m.Called(ctx, giveawayID)
	return args.String(0), args.Error(1)
}

func (m *MockGiveawayRepository) ToggleReaction(ctx context.Context, giveawayID uuid.UUID, telegramID int64, emoji string) (bool, error) {
	args := m.Called(ctx, giveawayID, telegramID, emoji)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiveawayRepository) ReactionCount(ctx context.Context, giveawayID uuid.UUID, emoji string) (int, error) {
	args := m.Called(ctx, giveawayID, emoji)
	return args.Int(0), args.Error(1)
}

func (m *MockGiveawayRepository) ListReactions(ctx context.Context, giveawayID uuid.UUID, telegramID int64) ([]*model.Reaction, error) {
	args := m.Called(ctx, giveawayID, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Reaction), args.Error(1)
}

type MockMiningRepository struct {
	mock.Mock
}

func (m *MockMiningRepository) ListServers(ctx context.Context) ([]*model.Server, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Server), args.Error(1)
}

func (m *MockMiningRepository) RentServer(ctx context.Context, telegramID int64, serverID int, now time.Time) (*model.MiningSession, error) {
	args := m.Called(ctx, telegramID, serverID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MiningSession), args.Error(1)
}

func (m *MockMiningRepository) ListSessions(ctx context.Context, telegramID int64, includeClaimed bool) ([]*model.MiningSession, error) {
	args := m.Called(ctx, telegramID, includeClaimed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.MiningSession), args.Error(1)
}

func (m *MockMiningRepository) ClaimSession(ctx context.Context, telegramID int64, sessionID uuid.UUID, now time.Time) (*model.MiningSession, error) {
	args := m.Called(ctx, telegramID, sessionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MiningSession), args.Error(1)
}

type MockRouletteRepository struct {
	mock.Mock
}

func (m *MockRouletteRepository) ListPrizes(ctx context.Context) ([]*model.Prize, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Prize), args.Error(1)
}

func (m *MockRouletteRepository) GetLastSpin(ctx context.Context, telegramID int64) (*time.Time, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockRouletteRepository) RecordSpin(ctx context.Context, spin *model.Spin, notBefore time.Time) error {
	args := m.Called(ctx, spin, notBefore)
	return args.Error(0)
}
