package mocks

import (
	"context"

	"ton_mining_miniapp/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) EnsureUser(ctx context.Context, user *model.User, referrerID *int64) (*model.User, error) {
	args := m.Called(ctx, user, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

func (m *MockUserService) ReferralLink(telegramID int64) string {
	args := m.Called(telegramID)
	return args.String(0)
}

func (m *MockUserService) SetWalletAddress(ctx context.Context, telegramID int64, address *string) {
	m.Called(ctx, telegramID, address)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Balances(ctx context.Context, telegramID int64) ([]*model.Holding, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Holding), args.Error(1)
}

func (m *MockWalletService) Tokens(ctx context.Context) ([]*model.Token, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Token), args.Error(1)
}

func (m *MockWalletService) History(ctx context.Context, telegramID int64, limit int) ([]*model.Transaction, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockWalletService) Deposit(ctx context.Context, telegramID int64, amount float64) (*model.Transaction, error) {
	args := m.Called(ctx, telegramID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockWalletService) Exchange(ctx context.Context, ex *model.Exchange) (*model.ExchangeResult, error) {
	args := m.Called(ctx, ex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExchangeResult), args.Error(1)
}

func (m *MockWalletService) Withdraw(ctx context.Context, telegramID int64, amount float64) (*model.Transaction, error) {
	args := m.Called(ctx, telegramID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

type MockGiveawayService struct {
	mock.Mock
}

func (m *MockGiveawayService) List(ctx context.Context, telegramID int64) ([]*model.Giveaway, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Giveaway), args.Error(1)
}

func (m *MockGiveawayService) Get(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error) {
	args := m.Called(ctx, giveawayID, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Giveaway), args.Error(1)
}

func (m *MockGiveawayService) Join(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error) {
	args := m.Called(ctx, giveawayID, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Giveaway), args.Error(1)
}

func (m *MockGiveawayService) ToggleReaction(ctx context.Context, giveawayID uuid.UUID, telegramID int64, emoji string) (*model.Reaction, error) {
	args := m.Called(ctx, giveawayID, telegramID, emoji)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reaction), args.Error(1)
}

func (m *MockGiveawayService) Reactions(ctx context.Context, giveawayID uuid.UUID, telegramID int64) ([]*model.Reaction, error) {
	args := m.Called(ctx, giveawayID, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Reaction), args.Error(1)
}

func (m *MockGiveawayService) AdvanceExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockWalletService) SettleDeposit(ctx context.Context, transactionID uuid.UUID, received bool) (*model.Transaction, error) {
	args := m.Called(ctx, transactionID, received)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}
