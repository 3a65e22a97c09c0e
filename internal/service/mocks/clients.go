package mocks

import (
	"context"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/internal/tonconnect"
	"ton_mining_miniapp/pkg/ton"

	"github.com/stretchr/testify/mock"
)

type MockBalanceCache struct {
	mock.Mock
}

func (m *MockBalanceCache) GetBalances(ctx context.Context, telegramID int64) ([]*model.Holding, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Holding), args.Error(1)
}

func (m *MockBalanceCache) SetBalances(ctx context.Context, telegramID int64, holdings []*model.Holding) error {
	args := m.Called(ctx, telegramID, holdings)
	return args.Error(0)
}

func (m *MockBalanceCache) InvalidateBalances(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockBalanceCache) InvalidateAllBalances(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockTransferClient struct {
	mock.Mock
}

func (m *MockTransferClient) Limits() ton.Limits {
	args := m.Called()
	return args.Get(0).(ton.Limits)
}

func (m *MockTransferClient) TTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *MockTransferClient) Submit(ctx context.Context, telegramID int64, t tonconnect.Transfer) (*tonconnect.Receipt, error) {
	args := m.Called(ctx, telegramID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tonconnect.Receipt), args.Error(1)
}

type MockWalletAddressProvider struct {
	mock.Mock
}

func (m *MockWalletAddressProvider) WalletAddress(telegramID int64) (string, bool) {
	args := m.Called(telegramID)
	return args.String(0), args.Bool(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, telegramID int64, text string) error {
	args := m.Called(ctx, telegramID, text)
	return args.Error(0)
}

type MockChangeFeed struct {
	mock.Mock
}

func (m *MockChangeFeed) Subscribe(table string) (<-chan repository.ChangeEvent, func(), error) {
	args := m.Called(table)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(<-chan repository.ChangeEvent), args.Get(1).(func()), args.Error(2)
}

type MockRefreshPublisher struct {
	mock.Mock
}

func (m *MockRefreshPublisher) Publish(telegramID int64, table string) {
	m.Called(telegramID, table)
}

func (m *MockRefreshPublisher) Broadcast(table string) {
	m.Called(table)
}
