package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func subscription(feed *mocks.MockChangeFeed, table string) (chan repository.ChangeEvent, chan struct{}) {
	ch := make(chan repository.ChangeEvent, 4)
	released := make(chan struct{})
	var ro <-chan repository.ChangeEvent = ch
	feed.On("Subscribe", table).Return(ro, func() {
		close(released)
		close(ch)
	}, nil)
	return ch, released
}

func TestRealtimeService_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	feed := &mocks.MockChangeFeed{}
	publisher := &mocks.MockRefreshPublisher{}
	balances := &mocks.MockBalanceCache{}

	wallets, walletsReleased := subscription(feed, "wallets")
	giveaways, giveawaysReleased := subscription(feed, "giveaways")

	published := make(chan string, 4)
	publisher.On("Publish", int64(8), "wallets").Run(func(mock.Arguments) { published <- "wallets:8" })
	publisher.On("Broadcast", "giveaways").Run(func(mock.Arguments) { published <- "giveaways:*" })
	balances.On("InvalidateBalances", mock.Anything, int64(8)).Return(nil)

	service := NewRealtimeService(feed, publisher, balances, "wallets", "giveaways")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	wallets <- repository.ChangeEvent{Table: "wallets", Op: "UPDATE", TelegramID: 8}
	assert.Equal(t, "wallets:8", receive(t, published))

	giveaways <- repository.ChangeEvent{Table: "giveaways", Op: repository.OpReconnect}
	assert.Equal(t, "giveaways:*", receive(t, published))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	<-walletsReleased
	<-giveawaysReleased
	publisher.AssertExpectations(t)
	balances.AssertExpectations(t)
}

func TestRealtimeService_WalletsReconnectFlushesBalances(t *testing.T) {
	defer goleak.VerifyNone(t)

	feed := &mocks.MockChangeFeed{}
	publisher := &mocks.MockRefreshPublisher{}
	balances := &mocks.MockBalanceCache{}

	wallets, released := subscription(feed, "wallets")

	flushed := make(chan string, 1)
	balances.On("InvalidateAllBalances", mock.Anything).Return(nil)
	publisher.On("Broadcast", "wallets").Run(func(mock.Arguments) { flushed <- "wallets:*" })

	service := NewRealtimeService(feed, publisher, balances, "wallets")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	wallets <- repository.ChangeEvent{Table: "wallets", Op: repository.OpReconnect}
	assert.Equal(t, "wallets:*", receive(t, flushed))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	<-released
	balances.AssertExpectations(t)
	balances.AssertNotCalled(t, "InvalidateBalances", mock.Anything, mock.Anything)
}

func TestRealtimeService_SubscribeFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	feed := &mocks.MockChangeFeed{}
	_, released := subscription(feed, "wallets")
	feed.On("Subscribe", "giveaways").Return(nil, nil, errors.New("feed closed"))

	service := NewRealtimeService(feed, &mocks.MockRefreshPublisher{}, &mocks.MockBalanceCache{}, "wallets", "giveaways")

	err := service.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "giveaways")
	<-released
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for refresh")
		return ""
	}
}
