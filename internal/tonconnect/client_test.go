package tonconnect

import (
	"context"
	"testing"
	"time"

	"ton_mining_miniapp/pkg/ton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAddress = "EQD4FPq-PRD4YtG87wgL7AErgQwHUMFQ-JxyYw8jzBPhqjfH"

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendTransaction(ctx context.Context, telegramID int64, req Request) (*Receipt, error) {
	args := m.Called(ctx, telegramID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Receipt), args.Error(1)
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) Confirm(ctx context.Context, telegramID int64, prompt Prompt) (bool, error) {
	args := m.Called(ctx, telegramID, prompt)
	return args.Bool(0), args.Error(1)
}

func TestClient_Submit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	expectedValidUntil := now.Add(DefaultTTL).Unix()

	tests := []struct {
		name          string
		transfer      Transfer
		setupMocks    func(s *mockSender, c *mockConfirmer)
		expectedError error
		expectedBOC   string
	}{
		{
			name:     "Small transfer is sent without confirmation",
			transfer: Transfer{To: testAddress, Amount: 0.5, Payload: "deposit"},
			setupMocks: func(s *mockSender, c *mockConfirmer) {
				s.On("SendTransaction", mock.Anything, int64(42), Request{
					ValidUntil: expectedValidUntil,
					Messages:   []Message{{Address: testAddress, Amount: "500000000", Payload: "deposit"}},
				}).Return(&Receipt{BOC: "te6cc"}, nil)
			},
			expectedBOC: "te6cc",
		},
		{
			name:     "Large transfer confirmed",
			transfer: Transfer{To: testAddress, Amount: 150},
			setupMocks: func(s *mockSender, c *mockConfirmer) {
				c.On("Confirm", mock.Anything, int64(42), Prompt{To: testAddress, Amount: 150}).
					Return(true, nil)
				s.On("SendTransaction", mock.Anything, int64(42), mock.MatchedBy(func(req Request) bool {
					return len(req.Messages) == 1 && req.Messages[0].Amount == "150000000000"
				})).Return(&Receipt{BOC: "big"}, nil)
			},
			expectedBOC: "big",
		},
		{
			name:     "Large transfer declined sends nothing",
			transfer: Transfer{To: testAddress, Amount: 100},
			setupMocks: func(s *mockSender, c *mockConfirmer) {
				c.On("Confirm", mock.Anything, int64(42), mock.Anything).Return(false, nil)
			},
			expectedError: ton.ErrCancelled,
		},
		{
			name:          "Zero amount",
			transfer:      Transfer{To: testAddress, Amount: 0},
			setupMocks:    func(s *mockSender, c *mockConfirmer) {},
			expectedError: ton.ErrInvalidAmount,
		},
		{
			name:          "Above maximum is rejected before confirmation",
			transfer:      Transfer{To: testAddress, Amount: 1001},
			setupMocks:    func(s *mockSender, c *mockConfirmer) {},
			expectedError: ton.ErrAboveMaximum,
		},
		{
			name:          "Bad address",
			transfer:      Transfer{To: "nowhere", Amount: 1},
			setupMocks:    func(s *mockSender, c *mockConfirmer) {},
			expectedError: ton.ErrInvalidAddress,
		},
		{
			name:          "Large transfer to bad address is rejected before confirmation",
			transfer:      Transfer{To: "nowhere", Amount: 150},
			setupMocks:    func(s *mockSender, c *mockConfirmer) {},
			expectedError: ton.ErrInvalidAddress,
		},
		{
			name:     "Wallet not connected",
			transfer: Transfer{To: testAddress, Amount: 1},
			setupMocks: func(s *mockSender, c *mockConfirmer) {
				s.On("SendTransaction", mock.Anything, int64(42), mock.Anything).
					Return(nil, ErrWalletNotConnected)
			},
			expectedError: ErrWalletNotConnected,
		},
		{
			name:     "User rejects in wallet",
			transfer: Transfer{To: testAddress, Amount: 1},
			setupMocks: func(s *mockSender, c *mockConfirmer) {
				s.On("SendTransaction", mock.Anything, int64(42), mock.Anything).
					Return(nil, ton.ErrCancelled)
			},
			expectedError: ton.ErrCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{}
			confirmer := &mockConfirmer{}
			tt.setupMocks(sender, confirmer)

			client := NewClient(sender, confirmer, ton.DefaultLimits, WithClock(func() time.Time { return now }))

			receipt, err := client.Submit(context.Background(), 42, tt.transfer)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, receipt)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedBOC, receipt.BOC)
			}

			sender.AssertExpectations(t)
			confirmer.AssertExpectations(t)
			if tt.expectedError == ton.ErrCancelled && tt.transfer.Amount >= ton.DefaultLimits.LargeTransfer {
				sender.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything, mock.Anything)
			}
			if tt.expectedError == ton.ErrInvalidAddress {
				confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestClient_Build(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	client := NewClient(nil, nil, ton.DefaultLimits, WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	req, err := client.Build(Transfer{To: testAddress, Amount: 0.0005})
	require.NoError(t, err)

	assert.Equal(t, now.Add(time.Minute).Unix(), req.ValidUntil)
	assert.Equal(t, now.Add(time.Minute), req.Expires())
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "500000", req.Messages[0].Amount)
	assert.Empty(t, req.Messages[0].Payload)
}
