package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/internal/service/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testPrizes = []*model.Prize{
	{PrizeID: 1, Label: "Nothing", Symbol: model.SymbolTON, Amount: decimal.Zero, Weight: 50},
	{PrizeID: 2, Label: "0.1 TON", Symbol: model.SymbolTON, Amount: decimal.RequireFromString("0.1"), Weight: 30},
	{PrizeID: 3, Label: "100 MINE", Symbol: model.SymbolMined, Amount: decimal.NewFromInt(100), Weight: 20},
	{PrizeID: 4, Label: "Retired", Symbol: model.SymbolTON, Amount: decimal.NewFromInt(5), Weight: 0},
}

var errStoreDown = errors.New("connection reset by peer")

func newTestRouletteService(repo *mocks.MockRouletteRepository, now time.Time, pick int) *RouletteService {
	s := NewRouletteService(repo)
	s.now = func() time.Time { return now }
	s.pick = func(n int) (int, error) { return pick % n, nil }
	return s
}

func TestRouletteService_GetStatus(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		telegramID      int64
		mockSetup       func(*mocks.MockRouletteRepository)
		expectedError   error
		checkAdditional func(*testing.T, *model.RouletteStatus)
	}{
		{
			name:       "Store failure",
			telegramID: 123,
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				repo.On("GetLastSpin", mock.Anything, int64(123)).
					Return(nil, errStoreDown)
			},
			expectedError: errStoreDown,
		},
		{
			name:       "Never spun before",
			telegramID: 124,
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				repo.On("GetLastSpin", mock.Anything, int64(124)).Return(nil, nil)
				repo.On("ListPrizes", mock.Anything).Return(testPrizes, nil)
			},
			checkAdditional: func(t *testing.T, status *model.RouletteStatus) {
				assert.True(t, status.HasNeverSpun)
				assert.True(t, status.IsAvailable)
				assert.Nil(t, status.NextSpinAt)
				assert.Len(t, status.Prizes, len(testPrizes))
			},
		},
		{
			name:       "Recently spun (not available)",
			telegramID: 125,
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				last := now.Add(-12 * time.Hour)
				repo.On("GetLastSpin", mock.Anything, int64(125)).Return(&last, nil)
				repo.On("ListPrizes", mock.Anything).Return(testPrizes, nil)
			},
			checkAdditional: func(t *testing.T, status *model.RouletteStatus) {
				assert.False(t, status.IsAvailable)
				assert.False(t, status.HasNeverSpun)
				if assert.NotNil(t, status.NextSpinAt) {
					assert.Equal(t, now.Add(12*time.Hour), *status.NextSpinAt)
				}
			},
		},
		{
			name:       "Cooldown just elapsed",
			telegramID: 126,
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				last := now.Add(-SpinCooldown)
				repo.On("GetLastSpin", mock.Anything, int64(126)).Return(&last, nil)
				repo.On("ListPrizes", mock.Anything).Return(testPrizes, nil)
			},
			checkAdditional: func(t *testing.T, status *model.RouletteStatus) {
				assert.True(t, status.IsAvailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockRouletteRepository{}
			tt.mockSetup(repo)
			service := newTestRouletteService(repo, now, 0)

			status, err := service.GetStatus(context.Background(), tt.telegramID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, status)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.telegramID, status.TelegramID)
			}

			if tt.checkAdditional != nil {
				tt.checkAdditional(t, status)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestRouletteService_Spin(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	notBefore := now.Add(-SpinCooldown)

	tests := []struct {
		name          string
		pick          int
		mockSetup     func(*mocks.MockRouletteRepository)
		expectedPrize int
		expectedError error
	}{
		{
			name: "Draw lands on nothing",
			pick: 10,
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				repo.On("GetLastSpin", mock.Anything, int64(1)).Return(nil, nil)
				repo.On("ListPrizes", mock.Anything).Return(testPrizes, nil)
				repo.On("RecordSpin", mock.Anything, mock.AnythingOfType("*model.Spin"), notBefore).Return(nil)
			},
			expectedPrize: 1,
		},
		{
			name: "Draw lands on second prize",
			pick: 50,
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				repo.On("GetLastSpin", mock.Anything, int64(1)).Return(nil, nil)
				repo.On("ListPrizes", mock.Anything).Return(testPrizes, nil)
				repo.On("RecordSpin", mock.Anything, mock.AnythingOfType("*model.Spin"), notBefore).Return(nil)
			},
			expectedPrize: 2,
		},
		{
			name: "Last weighted prize, zero weight skipped",
			pick: 99,
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				repo.On("GetLastSpin", mock.Anything, int64(1)).Return(nil, nil)
				repo.On("ListPrizes", mock.Anything).Return(testPrizes, nil)
				repo.On("RecordSpin", mock.Anything, mock.AnythingOfType("*model.Spin"), notBefore).Return(nil)
			},
			expectedPrize: 3,
		},
		{
			name: "Cooldown not elapsed",
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				last := now.Add(-time.Hour)
				repo.On("GetLastSpin", mock.Anything, int64(1)).Return(&last, nil)
				repo.On("ListPrizes", mock.Anything).Return(testPrizes, nil)
			},
			expectedError: ErrSpinNotAvailable,
		},
		{
			name: "Concurrent spin wins the race",
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				repo.On("GetLastSpin", mock.Anything, int64(1)).Return(nil, nil)
				repo.On("ListPrizes", mock.Anything).Return(testPrizes, nil)
				repo.On("RecordSpin", mock.Anything, mock.Anything, notBefore).Return(repository.ErrAlreadyClaimed)
			},
			expectedError: ErrSpinNotAvailable,
		},
		{
			name: "Empty prize table",
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				repo.On("GetLastSpin", mock.Anything, int64(1)).Return(nil, nil)
				repo.On("ListPrizes", mock.Anything).Return([]*model.Prize{}, nil)
			},
			expectedError: ErrNoPrizes,
		},
		{
			name: "Store failure",
			mockSetup: func(repo *mocks.MockRouletteRepository) {
				repo.On("GetLastSpin", mock.Anything, int64(1)).Return(nil, errors.New("connection reset"))
			},
			expectedError: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockRouletteRepository{}
			tt.mockSetup(repo)
			service := newTestRouletteService(repo, now, tt.pick)

			spin, err := service.Spin(context.Background(), 1)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.Nil(t, spin)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedPrize, spin.Prize.PrizeID)
				assert.Equal(t, now, spin.SpunAt)
				assert.Equal(t, int64(1), spin.TelegramID)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestCryptoPicker(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := cryptoPicker(7)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 7)
	}
}
