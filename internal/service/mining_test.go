package service

import (
	"context"
	"testing"
	"time"

	"ton_mining_miniapp/internal/model"
	"ton_mining_miniapp/internal/repository"
	"ton_mining_miniapp/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMiningService_Rent(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		repoErr       error
		expectedError error
	}{
		{name: "Rented"},
		{name: "Insufficient TON", repoErr: repository.ErrInsufficientBalance, expectedError: ErrInsufficientBalance},
		{name: "Unknown server", repoErr: repository.ErrNotFound, expectedError: ErrServerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockMiningRepository{}
			service := NewMiningService(repo)
			service.now = func() time.Time { return now }

			var session *model.MiningSession
			if tt.repoErr == nil {
				session = &model.MiningSession{
					SessionID: uuid.New(),
					ServerID:  2,
					Reward:    decimal.NewFromInt(40),
					StartedAt: now,
					EndsAt:    now.Add(6 * time.Hour),
				}
				repo.On("RentServer", mock.Anything, int64(9), 2, now).Return(session, nil)
			} else {
				repo.On("RentServer", mock.Anything, int64(9), 2, now).Return(nil, tt.repoErr)
			}

			got, err := service.Rent(context.Background(), 9, 2)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, session, got)
				assert.Equal(t, 6*time.Hour, got.Remaining(now))
				assert.False(t, got.Claimable(now))
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestMiningService_Claim(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	tests := []struct {
		name          string
		repoErr       error
		expectedError error
	}{
		{name: "Claimed"},
		{name: "Still running", repoErr: repository.ErrSessionNotFinished, expectedError: ErrSessionNotFinished},
		{name: "Claimed twice", repoErr: repository.ErrAlreadyClaimed, expectedError: ErrSessionAlreadyClaimed},
		{name: "Someone else's session", repoErr: repository.ErrNotFound, expectedError: ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockMiningRepository{}
			service := NewMiningService(repo)
			service.now = func() time.Time { return now }

			if tt.repoErr == nil {
				claimedAt := now
				repo.On("ClaimSession", mock.Anything, int64(9), id, now).
					Return(&model.MiningSession{SessionID: id, ClaimedAt: &claimedAt}, nil)
			} else {
				repo.On("ClaimSession", mock.Anything, int64(9), id, now).Return(nil, tt.repoErr)
			}

			got, err := service.Claim(context.Background(), 9, id)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, got.ClaimedAt)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestMiningService_Sessions(t *testing.T) {
	repo := &mocks.MockMiningRepository{}
	service := NewMiningService(repo)
	repo.On("ListSessions", mock.Anything, int64(9), false).Return([]*model.MiningSession{{}}, nil)

	sessions, err := service.Sessions(context.Background(), 9)

	assert.NoError(t, err)
	assert.Len(t, sessions, 1)
	repo.AssertExpectations(t)
}
