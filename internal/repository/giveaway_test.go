package repository

import (
	"context"
	"testing"
	"time"

	"ton_mining_miniapp/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var giveawayColumns = []string{
	"giveaway_id", "title", "description", "status", "fee_symbol", "entry_fee", "prize_pool",
	"max_participants", "starts_at", "ends_at", "participants", "joined",
}

func TestRepository_JoinGiveaway(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	giveawayID := uuid.New()

	lockQuery := `SELECT giveaway_id FROM giveaways WHERE giveaway_id = \$1 FOR UPDATE`
	selectQuery := `SELECT g\.giveaway_id, .* FROM giveaways g WHERE g\.giveaway_id = \$2`
	participantQuery := `INSERT INTO giveaway_participants`

	type row struct {
		status       model.GiveawayStatus
		fee          string
		max          int64
		participants int64
		joined       bool
	}
	expect := func(m sqlmock.Sqlmock, r row) {
		m.ExpectBegin()
		m.ExpectQuery(lockQuery).WithArgs(giveawayID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"giveaway_id"}).AddRow(giveawayID.String()))
		m.ExpectQuery(selectQuery).WithArgs(int64(7), giveawayID.String()).
			WillReturnRows(sqlmock.NewRows(giveawayColumns).AddRow(
				giveawayID.String(), "Weekly drop", "", string(r.status), model.SymbolTON, r.fee, "100",
				r.max, now.Add(-time.Hour), now.Add(time.Hour), r.participants, r.joined,
			))
	}

	tests := []struct {
		name                 string
		mockSetup            func(sqlmock.Sqlmock)
		expectedError        error
		expectedParticipants int
	}{
		{
			name: "Free giveaway with room",
			mockSetup: func(m sqlmock.Sqlmock) {
				expect(m, row{status: model.GiveawayActive, fee: "0", max: 3, participants: 2})
				m.ExpectExec(participantQuery).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
			expectedParticipants: 3,
		},
		{
			name: "Capacity reached",
			mockSetup: func(m sqlmock.Sqlmock) {
				expect(m, row{status: model.GiveawayActive, fee: "0", max: 3, participants: 3})
				m.ExpectRollback()
			},
			expectedError: ErrGiveawayFull,
		},
		{
			name: "Second join by the same user",
			mockSetup: func(m sqlmock.Sqlmock) {
				expect(m, row{status: model.GiveawayActive, fee: "0", max: 3, participants: 1, joined: true})
				m.ExpectRollback()
			},
			expectedError: ErrDuplicate,
		},
		{
			name: "Concurrent join hits the participants key",
			mockSetup: func(m sqlmock.Sqlmock) {
				expect(m, row{status: model.GiveawayActive, fee: "0"})
				m.ExpectExec(participantQuery).WillReturnError(&pq.Error{Code: "23505"})
				m.ExpectRollback()
			},
			expectedError: ErrDuplicate,
		},
		{
			name: "Closed giveaway",
			mockSetup: func(m sqlmock.Sqlmock) {
				expect(m, row{status: model.GiveawayFinished, fee: "0"})
				m.ExpectRollback()
			},
			expectedError: ErrGiveawayClosed,
		},
		{
			name: "Entry fee above balance undoes the join",
			mockSetup: func(m sqlmock.Sqlmock) {
				expect(m, row{status: model.GiveawayActive, fee: "0.5"})
				m.ExpectExec(participantQuery).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(debitQuery).
					WithArgs("0.5", sqlmock.AnyArg(), model.SymbolTON, int64(7), "0.5").
					WillReturnResult(sqlmock.NewResult(0, 0))
				m.ExpectRollback()
			},
			expectedError: ErrInsufficientBalance,
		},
		{
			name: "Paid join",
			mockSetup: func(m sqlmock.Sqlmock) {
				expect(m, row{status: model.GiveawayActive, fee: "0.5"})
				m.ExpectExec(participantQuery).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(debitQuery).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(transactionQuery).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
			expectedParticipants: 1,
		},
		{
			name: "Unknown giveaway",
			mockSetup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"giveaway_id"}))
				m.ExpectRollback()
			},
			expectedError: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, dbMock := newMockRepository(t)
			tt.mockSetup(dbMock)

			g, err := repo.JoinGiveaway(context.Background(), giveawayID, 7, now)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, g)
			} else {
				require.NoError(t, err)
				assert.True(t, g.Joined)
				assert.Equal(t, tt.expectedParticipants, g.Participants)
			}
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}
