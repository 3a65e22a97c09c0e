package repository

import (
	"context"
	"testing"
	"time"

	"ton_mining_miniapp/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionColumns = []string{
	"session_id", "telegram_id", "server_id", "server_name", "reward_symbol",
	"reward", "started_at", "ends_at", "claimed_at",
}

func TestRepository_ClaimSession(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	sessionID := uuid.New()
	selectQuery := `SELECT us\.session_id, .* FROM user_servers us JOIN servers s ON s\.server_id = us\.server_id WHERE .* FOR UPDATE OF us`

	sessionRow := func(endsAt time.Time, claimedAt *time.Time) *sqlmock.Rows {
		row := sqlmock.NewRows(sessionColumns)
		if claimedAt != nil {
			return row.AddRow(sessionID.String(), int64(7), int64(1), "Starter", model.SymbolMined, "300", now.Add(-time.Hour), endsAt, *claimedAt)
		}
		return row.AddRow(sessionID.String(), int64(7), int64(1), "Starter", model.SymbolMined, "300", now.Add(-time.Hour), endsAt, nil)
	}
	earlier := now.Add(-time.Minute)

	tests := []struct {
		name          string
		mockSetup     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "Finished session pays out once",
			mockSetup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(selectQuery).WillReturnRows(sessionRow(now, nil))
				m.ExpectExec(`UPDATE user_servers SET claimed_at = \$1 WHERE session_id = \$2`).
					WithArgs(now, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(creditQuery).
					WithArgs(int64(7), model.SymbolMined, "300", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(transactionQuery).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
		},
		{
			name: "Claimed session is not paid again",
			mockSetup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(selectQuery).WillReturnRows(sessionRow(now.Add(-30*time.Minute), &earlier))
				m.ExpectRollback()
			},
			expectedError: ErrAlreadyClaimed,
		},
		{
			name: "Running session",
			mockSetup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(selectQuery).WillReturnRows(sessionRow(now.Add(time.Second), nil))
				m.ExpectRollback()
			},
			expectedError: ErrSessionNotFinished,
		},
		{
			name: "Someone else's session",
			mockSetup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(selectQuery).WillReturnRows(sqlmock.NewRows(sessionColumns))
				m.ExpectRollback()
			},
			expectedError: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, dbMock := newMockRepository(t)
			tt.mockSetup(dbMock)

			session, err := repo.ClaimSession(context.Background(), 7, sessionID, now)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				if assert.NotNil(t, session.ClaimedAt) {
					assert.Equal(t, now, *session.ClaimedAt)
				}
			}
			assert.NoError(t, dbMock.ExpectationsWereMet())
		})
	}
}

func TestRepository_RentServerChargesPrice(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	serverQuery := `SELECT server_id, name, price_ton, reward_symbol, reward, duration_seconds FROM servers WHERE .*`
	serverRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(serverColumns).AddRow(int64(2), "Pro", "1.5", model.SymbolMined, "900", int64(3600))
	}

	t.Run("Short on TON", func(t *testing.T) {
		repo, dbMock := newMockRepository(t)
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(serverQuery).WillReturnRows(serverRow())
		dbMock.ExpectExec(debitQuery).
			WithArgs("1.5", sqlmock.AnyArg(), model.SymbolTON, int64(7), "1.5").
			WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectRollback()

		session, err := repo.RentServer(context.Background(), 7, 2, now)

		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Nil(t, session)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Paid rent opens a session", func(t *testing.T) {
		repo, dbMock := newMockRepository(t)
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(serverQuery).WillReturnRows(serverRow())
		dbMock.ExpectExec(debitQuery).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(transactionQuery).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(`INSERT INTO user_servers`).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		session, err := repo.RentServer(context.Background(), 7, 2, now)

		require.NoError(t, err)
		assert.Equal(t, now.Add(time.Hour), session.EndsAt)
		assert.Nil(t, session.ClaimedAt)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}
