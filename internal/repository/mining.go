package repository

import (
	"context"
	"fmt"
	"time"

	"ton_mining_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type server struct {
	ServerID        int             `db:"server_id"`
	Name            string          `db:"name"`
	PriceTON        decimal.Decimal `db:"price_ton"`
	RewardSymbol    string          `db:"reward_symbol"`
	Reward          decimal.Decimal `db:"reward"`
	DurationSeconds int64           `db:"duration_seconds"`
}

func (s *server) toModel() *model.Server {
	return &model.Server{
		ServerID:     s.ServerID,
		Name:         s.Name,
		PriceTON:     s.PriceTON,
		RewardSymbol: s.RewardSymbol,
		Reward:       s.Reward,
		Duration:     time.Duration(s.DurationSeconds) * time.Second,
	}
}

type miningSession struct {
	SessionID    uuid.UUID       `db:"session_id"`
	TelegramID   int64           `db:"telegram_id"`
	ServerID     int             `db:"server_id"`
	ServerName   string          `db:"server_name"`
	RewardSymbol string          `db:"reward_symbol"`
	Reward       decimal.Decimal `db:"reward"`
	StartedAt    time.Time       `db:"started_at"`
	EndsAt       time.Time       `db:"ends_at"`
	ClaimedAt    *time.Time      `db:"claimed_at"`
}

func (s *miningSession) toModel() *model.MiningSession {
	return &model.MiningSession{
		SessionID:    s.SessionID,
		TelegramID:   s.TelegramID,
		ServerID:     s.ServerID,
		ServerName:   s.ServerName,
		RewardSymbol: s.RewardSymbol,
		Reward:       s.Reward,
		StartedAt:    s.StartedAt,
		EndsAt:       s.EndsAt,
		ClaimedAt:    s.ClaimedAt,
	}
}

var serverColumns = []string{"server_id", "name", "price_ton", "reward_symbol", "reward", "duration_seconds"}

func sessionSelect() squirrel.SelectBuilder {
	return squirrel.Select(
		"us.session_id",
		"us.telegram_id",
		"us.server_id",
		"s.name AS server_name",
		"us.reward_symbol",
		"us.reward",
		"us.started_at",
		"us.ends_at",
		"us.claimed_at",
	).
		From("user_servers us").
		Join("servers s ON s.server_id = us.server_id").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *Repository) ListServers(ctx context.Context) ([]*model.Server, error) {
	query, args, err := squirrel.
		Select(serverColumns...).
		From("servers").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("price_ton").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*server
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	out := make([]*model.Server, len(rows))
	for i, s := range rows {
		out[i] = s.toModel()
	}
	return out, nil
}

// RentServer pays the server price from the TON balance and starts a mining
// session that ends after the server's duration.
func (r *Repository) RentServer(ctx context.Context, telegramID int64, serverID int, now time.Time) (*model.MiningSession, error) {
	var session *model.MiningSession

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Select(serverColumns...).
			From("servers").
			Where(squirrel.Eq{"server_id": serverID, "is_active": true}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var row server
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return mapError(err)
		}
		srv := row.toModel()

		if srv.PriceTON.IsPositive() {
			if err := r.debitWithTx(ctx, tx, telegramID, model.SymbolTON, srv.PriceTON); err != nil {
				return err
			}
			if err := r.insertTransactionWithTx(ctx, tx, &model.Transaction{
				TelegramID: telegramID,
				Kind:       model.TransactionServerRent,
				Symbol:     model.SymbolTON,
				Amount:     srv.PriceTON.Neg(),
				Status:     model.TransactionCompleted,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}

		session = &model.MiningSession{
			SessionID:    uuid.New(),
			TelegramID:   telegramID,
			ServerID:     srv.ServerID,
			ServerName:   srv.Name,
			RewardSymbol: srv.RewardSymbol,
			Reward:       srv.Reward,
			StartedAt:    now,
			EndsAt:       now.Add(srv.Duration),
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("user_servers").
			SetMap(map[string]interface{}{
				"session_id":    session.SessionID,
				"telegram_id":   telegramID,
				"server_id":     srv.ServerID,
				"reward_symbol": srv.RewardSymbol,
				"reward":        srv.Reward,
				"started_at":    session.StartedAt,
				"ends_at":       session.EndsAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return mapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *Repository) ListSessions(ctx context.Context, telegramID int64, includeClaimed bool) ([]*model.MiningSession, error) {
	builder := sessionSelect().
		Where(squirrel.Eq{"us.telegram_id": telegramID}).
		OrderBy("us.ends_at")
	if !includeClaimed {
		builder = builder.Where(squirrel.Eq{"us.claimed_at": nil})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*miningSession
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list mining sessions: %w", err)
	}

	out := make([]*model.MiningSession, len(rows))
	for i, s := range rows {
		out[i] = s.toModel()
	}
	return out, nil
}

// ClaimSession credits the reward of a finished session exactly once.
func (r *Repository) ClaimSession(ctx context.Context, telegramID int64, sessionID uuid.UUID, now time.Time) (*model.MiningSession, error) {
	var claimed *model.MiningSession

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := sessionSelect().
			Where(squirrel.Eq{"us.session_id": sessionID, "us.telegram_id": telegramID}).
			Suffix("FOR UPDATE OF us").
			ToSql()
		if err != nil {
			return err
		}

		var row miningSession
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return mapError(err)
		}
		session := row.toModel()

		if session.ClaimedAt != nil {
			return ErrAlreadyClaimed
		}
		if !session.Claimable(now) {
			return ErrSessionNotFinished
		}

		updateQuery, updateArgs, err := squirrel.
			Update("user_servers").
			Set("claimed_at", now).
			Where(squirrel.Eq{"session_id": sessionID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return err
		}

		if err := r.creditWithTx(ctx, tx, telegramID, session.RewardSymbol, session.Reward); err != nil {
			return err
		}
		if err := r.insertTransactionWithTx(ctx, tx, &model.Transaction{
			TelegramID: telegramID,
			Kind:       model.TransactionMining,
			Symbol:     session.RewardSymbol,
			Amount:     session.Reward,
			Status:     model.TransactionCompleted,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		session.ClaimedAt = &now
		claimed = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}
