package repository

import (
	"context"
	"fmt"
	"time"

	"ton_mining_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type prize struct {
	PrizeID int             `db:"prize_id"`
	Label   string          `db:"label"`
	Symbol  string          `db:"symbol"`
	Amount  decimal.Decimal `db:"amount"`
	Weight  int             `db:"weight"`
}

func (r *Repository) ListPrizes(ctx context.Context) ([]*model.Prize, error) {
	query, args, err := squirrel.
		Select("prize_id", "label", "symbol", "amount", "weight").
		From("roulette_prizes").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("prize_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*prize
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}

	out := make([]*model.Prize, len(rows))
	for i, p := range rows {
		out[i] = &model.Prize{
			PrizeID: p.PrizeID,
			Label:   p.Label,
			Symbol:  p.Symbol,
			Amount:  p.Amount,
			Weight:  p.Weight,
		}
	}
	return out, nil
}

// GetLastSpin returns nil when the user has never spun.
func (r *Repository) GetLastSpin(ctx context.Context, telegramID int64) (*time.Time, error) {
	query, args, err := squirrel.
		Select("max(spun_at)").
		From("roulette_spins").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var last *time.Time
	if err := r.db.GetContext(ctx, &last, query, args...); err != nil {
		return nil, mapError(err)
	}
	return last, nil
}

// RecordSpin stores the spin and credits its prize. It fails with
// ErrAlreadyClaimed if another spin landed after notBefore, which keeps two
// concurrent spins from both passing the cooldown.
func (r *Repository) RecordSpin(ctx context.Context, spin *model.Spin, notBefore time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		lockQuery, lockArgs, err := squirrel.
			Select("telegram_id").
			From("users").
			Where(squirrel.Eq{"telegram_id": spin.TelegramID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var id int64
		if err := tx.GetContext(ctx, &id, lockQuery, lockArgs...); err != nil {
			return mapError(err)
		}

		countQuery, countArgs, err := squirrel.
			Select("count(*)").
			From("roulette_spins").
			Where(squirrel.Eq{"telegram_id": spin.TelegramID}).
			Where(squirrel.Gt{"spun_at": notBefore}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var recent int
		if err := tx.GetContext(ctx, &recent, countQuery, countArgs...); err != nil {
			return err
		}
		if recent > 0 {
			return ErrAlreadyClaimed
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("roulette_spins").
			SetMap(map[string]interface{}{
				"telegram_id": spin.TelegramID,
				"prize_id":    spin.Prize.PrizeID,
				"spun_at":     spin.SpunAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return mapError(err)
		}

		if spin.Prize.IsNothing() {
			return nil
		}

		if err := r.creditWithTx(ctx, tx, spin.TelegramID, spin.Prize.Symbol, spin.Prize.Amount); err != nil {
			return err
		}
		return r.insertTransactionWithTx(ctx, tx, &model.Transaction{
			TelegramID: spin.TelegramID,
			Kind:       model.TransactionRoulette,
			Symbol:     spin.Prize.Symbol,
			Amount:     spin.Prize.Amount,
			Status:     model.TransactionCompleted,
			CreatedAt:  spin.SpunAt,
		})
	})
}
