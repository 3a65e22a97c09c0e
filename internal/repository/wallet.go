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

type token struct {
	Symbol   string          `db:"symbol"`
	Name     string          `db:"name"`
	Decimals int             `db:"decimals"`
	PriceTON decimal.Decimal `db:"price_ton"`
	IconURL  string          `db:"icon_url"`
}

func (t *token) toModel() *model.Token {
	return &model.Token{
		Symbol:   t.Symbol,
		Name:     t.Name,
		Decimals: t.Decimals,
		PriceTON: t.PriceTON,
		IconURL:  t.IconURL,
	}
}

type holding struct {
	TelegramID int64           `db:"telegram_id"`
	Symbol     string          `db:"symbol"`
	Balance    decimal.Decimal `db:"balance"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

type transaction struct {
	ID         uuid.UUID       `db:"id"`
	TelegramID int64           `db:"telegram_id"`
	Kind       string          `db:"kind"`
	Symbol     string          `db:"symbol"`
	Amount     decimal.Decimal `db:"amount"`
	Status     string          `db:"status"`
	Address    *string         `db:"address"`
	BOC        *string         `db:"boc"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (t *transaction) toModel() *model.Transaction {
	return &model.Transaction{
		ID:         t.ID,
		TelegramID: t.TelegramID,
		Kind:       model.TransactionKind(t.Kind),
		Symbol:     t.Symbol,
		Amount:     t.Amount,
		Status:     model.TransactionStatus(t.Status),
		Address:    t.Address,
		BOC:        t.BOC,
		CreatedAt:  t.CreatedAt,
	}
}

func (r *Repository) ListTokens(ctx context.Context) ([]*model.Token, error) {
	query, args, err := squirrel.
		Select("symbol", "name", "decimals", "price_ton", "icon_url").
		From("tokens").
		OrderBy("symbol").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*token
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	tokens := make([]*model.Token, len(rows))
	for i, t := range rows {
		tokens[i] = t.toModel()
	}
	return tokens, nil
}

func (r *Repository) GetToken(ctx context.Context, symbol string) (*model.Token, error) {
	query, args, err := squirrel.
		Select("symbol", "name", "decimals", "price_ton", "icon_url").
		From("tokens").
		Where(squirrel.Eq{"symbol": symbol}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var t token
	if err := r.db.GetContext(ctx, &t, query, args...); err != nil {
		return nil, mapError(err)
	}
	return t.toModel(), nil
}

func (r *Repository) GetHoldings(ctx context.Context, telegramID int64) ([]*model.Holding, error) {
	query, args, err := squirrel.
		Select("telegram_id", "symbol", "balance", "updated_at").
		From("wallets").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		OrderBy("symbol").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*holding
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}

	holdings := make([]*model.Holding, len(rows))
	for i, h := range rows {
		holdings[i] = &model.Holding{
			TelegramID: h.TelegramID,
			Symbol:     h.Symbol,
			Balance:    h.Balance,
			UpdatedAt:  h.UpdatedAt,
		}
	}
	return holdings, nil
}

func (r *Repository) ListTransactions(ctx context.Context, telegramID int64, limit int) ([]*model.Transaction, error) {
	query, args, err := squirrel.
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*transaction
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	out := make([]*model.Transaction, len(rows))
	for i, t := range rows {
		out[i] = t.toModel()
	}
	return out, nil
}

var transactionColumns = []string{"id", "telegram_id", "kind", "symbol", "amount", "status", "address", "boc", "created_at"}

// RecordDeposit logs a signed deposit without touching the balance. The BOC
// is unique, so replaying the same receipt fails with ErrDuplicate.
func (r *Repository) RecordDeposit(ctx context.Context, tx *model.Transaction) error {
	return r.Transaction(ctx, func(dbTx *sqlx.Tx) error {
		return r.insertTransactionWithTx(ctx, dbTx, tx)
	})
}

// SettleDeposit moves a pending deposit to status and credits it when the
// status is completed. A deposit that is no longer pending returns
// ErrAlreadyClaimed.
func (r *Repository) SettleDeposit(ctx context.Context, transactionID uuid.UUID, status model.TransactionStatus) (*model.Transaction, error) {
	var settled *model.Transaction

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Select(transactionColumns...).
			From("transactions").
			Where(squirrel.Eq{"id": transactionID, "kind": string(model.TransactionDeposit)}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var row transaction
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return mapError(err)
		}
		if model.TransactionStatus(row.Status) != model.TransactionPending {
			return ErrAlreadyClaimed
		}

		updateQuery, updateArgs, err := squirrel.
			Update("transactions").
			Set("status", string(status)).
			Where(squirrel.Eq{"id": transactionID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return fmt.Errorf("failed to settle deposit: %w", err)
		}

		if status == model.TransactionCompleted {
			if err := r.creditWithTx(ctx, tx, row.TelegramID, row.Symbol, row.Amount); err != nil {
				return err
			}
		}

		row.Status = string(status)
		settled = row.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return settled, nil
}

func (r *Repository) ApplyExchange(ctx context.Context, ex *model.Exchange, result *model.ExchangeResult) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := r.debitWithTx(ctx, tx, ex.TelegramID, ex.From, result.Debited); err != nil {
			return err
		}
		if err := r.creditWithTx(ctx, tx, ex.TelegramID, ex.To, result.Credited); err != nil {
			return err
		}

		if err := r.insertTransactionWithTx(ctx, tx, &model.Transaction{
			TelegramID: ex.TelegramID,
			Kind:       model.TransactionExchange,
			Symbol:     ex.From,
			Amount:     result.Debited.Neg(),
			Status:     model.TransactionCompleted,
		}); err != nil {
			return err
		}

		return r.insertTransactionWithTx(ctx, tx, &model.Transaction{
			TelegramID: ex.TelegramID,
			Kind:       model.TransactionExchange,
			Symbol:     ex.To,
			Amount:     result.Credited,
			Status:     model.TransactionCompleted,
		})
	})
}

// RequestWithdrawal debits the balance and queues a pending payout.
func (r *Repository) RequestWithdrawal(ctx context.Context, tx *model.Transaction) error {
	return r.Transaction(ctx, func(dbTx *sqlx.Tx) error {
		if err := r.debitWithTx(ctx, dbTx, tx.TelegramID, tx.Symbol, tx.Amount); err != nil {
			return err
		}
		withdrawal := *tx
		withdrawal.Amount = tx.Amount.Neg()
		if err := r.insertTransactionWithTx(ctx, dbTx, &withdrawal); err != nil {
			return err
		}
		tx.ID = withdrawal.ID
		tx.CreatedAt = withdrawal.CreatedAt
		return nil
	})
}

func (r *Repository) creditWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64, symbol string, amount decimal.Decimal) error {
	query, args, err := squirrel.
		Insert("wallets").
		Columns("telegram_id", "symbol", "balance", "updated_at").
		Values(telegramID, symbol, amount, time.Now().UTC()).
		Suffix("ON CONFLICT (telegram_id, symbol) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build credit query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to credit %s: %w", symbol, err)
	}
	return nil
}

func (r *Repository) debitWithTx(ctx context.Context, tx *sqlx.Tx, telegramID int64, symbol string, amount decimal.Decimal) error {
	query, args, err := squirrel.
		Update("wallets").
		Set("balance", squirrel.Expr("balance - ?", amount)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"telegram_id": telegramID, "symbol": symbol}).
		Where(squirrel.GtOrEq{"balance": amount}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build debit query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to debit %s: %w", symbol, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

func (r *Repository) insertTransactionWithTx(ctx context.Context, tx *sqlx.Tx, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query, args, err := squirrel.
		Insert("transactions").
		SetMap(map[string]interface{}{
			"id":          t.ID,
			"telegram_id": t.TelegramID,
			"kind":        string(t.Kind),
			"symbol":      t.Symbol,
			"amount":      t.Amount,
			"status":      string(t.Status),
			"address":     t.Address,
			"boc":         t.BOC,
			"created_at":  t.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build transaction insert query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", mapError(err))
	}
	return nil
}
