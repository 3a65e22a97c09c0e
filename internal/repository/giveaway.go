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

type giveaway struct {
	GiveawayID      uuid.UUID       `db:"giveaway_id"`
	Title           string          `db:"title"`
	Description     string          `db:"description"`
	Status          string          `db:"status"`
	FeeSymbol       string          `db:"fee_symbol"`
	EntryFee        decimal.Decimal `db:"entry_fee"`
	PrizePool       decimal.Decimal `db:"prize_pool"`
	MaxParticipants int             `db:"max_participants"`
	Participants    int             `db:"participants"`
	StartsAt        time.Time       `db:"starts_at"`
	EndsAt          time.Time       `db:"ends_at"`
	Joined          bool            `db:"joined"`
}

func (g *giveaway) toModel() *model.Giveaway {
	return &model.Giveaway{
		GiveawayID:      g.GiveawayID,
		Title:           g.Title,
		Description:     g.Description,
		Status:          model.GiveawayStatus(g.Status),
		FeeSymbol:       g.FeeSymbol,
		EntryFee:        g.EntryFee,
		PrizePool:       g.PrizePool,
		MaxParticipants: g.MaxParticipants,
		Participants:    g.Participants,
		StartsAt:        g.StartsAt,
		EndsAt:          g.EndsAt,
		Joined:          g.Joined,
	}
}

type reactionRow struct {
	Emoji   string `db:"emoji"`
	Count   int    `db:"count"`
	Reacted bool   `db:"reacted"`
}

func giveawaySelect(telegramID int64) squirrel.SelectBuilder {
	return squirrel.Select(
		"g.giveaway_id",
		"g.title",
		"g.description",
		"g.status",
		"g.fee_symbol",
		"g.entry_fee",
		"g.prize_pool",
		"g.max_participants",
		"g.starts_at",
		"g.ends_at",
		"(SELECT count(*) FROM giveaway_participants gp WHERE gp.giveaway_id = g.giveaway_id) AS participants",
	).
		Column(squirrel.Expr("EXISTS (SELECT 1 FROM giveaway_participants gp WHERE gp.giveaway_id = g.giveaway_id AND gp.telegram_id = ?) AS joined", telegramID)).
		From("giveaways g").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *Repository) ListGiveaways(ctx context.Context, telegramID int64, statuses ...model.GiveawayStatus) ([]*model.Giveaway, error) {
	builder := giveawaySelect(telegramID).OrderBy("g.ends_at")
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		builder = builder.Where(squirrel.Eq{"g.status": values})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*giveaway
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}

	out := make([]*model.Giveaway, len(rows))
	for i, g := range rows {
		out[i] = g.toModel()
	}
	return out, nil
}

func (r *Repository) GetGiveaway(ctx context.Context, giveawayID uuid.UUID, telegramID int64) (*model.Giveaway, error) {
	query, args, err := giveawaySelect(telegramID).
		Where(squirrel.Eq{"g.giveaway_id": giveawayID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var g giveaway
	if err := r.db.GetContext(ctx, &g, query, args...); err != nil {
		return nil, mapError(err)
	}
	return g.toModel(), nil
}

// JoinGiveaway adds the user as a participant, charging the entry fee when
// there is one. The giveaway row is locked so capacity checks do not race.
// A second join by the same user hits the participants unique key and
// returns ErrDuplicate.
func (r *Repository) JoinGiveaway(ctx context.Context, giveawayID uuid.UUID, telegramID int64, now time.Time) (*model.Giveaway, error) {
	var joined *model.Giveaway

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		lockQuery, lockArgs, err := squirrel.
			Select("giveaway_id").
			From("giveaways").
			Where(squirrel.Eq{"giveaway_id": giveawayID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var locked uuid.UUID
		if err := tx.GetContext(ctx, &locked, lockQuery, lockArgs...); err != nil {
			return mapError(err)
		}

		query, args, err := giveawaySelect(telegramID).
			Where(squirrel.Eq{"g.giveaway_id": giveawayID}).
			ToSql()
		if err != nil {
			return err
		}

		var row giveaway
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return mapError(err)
		}
		g := row.toModel()

		if g.Joined {
			return ErrDuplicate
		}
		if !g.IsOpen(now) {
			return ErrGiveawayClosed
		}
		if g.IsFull() {
			return ErrGiveawayFull
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("giveaway_participants").
			SetMap(map[string]interface{}{
				"giveaway_id": giveawayID,
				"telegram_id": telegramID,
				"joined_at":   now,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return mapError(err)
		}

		if !g.IsFree() {
			if err := r.debitWithTx(ctx, tx, telegramID, g.FeeSymbol, g.EntryFee); err != nil {
				return err
			}
			if err := r.insertTransactionWithTx(ctx, tx, &model.Transaction{
				TelegramID: telegramID,
				Kind:       model.TransactionGiveaway,
				Symbol:     g.FeeSymbol,
				Amount:     g.EntryFee.Neg(),
				Status:     model.TransactionCompleted,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}

		g.Joined = true
		g.Participants++
		joined = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	return joined, nil
}

// ListExpiredGiveaways returns active giveaways whose end time has passed.
func (r *Repository) ListExpiredGiveaways(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query, args, err := squirrel.
		Select("giveaway_id").
		From("giveaways").
		Where(squirrel.Eq{"status": string(model.GiveawayActive)}).
		Where(squirrel.LtOrEq{"ends_at": now}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list expired giveaways: %w", err)
	}
	return ids, nil
}

func (r *Repository) ListReactions(ctx context.Context, giveawayID uuid.UUID, telegramID int64) ([]*model.Reaction, error) {
	query, args, err := squirrel.
		Select("emoji", "count(*) AS count").
		Column(squirrel.Expr("bool_or(telegram_id = ?) AS reacted", telegramID)).
		From("reactions").
		Where(squirrel.Eq{"giveaway_id": giveawayID}).
		GroupBy("emoji").
		OrderBy("count DESC", "emoji").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*reactionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}

	out := make([]*model.Reaction, len(rows))
	for i, row := range rows {
		out[i] = &model.Reaction{
			GiveawayID: giveawayID,
			Emoji:      row.Emoji,
			Count:      row.Count,
			Reacted:    row.Reacted,
		}
	}
	return out, nil
}
