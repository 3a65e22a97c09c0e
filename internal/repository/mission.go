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

type missionWithCompletion struct {
	MissionID    uuid.UUID       `db:"mission_id"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	Link         string          `db:"link"`
	RewardSymbol string          `db:"reward_symbol"`
	Reward       decimal.Decimal `db:"reward"`
	CreatedAt    time.Time       `db:"created_at"`
	CompletedAt  *time.Time      `db:"completed_at"`
}

func (m *missionWithCompletion) mission() model.Mission {
	return model.Mission{
		MissionID:    m.MissionID,
		Title:        m.Title,
		Description:  m.Description,
		Link:         m.Link,
		RewardSymbol: m.RewardSymbol,
		Reward:       m.Reward,
		CreatedAt:    m.CreatedAt,
	}
}

func (r *Repository) ListMissions(ctx context.Context, telegramID int64) ([]*model.UserMission, error) {
	query, args, err := squirrel.Select(
		"m.mission_id",
		"m.title",
		"m.description",
		"m.link",
		"m.reward_symbol",
		"m.reward",
		"m.created_at",
		"mc.completed_at",
	).
		From("missions m").
		LeftJoin("mission_completions mc ON mc.mission_id = m.mission_id AND mc.telegram_id = ?", telegramID).
		Where(squirrel.Eq{"m.is_active": true}).
		OrderBy("m.created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*missionWithCompletion
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}

	missions := make([]*model.UserMission, len(rows))
	for i, row := range rows {
		missions[i] = &model.UserMission{
			Mission:     row.mission(),
			Completed:   row.CompletedAt != nil,
			CompletedAt: row.CompletedAt,
		}
	}
	return missions, nil
}

// CompleteMission marks the mission done and credits its reward. The
// completion table is unique per user and mission.
func (r *Repository) CompleteMission(ctx context.Context, telegramID int64, missionID uuid.UUID) (*model.Mission, error) {
	var mission model.Mission

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Select("mission_id", "title", "description", "link", "reward_symbol", "reward", "created_at").
			From("missions").
			Where(squirrel.Eq{"mission_id": missionID, "is_active": true}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var row missionWithCompletion
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return mapError(err)
		}
		mission = row.mission()

		now := time.Now().UTC()
		insertQuery, insertArgs, err := squirrel.
			Insert("mission_completions").
			SetMap(map[string]interface{}{
				"mission_id":   missionID,
				"telegram_id":  telegramID,
				"completed_at": now,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return mapError(err)
		}

		if mission.Reward.IsPositive() {
			if err := r.creditWithTx(ctx, tx, telegramID, mission.RewardSymbol, mission.Reward); err != nil {
				return err
			}
			return r.insertTransactionWithTx(ctx, tx, &model.Transaction{
				TelegramID: telegramID,
				Kind:       model.TransactionMission,
				Symbol:     mission.RewardSymbol,
				Amount:     mission.Reward,
				Status:     model.TransactionCompleted,
				CreatedAt:  now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &mission, nil
}
