package repository

import (
	"context"
	"fmt"
	"time"

	"ton_mining_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
)

var userColumns = []string{
	"telegram_id",
	"first_name",
	"last_name",
	"username",
	"photo_url",
	"language",
	"referrer_id",
	"referrals",
	"wallet_address",
	"is_admin",
	"registration_date",
	"last_auth_date",
}

type User struct {
	TelegramID       int64     `db:"telegram_id"`
	FirstName        string    `db:"first_name"`
	LastName         string    `db:"last_name"`
	Username         string    `db:"username"`
	PhotoURL         string    `db:"photo_url"`
	Language         string    `db:"language"`
	ReferrerID       *int64    `db:"referrer_id"`
	Referrals        int       `db:"referrals"`
	WalletAddress    *string   `db:"wallet_address"`
	IsAdmin          bool      `db:"is_admin"`
	RegistrationDate time.Time `db:"registration_date"`
	AuthDate         time.Time `db:"last_auth_date"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		TelegramID:       u.TelegramID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Username:         u.Username,
		PhotoURL:         u.PhotoURL,
		Language:         u.Language,
		ReferrerID:       u.ReferrerID,
		Referrals:        u.Referrals,
		WalletAddress:    u.WalletAddress,
		IsAdmin:          u.IsAdmin,
		RegistrationDate: u.RegistrationDate,
		AuthDate:         u.AuthDate,
	}
}

type userReferral struct {
	TelegramID       int64     `db:"telegram_id"`
	TelegramUsername string    `db:"username"`
	FirstName        string    `db:"first_name"`
	JoinedAt         time.Time `db:"registration_date"`
}

// CreateUser inserts the profile only. Referral edges go through
// RegisterReferral so the store can validate them.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"telegram_id":       user.TelegramID,
			"first_name":        user.FirstName,
			"last_name":         user.LastName,
			"username":          user.Username,
			"photo_url":         user.PhotoURL,
			"language":          user.Language,
			"registration_date": user.RegistrationDate,
			"last_auth_date":    user.AuthDate,
			"referrals":         0,
			"is_admin":          false,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapError(err))
	}

	return nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		return nil, mapError(err)
	}

	return user.toModel(), nil
}

// UpdateUserProfile refreshes the fields the Telegram host supplies on
// every launch.
func (r *Repository) UpdateUserProfile(ctx context.Context, user *model.User) error {
	query, args, err := squirrel.
		Update("users").
		SetMap(map[string]interface{}{
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"username":       user.Username,
			"photo_url":      user.PhotoURL,
			"language":       user.Language,
			"last_auth_date": user.AuthDate,
		}).
		Where(squirrel.Eq{"telegram_id": user.TelegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execAffected(ctx, query, args...)
}

func (r *Repository) UpdateWalletAddress(ctx context.Context, telegramID int64, address *string) error {
	query, args, err := squirrel.
		Update("users").
		Set("wallet_address", address).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execAffected(ctx, query, args...)
}

func (r *Repository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	query := squirrel.Select(
		"u.telegram_id",
		"u.username",
		"u.first_name",
		"u.registration_date",
	).
		From("referrals ref").
		Join("users u ON u.telegram_id = ref.referred_id").
		Where(squirrel.Eq{"ref.referrer_id": telegramID}).
		OrderBy("u.registration_date DESC").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var referrals []*userReferral
	err = r.db.SelectContext(ctx, &referrals, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}

	refs := make([]*model.UserReferral, len(referrals))
	for i, ref := range referrals {
		refs[i] = &model.UserReferral{
			TelegramID:       ref.TelegramID,
			TelegramUsername: ref.TelegramUsername,
			FirstName:        ref.FirstName,
			JoinedAt:         ref.JoinedAt,
		}
	}

	return refs, nil
}

func (r *Repository) execAffected(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
