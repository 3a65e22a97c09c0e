package model

import "time"

type User struct {
	TelegramID       int64
	FirstName        string
	LastName         string
	Username         string
	PhotoURL         string
	Language         string
	ReferrerID       *int64
	Referrals        int
	WalletAddress    *string
	IsAdmin          bool
	RegistrationDate time.Time
	AuthDate         time.Time
}

type UserReferral struct {
	TelegramID       int64
	TelegramUsername string
	FirstName        string
	JoinedAt         time.Time
}

// Profile is what the Mini App keeps as its app-wide user context.
type Profile struct {
	User     *User
	Balances []*Holding
}
