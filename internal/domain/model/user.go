package model

import "time"

type UserProfile struct {
	TelegramUserID int64
	Username       string
	CreatedAt      time.Time
	CourierCompany *string
	PaymentMethod  *string
	ReportCount    int
	Balance        int64
}

// ProfileFields carries an optional-field merge for a user profile.
// Nil fields are left untouched.
type ProfileFields struct {
	Username       *string
	CourierCompany *string
	PaymentMethod  *string
	ReportCount    *int
}
