// internal/model/user.go
package model

import "time"

type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Locale       string    `db:"locale" json:"locale"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NotificationPref is a per-user, per-channel opt-in with the address
// the channel should deliver to (email address, phone number).
type NotificationPref struct {
	ID      int    `db:"id" json:"id"`
	UserID  int    `db:"user_id" json:"user_id"`
	Channel string `db:"channel" json:"channel"` // email, sms
	Enabled bool   `db:"enabled" json:"enabled"`
	Address string `db:"address" json:"address"`
}
