// internal/repository/user_repository.go
package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type UserRepositoryInterface interface {
	Create(u *model.User) error
	GetByID(id int) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	UpdateProfile(id int, displayName, locale string) error
	ListAll() ([]model.User, error)

	// Notification preferences
	GetPrefs(userID int) ([]model.NotificationPref, error)
	UpsertPref(p *model.NotificationPref) error
}

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) Create(u *model.User) error {
	u.CreatedAt = time.Now()
	if u.Locale == "" {
		u.Locale = "en"
	}
	query := `
        INSERT INTO users (email, password_hash, display_name, locale, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRow(query, u.Email, u.PasswordHash, u.DisplayName, u.Locale, u.CreatedAt).Scan(&u.ID)
}

func (r *UserRepository) GetByID(id int) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, display_name, locale, created_at
        FROM users WHERE id=$1
    `
	var u model.User
	err := r.DB.QueryRow(query, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Locale, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewUserNotFound(id)
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, display_name, locale, created_at
        FROM users WHERE email=$1
    `
	var u model.User
	err := r.DB.QueryRow(query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Locale, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UpdateProfile(id int, displayName, locale string) error {
	query := `UPDATE users SET display_name=$1, locale=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, displayName, locale, id)
	return err
}

func (r *UserRepository) ListAll() ([]model.User, error) {
	query := `SELECT id, email, password_hash, display_name, locale, created_at FROM users`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Locale, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// ====================== Notification preferences ======================

func (r *UserRepository) GetPrefs(userID int) ([]model.NotificationPref, error) {
	query := `
        SELECT id, user_id, channel, enabled, address
        FROM user_notification_prefs WHERE user_id=$1
    `
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := []model.NotificationPref{}
	for rows.Next() {
		var p model.NotificationPref
		if err := rows.Scan(&p.ID, &p.UserID, &p.Channel, &p.Enabled, &p.Address); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, nil
}

func (r *UserRepository) UpsertPref(p *model.NotificationPref) error {
	query := `
        INSERT INTO user_notification_prefs (user_id, channel, enabled, address)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, channel)
        DO UPDATE SET enabled=EXCLUDED.enabled, address=EXCLUDED.address
        RETURNING id
    `
	return r.DB.QueryRow(query, p.UserID, p.Channel, p.Enabled, p.Address).Scan(&p.ID)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
