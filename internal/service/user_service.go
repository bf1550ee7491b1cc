// internal/service/user_service.go
package service

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dineshachuthan/storyteller-backend/internal/auth"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
)

type UserService struct {
	UserRepo repository.UserRepositoryInterface
}

// Register creates a user with a bcrypt-hashed password and enables the
// email channel by default so account events reach them out of the box.
func (s *UserService) Register(email, password, displayName string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	existing, err := s.UserRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}

	pref := &model.NotificationPref{UserID: user.ID, Channel: "email", Enabled: true, Address: email}
	if err := s.UserRepo.UpsertPref(pref); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and returns a signed JWT.
func (s *UserService) Login(email, password string) (string, *model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.UserRepo.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	token, err := auth.IssueToken(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *UserService) GetProfile(userID int) (*model.User, error) {
	return s.UserRepo.GetByID(userID)
}

func (s *UserService) UpdateProfile(userID int, displayName, locale string) (*model.User, error) {
	if err := s.UserRepo.UpdateProfile(userID, displayName, locale); err != nil {
		return nil, err
	}
	return s.UserRepo.GetByID(userID)
}

func (s *UserService) GetPrefs(userID int) ([]model.NotificationPref, error) {
	return s.UserRepo.GetPrefs(userID)
}

func (s *UserService) SetPref(userID int, channel string, enabled bool, address string) error {
	if channel != "email" && channel != "sms" {
		return fmt.Errorf("unknown channel: %s", channel)
	}
	return s.UserRepo.UpsertPref(&model.NotificationPref{
		UserID:  userID,
		Channel: channel,
		Enabled: enabled,
		Address: address,
	})
}
