// internal/controller/auth_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/dineshachuthan/storyteller-backend/internal/auth"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

type AuthController struct {
	UserService *service.UserService
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	user, err := c.UserService.Register(body.Email, body.Password, body.DisplayName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	token, user, err := c.UserService.Login(body.Email, body.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (c *AuthController) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := c.UserService.GetProfile(auth.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName string `json:"display_name"`
		Locale      string `json:"locale"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	user, err := c.UserService.UpdateProfile(auth.UserID(r), body.DisplayName, body.Locale)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (c *AuthController) GetPrefs(w http.ResponseWriter, r *http.Request) {
	prefs, err := c.UserService.GetPrefs(auth.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": prefs})
}

func (c *AuthController) SetPref(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Channel string `json:"channel"`
		Enabled bool   `json:"enabled"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.UserService.SetPref(auth.UserID(r), body.Channel, body.Enabled, body.Address); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
