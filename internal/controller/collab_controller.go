// internal/controller/collab_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dineshachuthan/storyteller-backend/internal/auth"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

type CollabController struct {
	CollabService *service.CollabService
}

func (c *CollabController) Invite(w http.ResponseWriter, r *http.Request) {
	storyID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	collab, err := c.CollabService.Invite(storyID, auth.UserID(r), body.Email, body.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, collab)
}

func (c *CollabController) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	storyID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	collabs, err := c.CollabService.ListCollaborators(storyID, auth.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": collabs})
}

func (c *CollabController) RespondToInvite(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var body struct {
		Accept bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	collab, err := c.CollabService.RespondToInvite(token, auth.UserID(r), body.Accept)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collab)
}
