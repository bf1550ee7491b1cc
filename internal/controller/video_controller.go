// internal/controller/video_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dineshachuthan/storyteller-backend/internal/auth"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

type VideoController struct {
	VideoService *service.VideoService
}

func (c *VideoController) CreateTask(w http.ResponseWriter, r *http.Request) {
	storyID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	task, err := c.VideoService.CreateTask(storyID, auth.UserID(r), body.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

func (c *VideoController) ListTasks(w http.ResponseWriter, r *http.Request) {
	storyID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	tasks, err := c.VideoService.ListTasks(storyID, auth.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": tasks})
}

func (c *VideoController) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := c.VideoService.GetTask(chi.URLParam(r, "taskId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ====================== Provider registry ======================

func (c *VideoController) ListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":    c.VideoService.ActiveProvider(),
		"providers": c.VideoService.ListProviders(),
	})
}

func (c *VideoController) SwitchProvider(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.VideoService.SwitchProvider(body.Name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": body.Name})
}

func (c *VideoController) SetProviderEnabled(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.VideoService.SetProviderEnabled(name, body.Enabled); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "enabled": body.Enabled})
}
