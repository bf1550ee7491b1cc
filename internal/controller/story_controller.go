// internal/controller/story_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dineshachuthan/storyteller-backend/internal/auth"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

type StoryController struct {
	StoryService     *service.StoryService
	AnalysisService  *service.AnalysisService
	NarrationService *service.NarrationService
}

func (c *StoryController) CreateStory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Genre   string `json:"genre"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	story, err := c.StoryService.CreateStory(auth.UserID(r), body.Title, body.Content, body.Genre)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, story)
}

func (c *StoryController) ListStories(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")
	genre := r.URL.Query().Get("genre")

	stories, pagination, err := c.StoryService.ListStories(auth.UserID(r), page, pageSize, status, genre)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       stories,
		"pagination": pagination,
	})
}

func (c *StoryController) GetStory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	story, err := c.StoryService.GetStory(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, story)
}

func (c *StoryController) UpdateStory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Genre   string `json:"genre"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	story, err := c.StoryService.UpdateStory(id, auth.UserID(r), body.Title, body.Content, body.Genre)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, story)
}

func (c *StoryController) DeleteStory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := c.StoryService.DeleteStory(id, auth.UserID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (c *StoryController) PublishStory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	story, err := c.StoryService.PublishStory(id, auth.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, story)
}

// AnalyzeStory runs the language model over the story text and stores the
// extracted characters and emotions.
func (c *StoryController) AnalyzeStory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	analysis, err := c.AnalysisService.AnalyzeStory(r.Context(), id, auth.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (c *StoryController) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	analysis, err := c.AnalysisService.GetLatestAnalysis(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// RequestNarration queues a narration job, or returns an existing completed
// narration when the same content/voice/engine combination was produced
// before.
func (c *StoryController) RequestNarration(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		VoiceProfileID *int `json:"voice_profile_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	narration, err := c.NarrationService.RequestNarration(r.Context(), id, auth.UserID(r), body.VoiceProfileID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusAccepted
	if narration.Status == "completed" {
		status = http.StatusOK
	}
	writeJSON(w, status, narration)
}

func (c *StoryController) ListNarrations(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	narrations, err := c.NarrationService.ListNarrations(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": narrations})
}

func (c *StoryController) GetNarration(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "narrationId"))

	narration, err := c.NarrationService.GetNarration(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, narration)
}
