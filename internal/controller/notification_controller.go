// internal/controller/notification_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func (c *NotificationController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string  `json:"name"`
		Domain      string  `json:"domain"`
		EventType   string  `json:"event_type"`
		Channels    string  `json:"channels"`
		TemplateKey string  `json:"template_key"`
		ScheduledAt *string `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := c.NotificationService.CreateCampaign(body.Name, body.Domain, body.EventType, body.Channels, body.TemplateKey, body.ScheduledAt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *NotificationController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	domain := r.URL.Query().Get("domain")
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.NotificationService.ListCampaigns(page, pageSize, domain, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *NotificationController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	details, err := c.NotificationService.GetCampaignDetailsWithStats(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *NotificationController) SetCampaignEnabled(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.NotificationService.SetCampaignEnabled(id, body.Enabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "enabled": body.Enabled})
}

func (c *NotificationController) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	deliveries, err := c.NotificationService.ListDeliveries(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": deliveries})
}

// ====================== Templates ======================

func (c *NotificationController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TemplateKey string `json:"template_key"`
		Channel     string `json:"channel"`
		Locale      string `json:"locale"`
		Subject     string `json:"subject"`
		Body        string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	tmpl, err := c.NotificationService.CreateTemplate(body.TemplateKey, body.Channel, body.Locale, body.Subject, body.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

func (c *NotificationController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("template_key")
	if key == "" {
		http.Error(w, "template_key query param is required", http.StatusBadRequest)
		return
	}

	templates, err := c.NotificationService.ListTemplates(key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": templates})
}
