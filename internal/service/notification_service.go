// internal/service/notification_service.go
package service

import (
	"fmt"
	"log"
	"time"

	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/queue"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
)

type NotificationService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	DeliveryRepo repository.DeliveryRepositoryInterface
	UserRepo     repository.UserRepositoryInterface
	Queue        queue.Queue
}

// CampaignDetails is the stats-enriched read shape.
type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

// HandleEvent is the dispatcher: look up the campaign for the event, apply
// the target user's channel preferences, render the per-channel template,
// and queue one delivery per eligible channel.
func (s *NotificationService) HandleEvent(evt events.Event) error {
	campaign, err := s.CampaignRepo.GetByEvent(evt.Domain, evt.Type)
	if err != nil {
		return err
	}
	if campaign == nil {
		return nil // nothing configured for this event
	}

	user, err := s.UserRepo.GetByID(evt.UserID)
	if err != nil {
		return err
	}

	prefs, err := s.UserRepo.GetPrefs(evt.UserID)
	if err != nil {
		return err
	}
	prefByChannel := map[string]model.NotificationPref{}
	for _, p := range prefs {
		prefByChannel[p.Channel] = p
	}

	vars := map[string]string{"display_name": user.DisplayName}
	for k, v := range evt.Vars {
		vars[k] = v
	}

	for _, channel := range campaign.ChannelList() {
		pref, ok := prefByChannel[channel]
		if !ok || !pref.Enabled || pref.Address == "" {
			// record the skip so the campaign stats stay honest
			skip := &model.Delivery{
				CampaignID: campaign.ID,
				UserID:     user.ID,
				Channel:    channel,
				Status:     "skipped",
			}
			if err := s.DeliveryRepo.Create(skip); err != nil {
				log.Println("⚠️ failed to record skipped delivery:", err)
			}
			continue
		}

		if err := s.createDelivery(campaign, user, channel, pref.Address, vars); err != nil {
			log.Printf("⚠️ failed to create %s delivery for user %d: %v", channel, user.ID, err)
		}
	}
	return nil
}

func (s *NotificationService) createDelivery(campaign *model.Campaign, user *model.User, channel, address string, vars map[string]string) error {
	tmpl, err := s.lookupTemplate(campaign.TemplateKey, channel, user.Locale)
	if err != nil {
		return err
	}

	delivery := &model.Delivery{
		CampaignID:      campaign.ID,
		UserID:          user.ID,
		Channel:         channel,
		Address:         address,
		Status:          "pending",
		RenderedSubject: RenderTemplate(tmpl.Subject, vars),
		RenderedBody:    RenderTemplate(tmpl.Body, vars),
	}
	if err := s.DeliveryRepo.Create(delivery); err != nil {
		return err
	}

	return s.Queue.Publish(queue.TopicDeliveries, delivery.ID)
}

// lookupTemplate falls back to the "en" locale when the user's locale has no
// variant.
func (s *NotificationService) lookupTemplate(key, channel, locale string) (*model.Template, error) {
	if locale == "" {
		locale = "en"
	}
	tmpl, err := s.TemplateRepo.GetByKey(key, channel, locale)
	if err != nil {
		return nil, err
	}
	if tmpl == nil && locale != "en" {
		tmpl, err = s.TemplateRepo.GetByKey(key, channel, "en")
		if err != nil {
			return nil, err
		}
	}
	if tmpl == nil {
		return nil, fmt.Errorf("no template for key=%s channel=%s locale=%s", key, channel, locale)
	}
	return tmpl, nil
}

// DispatchDueCampaigns sends scheduled broadcast campaigns whose time has
// come to every user with a matching enabled channel. Called from the
// worker's cron loop.
func (s *NotificationService) DispatchDueCampaigns(now time.Time) error {
	due, err := s.CampaignRepo.DueScheduled(now)
	if err != nil {
		return err
	}

	for _, campaign := range due {
		if err := s.CampaignRepo.UpdateStatus(campaign.ID, "sending"); err != nil {
			return err
		}

		users, err := s.UserRepo.ListAll()
		if err != nil {
			return err
		}

		for _, user := range users {
			prefs, err := s.UserRepo.GetPrefs(user.ID)
			if err != nil {
				log.Println("⚠️ failed to load prefs for user", user.ID, ":", err)
				continue
			}
			prefByChannel := map[string]model.NotificationPref{}
			for _, p := range prefs {
				prefByChannel[p.Channel] = p
			}

			vars := map[string]string{"display_name": user.DisplayName}
			for _, channel := range campaign.ChannelList() {
				pref, ok := prefByChannel[channel]
				if !ok || !pref.Enabled || pref.Address == "" {
					continue
				}
				u := user
				if err := s.createDelivery(campaign, &u, channel, pref.Address, vars); err != nil {
					log.Printf("⚠️ failed to create broadcast delivery for user %d: %v", user.ID, err)
				}
			}
		}

		if err := s.CampaignRepo.UpdateStatus(campaign.ID, "sent"); err != nil {
			return err
		}
		log.Printf("📣 dispatched scheduled campaign %d (%s)", campaign.ID, campaign.Name)
	}
	return nil
}

// ====================== Campaign CRUD ======================

func (s *NotificationService) CreateCampaign(name, domain, eventType, channels, templateKey string, scheduledAt *string) (*model.Campaign, error) {
	c := &model.Campaign{
		Name:        name,
		Domain:      domain,
		EventType:   eventType,
		Channels:    channels,
		TemplateKey: templateKey,
		Enabled:     true,
		Status:      "active",
	}

	if scheduledAt != nil {
		t, err := time.Parse(time.RFC3339, *scheduledAt)
		if err != nil {
			return nil, err
		}
		c.ScheduledAt = &t
		c.Status = "scheduled"
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *NotificationService) ListCampaigns(page, pageSize int, domain, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, domain, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *NotificationService) GetCampaignDetailsWithStats(campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.DeliveryRepo.GetCampaignStats(campaignID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	stats["total"] = total

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}

func (s *NotificationService) SetCampaignEnabled(campaignID int, enabled bool) error {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return err
	}
	return s.CampaignRepo.SetEnabled(campaignID, enabled)
}

func (s *NotificationService) ListDeliveries(campaignID int) ([]model.Delivery, error) {
	return s.DeliveryRepo.ListByCampaign(campaignID)
}

// ====================== Template CRUD ======================

func (s *NotificationService) CreateTemplate(key, channel, locale, subject, body string) (*model.Template, error) {
	if key == "" || channel == "" {
		return nil, fmt.Errorf("template_key and channel are required")
	}
	t := &model.Template{TemplateKey: key, Channel: channel, Locale: locale, Subject: subject, Body: body}
	if err := s.TemplateRepo.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *NotificationService) ListTemplates(key string) ([]model.Template, error) {
	return s.TemplateRepo.ListByKey(key)
}
