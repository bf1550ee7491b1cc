// internal/model/notification.go
package model

import (
	"strings"
	"time"
)

// Campaign maps a domain event type to delivery channels and a template key.
// Campaigns with a ScheduledAt are broadcasts picked up by the worker when
// due; the rest fire on their (Domain, EventType) pair.
type Campaign struct {
	ID          int        `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Domain      string     `db:"domain" json:"domain"`
	EventType   string     `db:"event_type" json:"event_type"`
	Channels    string     `db:"channels" json:"channels"` // csv: "email,sms"
	TemplateKey string     `db:"template_key" json:"template_key"`
	Enabled     bool       `db:"enabled" json:"enabled"`
	Status      string     `db:"status" json:"status"` // active, scheduled, sending, sent
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

func (c *Campaign) ChannelList() []string {
	if strings.TrimSpace(c.Channels) == "" {
		return nil
	}
	parts := strings.Split(c.Channels, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type Template struct {
	ID          int       `db:"id" json:"id"`
	TemplateKey string    `db:"template_key" json:"template_key"`
	Channel     string    `db:"channel" json:"channel"`
	Locale      string    `db:"locale" json:"locale"`
	Subject     string    `db:"subject" json:"subject"`
	Body        string    `db:"body" json:"body"` // {{var}} placeholders
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Delivery is the per-user, per-channel bookkeeping row for one dispatched
// notification.
type Delivery struct {
	ID              int       `db:"id" json:"id"`
	CampaignID      int       `db:"campaign_id" json:"campaign_id"`
	UserID          int       `db:"user_id" json:"user_id"`
	Channel         string    `db:"channel" json:"channel"`
	Address         string    `db:"address" json:"address"`
	Status          string    `db:"status" json:"status"` // pending, sent, failed, skipped
	RenderedSubject string    `db:"rendered_subject" json:"rendered_subject"`
	RenderedBody    string    `db:"rendered_body" json:"rendered_body"`
	LastError       string    `db:"last_error" json:"last_error,omitempty"`
	RetryCount      int       `db:"retry_count" json:"retry_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
