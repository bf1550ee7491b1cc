// internal/repository/campaign_repository.go
package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	// GetByEvent returns the enabled campaign matching (domain, eventType),
	// or nil when no campaign is configured for the pair.
	GetByEvent(domain, eventType string) (*model.Campaign, error)
	ListCampaigns(offset, limit int, domain, status string) ([]*model.Campaign, int, error)
	Update(c *model.Campaign) error
	UpdateStatus(campaignID int, status string) error
	SetEnabled(campaignID int, enabled bool) error
	// DueScheduled returns scheduled broadcast campaigns whose time has come.
	DueScheduled(now time.Time) ([]*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, domain, event_type, channels, template_key, enabled, status, scheduled_at, created_at, updated_at`

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		if c.ScheduledAt != nil {
			c.Status = "scheduled"
		} else {
			c.Status = "active"
		}
	}
	query := `
        INSERT INTO notification_campaigns (name, domain, event_type, channels, template_key, enabled, status, scheduled_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.Name, c.Domain, c.EventType, c.Channels, c.TemplateKey, c.Enabled, c.Status, c.ScheduledAt, c.CreatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) scanOne(row *sql.Row) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Domain, &c.EventType, &c.Channels, &c.TemplateKey, &c.Enabled, &c.Status, &c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	c, err := r.scanOne(r.DB.QueryRow(`SELECT `+campaignColumns+` FROM notification_campaigns WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, err
}

func (r *CampaignRepository) GetByEvent(domain, eventType string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM notification_campaigns WHERE domain=$1 AND event_type=$2 AND enabled=TRUE ORDER BY id LIMIT 1`
	c, err := r.scanOne(r.DB.QueryRow(query, domain, eventType))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, domain, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM notification_campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if domain != "" {
		query += fmt.Sprintf(" AND domain=$%d", argPos)
		args = append(args, domain)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Domain, &c.EventType, &c.Channels, &c.TemplateKey, &c.Enabled, &c.Status, &c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM notification_campaigns WHERE 1=1`
	argsCount := []interface{}{}
	argPosCount := 1
	if domain != "" {
		countQuery += fmt.Sprintf(" AND domain=$%d", argPosCount)
		argsCount = append(argsCount, domain)
		argPosCount++
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE notification_campaigns
        SET name=$1, domain=$2, event_type=$3, channels=$4, template_key=$5, scheduled_at=$6, updated_at=NOW()
        WHERE id=$7
    `
	_, err := r.DB.Exec(query, c.Name, c.Domain, c.EventType, c.Channels, c.TemplateKey, c.ScheduledAt, c.ID)
	return err
}

func (r *CampaignRepository) UpdateStatus(campaignID int, status string) error {
	query := `UPDATE notification_campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), campaignID)
	return err
}

func (r *CampaignRepository) SetEnabled(campaignID int, enabled bool) error {
	query := `UPDATE notification_campaigns SET enabled=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, enabled, campaignID)
	return err
}

func (r *CampaignRepository) DueScheduled(now time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM notification_campaigns
        WHERE enabled=TRUE AND status='scheduled' AND scheduled_at IS NOT NULL AND scheduled_at <= $1`
	rows, err := r.DB.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Domain, &c.EventType, &c.Channels, &c.TemplateKey, &c.Enabled, &c.Status, &c.ScheduledAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
