// internal/repository/delivery_repository.go
package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type DeliveryRepositoryInterface interface {
	Create(d *model.Delivery) error
	GetByID(id int) (*model.Delivery, error)
	ListByCampaign(campaignID int) ([]model.Delivery, error)
	UpdateStatus(id int, status, lastError string) error
	GetCampaignStats(campaignID int) (map[string]int, error)
}

type DeliveryRepository struct {
	DB *sql.DB
}

const deliveryColumns = `id, campaign_id, user_id, channel, address, status,
    rendered_subject, rendered_body, COALESCE(last_error,''), retry_count, created_at, updated_at`

func (r *DeliveryRepository) Create(d *model.Delivery) error {
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = "pending"
	}
	query := `
        INSERT INTO notification_deliveries
        (campaign_id, user_id, channel, address, status, rendered_subject, rendered_body, retry_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query, d.CampaignID, d.UserID, d.Channel, d.Address, d.Status,
		d.RenderedSubject, d.RenderedBody, d.CreatedAt, d.UpdatedAt).Scan(&d.ID)
}

func (r *DeliveryRepository) GetByID(id int) (*model.Delivery, error) {
	var d model.Delivery
	err := r.DB.QueryRow(`SELECT `+deliveryColumns+` FROM notification_deliveries WHERE id=$1`, id).
		Scan(&d.ID, &d.CampaignID, &d.UserID, &d.Channel, &d.Address, &d.Status,
			&d.RenderedSubject, &d.RenderedBody, &d.LastError, &d.RetryCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewDeliveryNotFound(id)
		}
		return nil, err
	}
	return &d, nil
}

func (r *DeliveryRepository) ListByCampaign(campaignID int) ([]model.Delivery, error) {
	rows, err := r.DB.Query(`SELECT `+deliveryColumns+` FROM notification_deliveries WHERE campaign_id=$1 ORDER BY id DESC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliveries := []model.Delivery{}
	for rows.Next() {
		var d model.Delivery
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.UserID, &d.Channel, &d.Address, &d.Status,
			&d.RenderedSubject, &d.RenderedBody, &d.LastError, &d.RetryCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func (r *DeliveryRepository) UpdateStatus(id int, status, lastError string) error {
	// retry_count only counts failed attempts
	query := `UPDATE notification_deliveries
        SET status=$1, last_error=$2,
            retry_count=retry_count + CASE WHEN $1='failed' THEN 1 ELSE 0 END,
            updated_at=NOW()
        WHERE id=$3`
	_, err := r.DB.Exec(query, status, lastError, id)
	return err
}

func (r *DeliveryRepository) GetCampaignStats(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM notification_deliveries WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "sent": 0, "failed": 0, "skipped": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, nil
}

var _ DeliveryRepositoryInterface = (*DeliveryRepository)(nil)
