// internal/repository/template_repository.go
package repository

import (
	"database/sql"
	"time"

	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.Template) error
	// GetByKey returns the template for (key, channel, locale), or nil.
	GetByKey(templateKey, channel, locale string) (*model.Template, error)
	ListByKey(templateKey string) ([]model.Template, error)
	Update(t *model.Template) error
	Delete(id int) error
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(t *model.Template) error {
	t.CreatedAt = time.Now()
	if t.Locale == "" {
		t.Locale = "en"
	}
	query := `
        INSERT INTO notification_templates (template_key, channel, locale, subject, body, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, t.TemplateKey, t.Channel, t.Locale, t.Subject, t.Body, t.CreatedAt).Scan(&t.ID)
}

func (r *TemplateRepository) GetByKey(templateKey, channel, locale string) (*model.Template, error) {
	query := `
        SELECT id, template_key, channel, locale, subject, body, created_at
        FROM notification_templates
        WHERE template_key=$1 AND channel=$2 AND locale=$3
        LIMIT 1
    `
	var t model.Template
	err := r.DB.QueryRow(query, templateKey, channel, locale).Scan(&t.ID, &t.TemplateKey, &t.Channel, &t.Locale, &t.Subject, &t.Body, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) ListByKey(templateKey string) ([]model.Template, error) {
	query := `
        SELECT id, template_key, channel, locale, subject, body, created_at
        FROM notification_templates WHERE template_key=$1 ORDER BY channel, locale
    `
	rows, err := r.DB.Query(query, templateKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.TemplateKey, &t.Channel, &t.Locale, &t.Subject, &t.Body, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (r *TemplateRepository) Update(t *model.Template) error {
	query := `UPDATE notification_templates SET subject=$1, body=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, t.Subject, t.Body, t.ID)
	return err
}

func (r *TemplateRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM notification_templates WHERE id=$1`, id)
	return err
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
