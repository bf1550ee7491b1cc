// internal/repository/narration_repository.go
package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type NarrationRepositoryInterface interface {
	Create(n *model.Narration) error
	GetByID(id int) (*model.Narration, error)
	GetCompletedByHash(hash string) (*model.Narration, error)
	ListByStory(storyID int) ([]model.Narration, error)
	MarkProcessing(id int) error
	MarkCompleted(id int, objectKey string, durationSecs float64) error
	MarkFailed(id int, lastError string) error
}

type NarrationRepository struct {
	DB *sql.DB
}

const narrationColumns = `id, story_id, voice_profile_id, voice_id, status, content_hash,
    COALESCE(object_key,''), duration_secs, cache_hit, COALESCE(last_error,''), created_at, updated_at`

func (r *NarrationRepository) Create(n *model.Narration) error {
	n.CreatedAt = time.Now()
	if n.Status == "" {
		n.Status = "pending"
	}
	query := `
        INSERT INTO narrations (story_id, voice_profile_id, voice_id, status, content_hash, object_key, duration_secs, cache_hit, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query, n.StoryID, n.VoiceProfileID, n.VoiceID, n.Status, n.ContentHash, n.ObjectKey, n.DurationSecs, n.CacheHit, n.CreatedAt).Scan(&n.ID)
}

func (r *NarrationRepository) scanOne(row *sql.Row) (*model.Narration, error) {
	var n model.Narration
	err := row.Scan(&n.ID, &n.StoryID, &n.VoiceProfileID, &n.VoiceID, &n.Status, &n.ContentHash,
		&n.ObjectKey, &n.DurationSecs, &n.CacheHit, &n.LastError, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NarrationRepository) GetByID(id int) (*model.Narration, error) {
	n, err := r.scanOne(r.DB.QueryRow(`SELECT `+narrationColumns+` FROM narrations WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNarrationNotFound(id)
	}
	return n, err
}

// GetCompletedByHash finds a reusable narration for the same content/voice
// pair. Returns nil, nil when there is none.
func (r *NarrationRepository) GetCompletedByHash(hash string) (*model.Narration, error) {
	query := `SELECT ` + narrationColumns + ` FROM narrations WHERE content_hash=$1 AND status='completed' ORDER BY id DESC LIMIT 1`
	n, err := r.scanOne(r.DB.QueryRow(query, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (r *NarrationRepository) ListByStory(storyID int) ([]model.Narration, error) {
	rows, err := r.DB.Query(`SELECT `+narrationColumns+` FROM narrations WHERE story_id=$1 ORDER BY id DESC`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	narrations := []model.Narration{}
	for rows.Next() {
		var n model.Narration
		if err := rows.Scan(&n.ID, &n.StoryID, &n.VoiceProfileID, &n.VoiceID, &n.Status, &n.ContentHash,
			&n.ObjectKey, &n.DurationSecs, &n.CacheHit, &n.LastError, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		narrations = append(narrations, n)
	}
	return narrations, nil
}

func (r *NarrationRepository) MarkProcessing(id int) error {
	_, err := r.DB.Exec(`UPDATE narrations SET status='processing', updated_at=NOW() WHERE id=$1`, id)
	return err
}

func (r *NarrationRepository) MarkCompleted(id int, objectKey string, durationSecs float64) error {
	query := `UPDATE narrations SET status='completed', object_key=$1, duration_secs=$2, last_error='', updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, objectKey, durationSecs, id)
	return err
}

func (r *NarrationRepository) MarkFailed(id int, lastError string) error {
	query := `UPDATE narrations SET status='failed', last_error=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, lastError, id)
	return err
}

var _ NarrationRepositoryInterface = (*NarrationRepository)(nil)
