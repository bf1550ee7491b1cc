// internal/repository/video_task_repository.go
package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type VideoTaskRepositoryInterface interface {
	Create(t *model.VideoTask) error
	GetByID(id string) (*model.VideoTask, error)
	ListByStory(storyID int) ([]model.VideoTask, error)
	// ListPollable returns tasks the worker should query the vendor about.
	ListPollable() ([]model.VideoTask, error)
	RecordAttempt(id, provider, lastError string) error
	UpdateSubmitted(id, provider, providerTaskID string) error
	UpdateProcessing(id string) error
	MarkCompleted(id, videoURL string) error
	MarkFailed(id, lastError string) error
}

type VideoTaskRepository struct {
	DB *sql.DB
}

const videoTaskColumns = `id, story_id, prompt, COALESCE(provider,''), COALESCE(provider_task_id,''),
    status, COALESCE(video_url,''), fallback_attempts, COALESCE(last_error,''), created_at, updated_at`

func (r *VideoTaskRepository) Create(t *model.VideoTask) error {
	t.CreatedAt = time.Now()
	if t.Status == "" {
		t.Status = "pending"
	}
	query := `
        INSERT INTO video_tasks (id, story_id, prompt, status, fallback_attempts, created_at)
        VALUES ($1, $2, $3, $4, 0, $5)
    `
	_, err := r.DB.Exec(query, t.ID, t.StoryID, t.Prompt, t.Status, t.CreatedAt)
	return err
}

func (r *VideoTaskRepository) scan(rows *sql.Rows) ([]model.VideoTask, error) {
	tasks := []model.VideoTask{}
	for rows.Next() {
		var t model.VideoTask
		if err := rows.Scan(&t.ID, &t.StoryID, &t.Prompt, &t.Provider, &t.ProviderTaskID,
			&t.Status, &t.VideoURL, &t.FallbackAttempts, &t.LastError, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *VideoTaskRepository) GetByID(id string) (*model.VideoTask, error) {
	var t model.VideoTask
	err := r.DB.QueryRow(`SELECT `+videoTaskColumns+` FROM video_tasks WHERE id=$1`, id).
		Scan(&t.ID, &t.StoryID, &t.Prompt, &t.Provider, &t.ProviderTaskID,
			&t.Status, &t.VideoURL, &t.FallbackAttempts, &t.LastError, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewVideoTaskNotFound(id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *VideoTaskRepository) ListByStory(storyID int) ([]model.VideoTask, error) {
	rows, err := r.DB.Query(`SELECT `+videoTaskColumns+` FROM video_tasks WHERE story_id=$1 ORDER BY created_at DESC`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scan(rows)
}

func (r *VideoTaskRepository) ListPollable() ([]model.VideoTask, error) {
	rows, err := r.DB.Query(`SELECT ` + videoTaskColumns + ` FROM video_tasks WHERE status IN ('submitted','processing')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scan(rows)
}

// RecordAttempt bumps the fallback counter after a failed submit to one
// provider; the task itself stays pending for the next provider in order.
func (r *VideoTaskRepository) RecordAttempt(id, provider, lastError string) error {
	query := `UPDATE video_tasks SET fallback_attempts=fallback_attempts+1, provider=$1, last_error=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, provider, lastError, id)
	return err
}

func (r *VideoTaskRepository) UpdateSubmitted(id, provider, providerTaskID string) error {
	query := `UPDATE video_tasks SET status='submitted', provider=$1, provider_task_id=$2, last_error='', updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, provider, providerTaskID, id)
	return err
}

func (r *VideoTaskRepository) UpdateProcessing(id string) error {
	_, err := r.DB.Exec(`UPDATE video_tasks SET status='processing', updated_at=NOW() WHERE id=$1`, id)
	return err
}

func (r *VideoTaskRepository) MarkCompleted(id, videoURL string) error {
	query := `UPDATE video_tasks SET status='completed', video_url=$1, last_error='', updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, videoURL, id)
	return err
}

func (r *VideoTaskRepository) MarkFailed(id, lastError string) error {
	query := `UPDATE video_tasks SET status='failed', last_error=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, lastError, id)
	return err
}

var _ VideoTaskRepositoryInterface = (*VideoTaskRepository)(nil)
