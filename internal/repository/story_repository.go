// internal/repository/story_repository.go
package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type StoryRepositoryInterface interface {
	// Story CRUD
	Create(s *model.Story) error
	GetByID(id int) (*model.Story, error)
	ListByUser(userID, offset, limit int, status, genre string) ([]*model.Story, int, error)
	UpdateContent(id int, title, content, genre string) error
	UpdateStatus(id int, status string) error
	Delete(id int) error

	// Analyses
	CreateAnalysis(a *model.StoryAnalysis) error
	GetLatestAnalysis(storyID int) (*model.StoryAnalysis, error)
}

type StoryRepository struct {
	DB *sql.DB
}

// ====================== Story CRUD ======================

func (r *StoryRepository) Create(s *model.Story) error {
	s.CreatedAt = time.Now()
	if s.Status == "" {
		s.Status = "draft"
	}
	query := `
        INSERT INTO stories (user_id, title, content, genre, status, summary, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query, s.UserID, s.Title, s.Content, s.Genre, s.Status, s.Summary, s.CreatedAt).Scan(&s.ID)
}

func (r *StoryRepository) GetByID(id int) (*model.Story, error) {
	query := `
        SELECT id, user_id, title, content, genre, status, summary, created_at, updated_at
        FROM stories WHERE id=$1
    `
	var s model.Story
	err := r.DB.QueryRow(query, id).Scan(&s.ID, &s.UserID, &s.Title, &s.Content, &s.Genre, &s.Status, &s.Summary, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewStoryNotFound(id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *StoryRepository) ListByUser(userID, offset, limit int, status, genre string) ([]*model.Story, int, error) {
	stories := []*model.Story{}
	query := `SELECT id, user_id, title, content, genre, status, summary, created_at, updated_at FROM stories WHERE user_id=$1`
	args := []interface{}{userID}
	argPos := 2

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	if genre != "" {
		query += fmt.Sprintf(" AND genre=$%d", argPos)
		args = append(args, genre)
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
		s := &model.Story{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Content, &s.Genre, &s.Status, &s.Summary, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		stories = append(stories, s)
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM stories WHERE user_id=$1`
	argsCount := []interface{}{userID}
	argPosCount := 2
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
		argPosCount++
	}
	if genre != "" {
		countQuery += fmt.Sprintf(" AND genre=$%d", argPosCount)
		argsCount = append(argsCount, genre)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return stories, total, nil
}

func (r *StoryRepository) UpdateContent(id int, title, content, genre string) error {
	query := `UPDATE stories SET title=$1, content=$2, genre=$3, updated_at=NOW() WHERE id=$4`
	_, err := r.DB.Exec(query, title, content, genre, id)
	return err
}

func (r *StoryRepository) UpdateStatus(id int, status string) error {
	query := `UPDATE stories SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), id)
	return err
}

func (r *StoryRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM stories WHERE id=$1`, id)
	return err
}

// ====================== Analyses ======================

func (r *StoryRepository) CreateAnalysis(a *model.StoryAnalysis) error {
	a.CreatedAt = time.Now()
	characters, err := json.Marshal(a.Characters)
	if err != nil {
		return err
	}
	emotions, err := json.Marshal(a.Emotions)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO story_analyses (story_id, model, characters, emotions, raw_response, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, a.StoryID, a.Model, characters, emotions, a.RawResponse, a.CreatedAt).Scan(&a.ID)
}

func (r *StoryRepository) GetLatestAnalysis(storyID int) (*model.StoryAnalysis, error) {
	query := `
        SELECT id, story_id, model, characters, emotions, raw_response, created_at
        FROM story_analyses
        WHERE story_id=$1
        ORDER BY id DESC LIMIT 1
    `
	var a model.StoryAnalysis
	var characters, emotions []byte
	err := r.DB.QueryRow(query, storyID).Scan(&a.ID, &a.StoryID, &a.Model, &characters, &emotions, &a.RawResponse, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(characters, &a.Characters); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(emotions, &a.Emotions); err != nil {
		return nil, err
	}
	return &a, nil
}

var _ StoryRepositoryInterface = (*StoryRepository)(nil)
