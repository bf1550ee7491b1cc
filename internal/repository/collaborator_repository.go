// internal/repository/collaborator_repository.go
package repository

import (
	"database/sql"
	"time"

	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type CollaboratorRepositoryInterface interface {
	Create(c *model.Collaborator) error
	GetByToken(token string) (*model.Collaborator, error)
	GetByStoryAndUser(storyID, userID int) (*model.Collaborator, error)
	ListByStory(storyID int) ([]model.Collaborator, error)
	UpdateStatus(id int, status string) error
}

type CollaboratorRepository struct {
	DB *sql.DB
}

const collaboratorColumns = `id, story_id, user_id, role, status, invite_token, created_at`

func (r *CollaboratorRepository) Create(c *model.Collaborator) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = "invited"
	}
	query := `
        INSERT INTO story_collaborators (story_id, user_id, role, status, invite_token, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.StoryID, c.UserID, c.Role, c.Status, c.InviteToken, c.CreatedAt).Scan(&c.ID)
}

func (r *CollaboratorRepository) scanOne(row *sql.Row) (*model.Collaborator, error) {
	var c model.Collaborator
	err := row.Scan(&c.ID, &c.StoryID, &c.UserID, &c.Role, &c.Status, &c.InviteToken, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CollaboratorRepository) GetByToken(token string) (*model.Collaborator, error) {
	return r.scanOne(r.DB.QueryRow(`SELECT `+collaboratorColumns+` FROM story_collaborators WHERE invite_token=$1`, token))
}

func (r *CollaboratorRepository) GetByStoryAndUser(storyID, userID int) (*model.Collaborator, error) {
	return r.scanOne(r.DB.QueryRow(`SELECT `+collaboratorColumns+` FROM story_collaborators WHERE story_id=$1 AND user_id=$2`, storyID, userID))
}

func (r *CollaboratorRepository) ListByStory(storyID int) ([]model.Collaborator, error) {
	rows, err := r.DB.Query(`SELECT `+collaboratorColumns+` FROM story_collaborators WHERE story_id=$1 ORDER BY id`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collaborators := []model.Collaborator{}
	for rows.Next() {
		var c model.Collaborator
		if err := rows.Scan(&c.ID, &c.StoryID, &c.UserID, &c.Role, &c.Status, &c.InviteToken, &c.CreatedAt); err != nil {
			return nil, err
		}
		collaborators = append(collaborators, c)
	}
	return collaborators, nil
}

func (r *CollaboratorRepository) UpdateStatus(id int, status string) error {
	_, err := r.DB.Exec(`UPDATE story_collaborators SET status=$1 WHERE id=$2`, status, id)
	return err
}

var _ CollaboratorRepositoryInterface = (*CollaboratorRepository)(nil)
