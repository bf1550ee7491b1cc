// internal/model/collaborator.go
package model

import "time"

const (
	RoleViewer   = "viewer"
	RoleEditor   = "editor"
	RoleNarrator = "narrator"
)

type Collaborator struct {
	ID          int       `db:"id" json:"id"`
	StoryID     int       `db:"story_id" json:"story_id"`
	UserID      int       `db:"user_id" json:"user_id"`
	Role        string    `db:"role" json:"role"`     // viewer, editor, narrator
	Status      string    `db:"status" json:"status"` // invited, accepted, declined
	InviteToken string    `db:"invite_token" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleViewer, RoleEditor, RoleNarrator:
		return true
	}
	return false
}
