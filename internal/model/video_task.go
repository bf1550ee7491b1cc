// internal/model/video_task.go
package model

import "time"

type VideoTask struct {
	ID               string     `db:"id" json:"id"` // uuid
	StoryID          int        `db:"story_id" json:"story_id"`
	Prompt           string     `db:"prompt" json:"prompt"`
	Provider         string     `db:"provider" json:"provider,omitempty"`
	ProviderTaskID   string     `db:"provider_task_id" json:"provider_task_id,omitempty"`
	Status           string     `db:"status" json:"status"` // pending, submitted, processing, completed, failed
	VideoURL         string     `db:"video_url" json:"video_url,omitempty"`
	FallbackAttempts int        `db:"fallback_attempts" json:"fallback_attempts"`
	LastError        string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
