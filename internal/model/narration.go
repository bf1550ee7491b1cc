// internal/model/narration.go
package model

import "time"

type Narration struct {
	ID             int        `db:"id" json:"id"`
	StoryID        int        `db:"story_id" json:"story_id"`
	VoiceProfileID *int       `db:"voice_profile_id" json:"voice_profile_id,omitempty"`
	VoiceID        string     `db:"voice_id" json:"voice_id"`
	Status         string     `db:"status" json:"status"` // pending, processing, completed, failed
	ContentHash    string     `db:"content_hash" json:"content_hash"`
	ObjectKey      string     `db:"object_key" json:"object_key,omitempty"`
	DurationSecs   float64    `db:"duration_secs" json:"duration_secs"`
	CacheHit       bool       `db:"cache_hit" json:"cache_hit"`
	LastError      string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
