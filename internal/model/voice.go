// internal/model/voice.go
package model

import "time"

type VoiceProfile struct {
	ID              int        `db:"id" json:"id"`
	UserID          int        `db:"user_id" json:"user_id"`
	Name            string     `db:"name" json:"name"`
	ProviderVoiceID string     `db:"provider_voice_id" json:"provider_voice_id,omitempty"`
	Status          string     `db:"status" json:"status"` // pending, training, completed, failed
	LastError       string     `db:"last_error" json:"last_error,omitempty"`
	SampleCount     int        `db:"sample_count" json:"sample_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type VoiceSample struct {
	ID             int       `db:"id" json:"id"`
	VoiceProfileID int       `db:"voice_profile_id" json:"voice_profile_id"`
	ESMItemID      int       `db:"esm_item_id" json:"esm_item_id"`
	ObjectKey      string    `db:"object_key" json:"object_key"`
	DurationSecs   float64   `db:"duration_secs" json:"duration_secs"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ESMItem is one Emotion/Sound/Modulation reference row. The prompt text is
// shown to the user while recording the matching voice sample.
type ESMItem struct {
	ID            int    `db:"id" json:"id"`
	Category      string `db:"category" json:"category"` // emotion, sound, modulation
	Name          string `db:"name" json:"name"`
	PromptText    string `db:"prompt_text" json:"prompt_text"`
	SampleSeconds int    `db:"sample_seconds" json:"sample_seconds"`
}
