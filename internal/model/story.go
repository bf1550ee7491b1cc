// internal/model/story.go
package model

import "time"

type Story struct {
	ID        int        `db:"id" json:"id"`
	UserID    int        `db:"user_id" json:"user_id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	Genre     string     `db:"genre" json:"genre"`
	Status    string     `db:"status" json:"status"` // draft, analyzed, narrated, published
	Summary   string     `db:"summary" json:"summary"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// StoryAnalysis holds the parsed LLM output for one analysis run. Characters
// and Emotions are stored as JSONB; RawResponse keeps the unparsed model
// output for debugging.
type StoryAnalysis struct {
	ID          int         `db:"id" json:"id"`
	StoryID     int         `db:"story_id" json:"story_id"`
	Model       string      `db:"model" json:"model"`
	Characters  []Character `db:"characters" json:"characters"`
	Emotions    []Emotion   `db:"emotions" json:"emotions"`
	RawResponse string      `db:"raw_response" json:"-"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

type Character struct {
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Traits  []string `json:"traits"`
	Emotion string   `json:"emotion"`
}

type Emotion struct {
	Name      string  `json:"name"`
	Intensity float64 `json:"intensity"`
}
