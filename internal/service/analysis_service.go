// internal/service/analysis_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/llm"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
)

const analysisSystemPrompt = `You are a story analyst. Given a story, identify its characters and the emotional arc.
Respond with JSON only, no markdown, in this exact shape:
{"characters":[{"name":"","role":"","traits":[""],"emotion":""}],"emotions":[{"name":"","intensity":0.0}]}
Role is one of: protagonist, antagonist, supporting. Intensity is 0.0-1.0.`

type AnalysisService struct {
	StoryRepo  repository.StoryRepositoryInterface
	CollabRepo repository.CollaboratorRepositoryInterface
	LLM        llm.Client
	Bus        events.Bus
}

// AnalyzeStory runs the LLM over the story content and stores the parsed
// characters/emotions. Moves a draft story to analyzed. Only the owner or an
// accepted editor may trigger it; published stories are frozen.
func (s *AnalysisService) AnalyzeStory(ctx context.Context, storyID, userID int) (*model.StoryAnalysis, error) {
	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if story.Status == "published" {
		return nil, fmt.Errorf("story cannot be analyzed in status: %s", story.Status)
	}
	if err := s.requireEditor(story, userID); err != nil {
		return nil, err
	}

	raw, err := s.LLM.Complete(ctx, analysisSystemPrompt, story.Content)
	if err != nil {
		return nil, fmt.Errorf("analysis call failed: %w", err)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, err
	}
	analysis.StoryID = storyID
	analysis.Model = s.LLM.Model()
	analysis.RawResponse = raw

	if err := s.StoryRepo.CreateAnalysis(analysis); err != nil {
		return nil, err
	}

	if story.Status == "draft" {
		if err := s.StoryRepo.UpdateStatus(storyID, "analyzed"); err != nil {
			return nil, err
		}
	}

	if s.Bus != nil {
		s.Bus.Publish(events.Event{
			Domain: events.DomainStory,
			Type:   events.TypeStoryAnalyzed,
			UserID: story.UserID,
			Vars: map[string]string{
				"story_id":        strconv.Itoa(story.ID),
				"story_title":     story.Title,
				"character_count": strconv.Itoa(len(analysis.Characters)),
			},
		})
	}

	return analysis, nil
}

func (s *AnalysisService) GetLatestAnalysis(storyID int) (*model.StoryAnalysis, error) {
	return s.StoryRepo.GetLatestAnalysis(storyID)
}

// requireEditor passes for the owner, otherwise requires an accepted editor
// collaborator.
func (s *AnalysisService) requireEditor(story *model.Story, userID int) error {
	if story.UserID == userID {
		return nil
	}
	if s.CollabRepo == nil {
		return appErrors.NewForbidden("not a collaborator")
	}
	collab, err := s.CollabRepo.GetByStoryAndUser(story.ID, userID)
	if err != nil {
		return err
	}
	if collab == nil || collab.Status != "accepted" || collab.Role != model.RoleEditor {
		return appErrors.NewForbidden("requires role " + model.RoleEditor)
	}
	return nil
}

// parseAnalysis tolerantly pulls the JSON payload out of the model response.
func parseAnalysis(raw string) (*model.StoryAnalysis, error) {
	jsonText := llm.ExtractJSON(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON found in analysis response: %s", truncate(raw, 300))
	}

	var parsed struct {
		Characters []model.Character `json:"characters"`
		Emotions   []model.Emotion   `json:"emotions"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	if len(parsed.Characters) == 0 {
		return nil, fmt.Errorf("analysis response contained no characters")
	}

	return &model.StoryAnalysis{
		Characters: parsed.Characters,
		Emotions:   parsed.Emotions,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
