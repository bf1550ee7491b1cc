package service_test

import (
	"context"
	"testing"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

// stubLLM returns a canned completion.
type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Model() string { return "stub-model" }

func (s *stubLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, s.err
}

func TestAnalyzeStoryParsesAndTransitions(t *testing.T) {
	repo := &MockStoryRepo{stories: []*model.Story{
		{ID: 1, UserID: 7, Title: "The Lighthouse", Content: "Once...", Status: "draft"},
	}}
	bus := &recordingBus{}
	svc := &service.AnalysisService{
		StoryRepo: repo,
		LLM: &stubLLM{response: "```json\n" +
			`{"characters":[{"name":"Marta","role":"protagonist","traits":["stubborn"],"emotion":"lonely"}],` +
			`"emotions":[{"name":"loneliness","intensity":0.8}]}` + "\n```"},
		Bus: bus,
	}

	analysis, err := svc.AnalyzeStory(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("AnalyzeStory failed: %v", err)
	}

	if len(analysis.Characters) != 1 || analysis.Characters[0].Name != "Marta" {
		t.Errorf("unexpected characters: %+v", analysis.Characters)
	}
	if len(analysis.Emotions) != 1 || analysis.Emotions[0].Intensity != 0.8 {
		t.Errorf("unexpected emotions: %+v", analysis.Emotions)
	}
	if analysis.Model != "stub-model" {
		t.Errorf("expected model recorded, got %s", analysis.Model)
	}

	if repo.stories[0].Status != "analyzed" {
		t.Errorf("expected story moved to analyzed, got %s", repo.stories[0].Status)
	}

	if len(bus.events) != 1 || bus.events[0].Type != "analyzed" {
		t.Fatalf("expected analyzed event, got %+v", bus.events)
	}
	if bus.events[0].Vars["character_count"] != "1" {
		t.Errorf("expected character_count var, got %v", bus.events[0].Vars)
	}
}

func TestAnalyzeStoryRejectsEmptyCharacterList(t *testing.T) {
	repo := &MockStoryRepo{stories: []*model.Story{
		{ID: 1, UserID: 7, Content: "Once...", Status: "draft"},
	}}
	svc := &service.AnalysisService{
		StoryRepo: repo,
		LLM:       &stubLLM{response: `{"characters":[],"emotions":[]}`},
	}

	if _, err := svc.AnalyzeStory(context.Background(), 1, 7); err == nil {
		t.Fatal("expected an error for a response with no characters")
	}
	if repo.stories[0].Status != "draft" {
		t.Errorf("story should stay draft on failure, got %s", repo.stories[0].Status)
	}
}

func TestAnalyzeStoryAccessAndFreeze(t *testing.T) {
	repo := &MockStoryRepo{stories: []*model.Story{
		{ID: 1, UserID: 7, Content: "Once...", Status: "draft"},
	}}
	llmStub := &stubLLM{response: `{"characters":[{"name":"Marta","role":"protagonist"}],"emotions":[]}`}
	svc := &service.AnalysisService{
		StoryRepo: repo,
		CollabRepo: &MockCollabRepo{collabs: []*model.Collaborator{
			{ID: 1, StoryID: 1, UserID: 8, Role: model.RoleEditor, Status: "accepted"},
			{ID: 2, StoryID: 1, UserID: 9, Role: model.RoleViewer, Status: "accepted"},
		}},
		LLM: llmStub,
	}

	// stranger and viewer cannot spend analysis calls on someone else's story
	if _, err := svc.AnalyzeStory(context.Background(), 1, 10); !appErrors.IsForbidden(err) {
		t.Errorf("expected forbidden for a stranger, got %v", err)
	}
	if _, err := svc.AnalyzeStory(context.Background(), 1, 9); !appErrors.IsForbidden(err) {
		t.Errorf("expected forbidden for a viewer, got %v", err)
	}

	// accepted editor may analyze
	if _, err := svc.AnalyzeStory(context.Background(), 1, 8); err != nil {
		t.Errorf("accepted editor should be allowed: %v", err)
	}

	// published stories are frozen
	repo.stories[0].Status = "published"
	if _, err := svc.AnalyzeStory(context.Background(), 1, 7); err == nil {
		t.Error("expected an error analyzing a published story")
	}
}

func TestAnalyzeStoryKeepsNarratedStatus(t *testing.T) {
	repo := &MockStoryRepo{stories: []*model.Story{
		{ID: 1, UserID: 7, Content: "Once...", Status: "narrated"},
	}}
	svc := &service.AnalysisService{
		StoryRepo: repo,
		LLM:       &stubLLM{response: `{"characters":[{"name":"Marta","role":"protagonist"}],"emotions":[]}`},
	}

	if _, err := svc.AnalyzeStory(context.Background(), 1, 7); err != nil {
		t.Fatalf("AnalyzeStory failed: %v", err)
	}
	if repo.stories[0].Status != "narrated" {
		t.Errorf("re-analysis must not regress status, got %s", repo.stories[0].Status)
	}
}
