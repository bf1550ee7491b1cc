package service_test

import (
	"testing"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

// --- Mocks ---

type MockStoryRepo struct {
	stories  []*model.Story
	analyses []*model.StoryAnalysis
}

func (m *MockStoryRepo) Create(s *model.Story) error {
	s.ID = len(m.stories) + 1
	m.stories = append(m.stories, s)
	return nil
}

func (m *MockStoryRepo) GetByID(id int) (*model.Story, error) {
	for _, s := range m.stories {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, appErrors.NewStoryNotFound(id)
}

func (m *MockStoryRepo) ListByUser(userID, offset, limit int, status, genre string) ([]*model.Story, int, error) {
	var filtered []*model.Story
	for _, s := range m.stories {
		if s.UserID != userID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		if genre != "" && s.Genre != genre {
			continue
		}
		filtered = append(filtered, s)
	}
	total := len(filtered)
	start := offset
	end := offset + limit
	if start > total {
		return []*model.Story{}, total, nil
	}
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (m *MockStoryRepo) UpdateContent(id int, title, content, genre string) error {
	s, err := m.GetByID(id)
	if err != nil {
		return err
	}
	s.Title = title
	s.Content = content
	s.Genre = genre
	return nil
}

func (m *MockStoryRepo) UpdateStatus(id int, status string) error {
	s, err := m.GetByID(id)
	if err != nil {
		return err
	}
	s.Status = status
	return nil
}

func (m *MockStoryRepo) Delete(id int) error {
	for i, s := range m.stories {
		if s.ID == id {
			m.stories = append(m.stories[:i], m.stories[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockStoryRepo) CreateAnalysis(a *model.StoryAnalysis) error {
	a.ID = len(m.analyses) + 1
	m.analyses = append(m.analyses, a)
	return nil
}

func (m *MockStoryRepo) GetLatestAnalysis(storyID int) (*model.StoryAnalysis, error) {
	for i := len(m.analyses) - 1; i >= 0; i-- {
		if m.analyses[i].StoryID == storyID {
			return m.analyses[i], nil
		}
	}
	return nil, nil
}

type MockCollabRepo struct {
	collabs []*model.Collaborator
}

func (m *MockCollabRepo) Create(c *model.Collaborator) error {
	c.ID = len(m.collabs) + 1
	m.collabs = append(m.collabs, c)
	return nil
}

func (m *MockCollabRepo) GetByToken(token string) (*model.Collaborator, error) {
	for _, c := range m.collabs {
		if c.InviteToken == token {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockCollabRepo) GetByStoryAndUser(storyID, userID int) (*model.Collaborator, error) {
	for _, c := range m.collabs {
		if c.StoryID == storyID && c.UserID == userID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockCollabRepo) ListByStory(storyID int) ([]model.Collaborator, error) {
	var out []model.Collaborator
	for _, c := range m.collabs {
		if c.StoryID == storyID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MockCollabRepo) UpdateStatus(id int, status string) error {
	for _, c := range m.collabs {
		if c.ID == id {
			c.Status = status
		}
	}
	return nil
}

// recordingBus captures events synchronously.
type recordingBus struct {
	events []events.Event
}

func (b *recordingBus) Publish(evt events.Event)    { b.events = append(b.events, evt) }
func (b *recordingBus) Subscribe(fn events.Handler) {}

// --- Tests ---

func TestPublishStoryEmitsEvent(t *testing.T) {
	repo := &MockStoryRepo{}
	bus := &recordingBus{}
	svc := &service.StoryService{StoryRepo: repo, CollabRepo: &MockCollabRepo{}, Bus: bus}

	story, err := svc.CreateStory(7, "The Lighthouse", "Once upon a time...", "drama")
	if err != nil {
		t.Fatalf("CreateStory failed: %v", err)
	}

	published, err := svc.PublishStory(story.ID, 7)
	if err != nil {
		t.Fatalf("PublishStory failed: %v", err)
	}
	if published.Status != "published" {
		t.Errorf("expected published, got %s", published.Status)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.events))
	}
	evt := bus.events[0]
	if evt.Domain != "story" || evt.Type != "published" || evt.UserID != 7 {
		t.Errorf("unexpected event: %+v", evt)
	}
	if evt.Vars["story_title"] != "The Lighthouse" {
		t.Errorf("expected story_title var, got %v", evt.Vars)
	}
}

func TestPublishStoryOwnerOnly(t *testing.T) {
	repo := &MockStoryRepo{}
	svc := &service.StoryService{StoryRepo: repo, CollabRepo: &MockCollabRepo{}}

	story, _ := svc.CreateStory(7, "The Lighthouse", "Once...", "")

	if _, err := svc.PublishStory(story.ID, 8); !appErrors.IsForbidden(err) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
}

func TestUpdateStoryFrozenAfterPublish(t *testing.T) {
	repo := &MockStoryRepo{}
	svc := &service.StoryService{StoryRepo: repo, CollabRepo: &MockCollabRepo{}}

	story, _ := svc.CreateStory(7, "The Lighthouse", "Once...", "")
	if _, err := svc.PublishStory(story.ID, 7); err != nil {
		t.Fatalf("PublishStory failed: %v", err)
	}

	if _, err := svc.UpdateStory(story.ID, 7, "New title", "New content", ""); err == nil {
		t.Fatal("expected an error editing a published story")
	}
}

func TestUpdateStoryCollaboratorRoles(t *testing.T) {
	repo := &MockStoryRepo{}
	collabRepo := &MockCollabRepo{}
	svc := &service.StoryService{StoryRepo: repo, CollabRepo: collabRepo}

	story, _ := svc.CreateStory(7, "The Lighthouse", "Once...", "")

	// accepted editor can edit
	collabRepo.collabs = append(collabRepo.collabs, &model.Collaborator{
		ID: 1, StoryID: story.ID, UserID: 8, Role: model.RoleEditor, Status: "accepted",
	})
	if _, err := svc.UpdateStory(story.ID, 8, "Edited", "New content", ""); err != nil {
		t.Fatalf("accepted editor should edit, got %v", err)
	}

	// accepted viewer cannot
	collabRepo.collabs = append(collabRepo.collabs, &model.Collaborator{
		ID: 2, StoryID: story.ID, UserID: 9, Role: model.RoleViewer, Status: "accepted",
	})
	if _, err := svc.UpdateStory(story.ID, 9, "X", "Y", ""); !appErrors.IsForbidden(err) {
		t.Fatalf("expected forbidden for viewer, got %v", err)
	}

	// invited editor (not yet accepted) cannot
	collabRepo.collabs = append(collabRepo.collabs, &model.Collaborator{
		ID: 3, StoryID: story.ID, UserID: 10, Role: model.RoleEditor, Status: "invited",
	})
	if _, err := svc.UpdateStory(story.ID, 10, "X", "Y", ""); !appErrors.IsForbidden(err) {
		t.Fatalf("expected forbidden for pending invite, got %v", err)
	}
}

func TestListStoriesPagination(t *testing.T) {
	repo := &MockStoryRepo{}
	svc := &service.StoryService{StoryRepo: repo}

	for i := 0; i < 25; i++ {
		svc.CreateStory(7, "Story", "content", "drama")
	}

	seen := map[int]bool{}
	for page := 1; page <= 3; page++ {
		stories, pagination, err := svc.ListStories(7, page, 10, "", "drama")
		if err != nil {
			t.Fatalf("ListStories failed: %v", err)
		}
		if pagination["total_count"] != 25 {
			t.Errorf("expected total 25, got %d", pagination["total_count"])
		}
		if pagination["total_pages"] != 3 {
			t.Errorf("expected 3 pages, got %d", pagination["total_pages"])
		}
		for _, s := range stories {
			if seen[s.ID] {
				t.Errorf("duplicate story %d across pages", s.ID)
			}
			seen[s.ID] = true
		}
	}
	if len(seen) != 25 {
		t.Errorf("expected 25 unique stories, got %d", len(seen))
	}
}
