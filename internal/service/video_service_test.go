package service_test

import (
	"context"
	"fmt"
	"testing"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/provider"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/video"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

// --- Mocks ---

type MockVideoTaskRepo struct {
	tasks map[string]*model.VideoTask
}

func (m *MockVideoTaskRepo) Create(t *model.VideoTask) error {
	if m.tasks == nil {
		m.tasks = map[string]*model.VideoTask{}
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *MockVideoTaskRepo) GetByID(id string) (*model.VideoTask, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return t, nil
}

func (m *MockVideoTaskRepo) ListByStory(storyID int) ([]model.VideoTask, error) {
	var out []model.VideoTask
	for _, t := range m.tasks {
		if t.StoryID == storyID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *MockVideoTaskRepo) ListPollable() ([]model.VideoTask, error) {
	var out []model.VideoTask
	for _, t := range m.tasks {
		if t.Status == "submitted" || t.Status == "processing" {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *MockVideoTaskRepo) RecordAttempt(id, provider, lastError string) error {
	t := m.tasks[id]
	t.FallbackAttempts++
	t.Provider = provider
	t.LastError = lastError
	return nil
}

func (m *MockVideoTaskRepo) UpdateSubmitted(id, provider, providerTaskID string) error {
	t := m.tasks[id]
	t.Status = "submitted"
	t.Provider = provider
	t.ProviderTaskID = providerTaskID
	return nil
}

func (m *MockVideoTaskRepo) UpdateProcessing(id string) error {
	m.tasks[id].Status = "processing"
	return nil
}

func (m *MockVideoTaskRepo) MarkCompleted(id, videoURL string) error {
	t := m.tasks[id]
	t.Status = "completed"
	t.VideoURL = videoURL
	return nil
}

func (m *MockVideoTaskRepo) MarkFailed(id, lastError string) error {
	t := m.tasks[id]
	t.Status = "failed"
	t.LastError = lastError
	return nil
}

// fakeProvider either rejects submissions or accepts them and reports a
// fixed status.
type fakeProvider struct {
	name    string
	reject  bool
	submits int
	status  *video.Result
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Submit(ctx context.Context, req video.Request) (string, error) {
	p.submits++
	if p.reject {
		return "", fmt.Errorf("%s: quota exceeded", p.name)
	}
	return p.name + "-task-1", nil
}

func (p *fakeProvider) Status(ctx context.Context, taskID string) (*video.Result, error) {
	if p.status == nil {
		return &video.Result{Status: video.StatusProcessing}, nil
	}
	return p.status, nil
}

type MockStoryRepoForVideo struct{}

func (m *MockStoryRepoForVideo) Create(s *model.Story) error { return nil }
func (m *MockStoryRepoForVideo) GetByID(id int) (*model.Story, error) {
	return &model.Story{
		ID: id, UserID: 7, Title: "The Lighthouse",
		Content: "Once upon a time, a keeper lived alone.",
		Summary: "A keeper alone at sea.",
	}, nil
}
func (m *MockStoryRepoForVideo) ListByUser(userID, offset, limit int, status, genre string) ([]*model.Story, int, error) {
	return nil, 0, nil
}
func (m *MockStoryRepoForVideo) UpdateContent(id int, title, content, genre string) error { return nil }
func (m *MockStoryRepoForVideo) UpdateStatus(id int, status string) error                 { return nil }
func (m *MockStoryRepoForVideo) Delete(id int) error                                      { return nil }
func (m *MockStoryRepoForVideo) CreateAnalysis(a *model.StoryAnalysis) error              { return nil }
func (m *MockStoryRepoForVideo) GetLatestAnalysis(storyID int) (*model.StoryAnalysis, error) {
	return nil, nil
}

func newVideoFixture(providers map[string]video.Provider, entries []provider.Entry) (*service.VideoService, *MockVideoTaskRepo) {
	repo := &MockVideoTaskRepo{tasks: map[string]*model.VideoTask{}}
	svc := &service.VideoService{
		TaskRepo:  repo,
		StoryRepo: &MockStoryRepoForVideo{},
		Registry:  provider.NewRegistry(entries),
		Providers: providers,
		Queue:     &MockQueue{},
	}
	return svc, repo
}

// --- Tests ---

func TestSubmitTaskFallsBackToNextProvider(t *testing.T) {
	kling := &fakeProvider{name: "kling", reject: true}
	runway := &fakeProvider{name: "runway"}
	svc, repo := newVideoFixture(
		map[string]video.Provider{"kling": kling, "runway": runway},
		[]provider.Entry{
			{Name: "kling", Enabled: true, Priority: 1},
			{Name: "runway", Enabled: true, Priority: 2},
		},
	)

	repo.tasks["t1"] = &model.VideoTask{ID: "t1", StoryID: 1, Prompt: "a lighthouse", Status: "pending"}

	if err := svc.SubmitTask(context.Background(), "t1"); err != nil {
		t.Fatalf("SubmitTask failed: %v", err)
	}

	task := repo.tasks["t1"]
	if task.Status != "submitted" {
		t.Fatalf("expected status submitted, got %s", task.Status)
	}
	if task.Provider != "runway" {
		t.Errorf("expected fallback to runway, got %s", task.Provider)
	}
	if task.ProviderTaskID != "runway-task-1" {
		t.Errorf("expected vendor task id recorded, got %s", task.ProviderTaskID)
	}
	if task.FallbackAttempts != 1 {
		t.Errorf("expected the kling rejection recorded, got %d attempts", task.FallbackAttempts)
	}
	if kling.submits != 1 || runway.submits != 1 {
		t.Errorf("expected each provider tried once, got kling=%d runway=%d", kling.submits, runway.submits)
	}
}

func TestSubmitTaskExhaustionFailsTask(t *testing.T) {
	svc, repo := newVideoFixture(
		map[string]video.Provider{
			"kling":  &fakeProvider{name: "kling", reject: true},
			"runway": &fakeProvider{name: "runway", reject: true},
		},
		[]provider.Entry{
			{Name: "kling", Enabled: true, Priority: 1},
			{Name: "runway", Enabled: true, Priority: 2},
		},
	)

	repo.tasks["t1"] = &model.VideoTask{ID: "t1", StoryID: 1, Prompt: "a lighthouse", Status: "pending"}

	if err := svc.SubmitTask(context.Background(), "t1"); err == nil {
		t.Fatal("expected an error after exhausting all providers")
	}

	task := repo.tasks["t1"]
	if task.Status != "failed" {
		t.Errorf("expected status failed, got %s", task.Status)
	}
	if task.LastError == "" {
		t.Error("expected last_error to be recorded")
	}
}

func TestSubmitTaskSkipsDisabledProviders(t *testing.T) {
	kling := &fakeProvider{name: "kling"}
	runway := &fakeProvider{name: "runway"}
	svc, repo := newVideoFixture(
		map[string]video.Provider{"kling": kling, "runway": runway},
		[]provider.Entry{
			{Name: "kling", Enabled: false, Priority: 1},
			{Name: "runway", Enabled: true, Priority: 2},
		},
	)

	repo.tasks["t1"] = &model.VideoTask{ID: "t1", StoryID: 1, Prompt: "a lighthouse", Status: "pending"}

	if err := svc.SubmitTask(context.Background(), "t1"); err != nil {
		t.Fatalf("SubmitTask failed: %v", err)
	}

	if kling.submits != 0 {
		t.Errorf("disabled provider should not be tried, got %d submits", kling.submits)
	}
	if repo.tasks["t1"].Provider != "runway" {
		t.Errorf("expected runway, got %s", repo.tasks["t1"].Provider)
	}
}

func TestCreateTaskAccess(t *testing.T) {
	kling := &fakeProvider{name: "kling"}
	svc, repo := newVideoFixture(
		map[string]video.Provider{"kling": kling},
		[]provider.Entry{{Name: "kling", Enabled: true, Priority: 1}},
	)
	svc.CollabRepo = &MockCollabRepo{collabs: []*model.Collaborator{
		{ID: 1, StoryID: 1, UserID: 8, Role: model.RoleEditor, Status: "accepted"},
		{ID: 2, StoryID: 1, UserID: 9, Role: model.RoleViewer, Status: "accepted"},
	}}

	// owner and accepted editor may render; viewer and stranger may not
	if _, err := svc.CreateTask(1, 7, "a lighthouse"); err != nil {
		t.Errorf("owner should be allowed: %v", err)
	}
	if _, err := svc.CreateTask(1, 8, "a lighthouse"); err != nil {
		t.Errorf("accepted editor should be allowed: %v", err)
	}
	if _, err := svc.CreateTask(1, 9, ""); !appErrors.IsForbidden(err) {
		t.Errorf("viewer should be forbidden, got %v", err)
	}
	if _, err := svc.CreateTask(1, 10, ""); !appErrors.IsForbidden(err) {
		t.Errorf("stranger should be forbidden, got %v", err)
	}
	if len(repo.tasks) != 2 {
		t.Errorf("expected 2 tasks created, got %d", len(repo.tasks))
	}

	// any accepted collaborator can list; a stranger cannot
	if _, err := svc.ListTasks(1, 9); err != nil {
		t.Errorf("accepted viewer should see tasks: %v", err)
	}
	if _, err := svc.ListTasks(1, 10); !appErrors.IsForbidden(err) {
		t.Errorf("stranger should be forbidden to list, got %v", err)
	}
}

func TestPollTasksAppliesTransitions(t *testing.T) {
	done := &fakeProvider{name: "kling", status: &video.Result{Status: video.StatusCompleted, VideoURL: "https://cdn/video.mp4"}}
	svc, repo := newVideoFixture(
		map[string]video.Provider{"kling": done},
		[]provider.Entry{{Name: "kling", Enabled: true, Priority: 1}},
	)

	repo.tasks["t1"] = &model.VideoTask{
		ID: "t1", StoryID: 1, Status: "submitted",
		Provider: "kling", ProviderTaskID: "kling-task-1",
	}

	if err := svc.PollTasks(context.Background()); err != nil {
		t.Fatalf("PollTasks failed: %v", err)
	}

	task := repo.tasks["t1"]
	if task.Status != "completed" {
		t.Fatalf("expected status completed, got %s", task.Status)
	}
	if task.VideoURL != "https://cdn/video.mp4" {
		t.Errorf("expected video url stored, got %s", task.VideoURL)
	}
}
