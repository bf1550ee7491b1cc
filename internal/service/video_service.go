// internal/service/video_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/provider"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/video"
	"github.com/dineshachuthan/storyteller-backend/internal/queue"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
)

type VideoService struct {
	TaskRepo   repository.VideoTaskRepositoryInterface
	StoryRepo  repository.StoryRepositoryInterface
	CollabRepo repository.CollaboratorRepositoryInterface
	Registry   *provider.Registry
	Providers  map[string]video.Provider
	Queue      queue.Queue
	Bus        events.Bus
}

// CreateTask records a video request for the story and queues it for the
// worker's submit loop. Rendering spends vendor quota, so only the owner or
// an accepted editor may request it.
func (s *VideoService) CreateTask(storyID, userID int, prompt string) (*model.VideoTask, error) {
	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCollaborator(story, userID, model.RoleEditor); err != nil {
		return nil, err
	}
	if prompt == "" {
		prompt = fmt.Sprintf("A short cinematic scene based on the story %q: %s", story.Title, story.Summary)
	}

	task := &model.VideoTask{
		ID:      uuid.NewString(),
		StoryID: storyID,
		Prompt:  prompt,
		Status:  "pending",
	}
	if err := s.TaskRepo.Create(task); err != nil {
		return nil, err
	}

	if err := s.Queue.Publish(queue.TopicVideoJobs, task.ID); err != nil {
		return nil, fmt.Errorf("failed to enqueue video task %s: %w", task.ID, err)
	}
	return task, nil
}

func (s *VideoService) GetTask(id string) (*model.VideoTask, error) {
	return s.TaskRepo.GetByID(id)
}

// ListTasks is visible to the owner and accepted collaborators of any role.
func (s *VideoService) ListTasks(storyID, userID int) ([]model.VideoTask, error) {
	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCollaborator(story, userID, ""); err != nil {
		return nil, err
	}
	return s.TaskRepo.ListByStory(storyID)
}

// requireCollaborator passes for the owner, otherwise requires an accepted
// collaborator. An empty role accepts any role.
func (s *VideoService) requireCollaborator(story *model.Story, userID int, role string) error {
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
	if collab == nil || collab.Status != "accepted" {
		return appErrors.NewForbidden("not a collaborator")
	}
	if role != "" && collab.Role != role {
		return appErrors.NewForbidden("requires role " + role)
	}
	return nil
}

// SubmitTask walks the fallback order (active provider first, then the
// remaining enabled providers by priority) until one accepts the job. A
// provider that errors is recorded and skipped; exhausting the list fails
// the task.
func (s *VideoService) SubmitTask(ctx context.Context, taskID string) error {
	task, err := s.TaskRepo.GetByID(taskID)
	if err != nil {
		return err
	}
	if task.Status != "pending" {
		return nil // already submitted by an earlier delivery
	}

	req := video.Request{
		Prompt:       task.Prompt,
		DurationSecs: 5,
		AspectRatio:  "16:9",
	}

	var lastErr error
	for _, name := range s.Registry.FallbackOrder() {
		p, ok := s.Providers[name]
		if !ok {
			log.Printf("⚠️ provider %s in registry but not wired", name)
			continue
		}

		providerTaskID, err := p.Submit(ctx, req)
		if err != nil {
			lastErr = err
			log.Printf("⚠️ provider %s rejected task %s: %v", name, taskID, err)
			if recErr := s.TaskRepo.RecordAttempt(taskID, name, err.Error()); recErr != nil {
				return recErr
			}
			continue
		}

		return s.TaskRepo.UpdateSubmitted(taskID, name, providerTaskID)
	}

	msg := "no enabled video providers"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	if err := s.TaskRepo.MarkFailed(taskID, msg); err != nil {
		return err
	}
	s.publishVideoEvent(task, events.TypeVideoFailed, "", msg)
	return fmt.Errorf("all providers failed for task %s: %s", taskID, msg)
}

// PollTasks queries the owning vendor for every in-flight task and applies
// the status transition. Called from the worker's cron loop.
func (s *VideoService) PollTasks(ctx context.Context) error {
	tasks, err := s.TaskRepo.ListPollable()
	if err != nil {
		return err
	}

	for _, task := range tasks {
		p, ok := s.Providers[task.Provider]
		if !ok {
			log.Printf("⚠️ task %s owned by unknown provider %s", task.ID, task.Provider)
			continue
		}

		result, err := p.Status(ctx, task.ProviderTaskID)
		if err != nil {
			log.Printf("⚠️ failed to poll %s task %s: %v", task.Provider, task.ID, err)
			continue
		}

		switch result.Status {
		case video.StatusCompleted:
			if err := s.TaskRepo.MarkCompleted(task.ID, result.VideoURL); err != nil {
				return err
			}
			s.publishVideoEvent(&task, events.TypeVideoCompleted, result.VideoURL, "")
		case video.StatusFailed:
			if err := s.TaskRepo.MarkFailed(task.ID, result.Err); err != nil {
				return err
			}
			s.publishVideoEvent(&task, events.TypeVideoFailed, "", result.Err)
		default:
			if task.Status == "submitted" {
				_ = s.TaskRepo.UpdateProcessing(task.ID)
			}
		}
	}
	return nil
}

func (s *VideoService) publishVideoEvent(task *model.VideoTask, eventType, videoURL, reason string) {
	if s.Bus == nil {
		return
	}
	story, err := s.StoryRepo.GetByID(task.StoryID)
	if err != nil {
		log.Printf("⚠️ failed to load story %d for video event: %v", task.StoryID, err)
		return
	}
	s.Bus.Publish(events.Event{
		Domain: events.DomainVideo,
		Type:   eventType,
		UserID: story.UserID,
		Vars: map[string]string{
			"story_id":    strconv.Itoa(story.ID),
			"story_title": story.Title,
			"task_id":     task.ID,
			"video_url":   videoURL,
			"reason":      reason,
		},
	})
}

// ====================== Registry management ======================

func (s *VideoService) ListProviders() []provider.Entry {
	return s.Registry.List()
}

func (s *VideoService) ActiveProvider() string {
	return s.Registry.Active()
}

func (s *VideoService) SwitchProvider(name string) error {
	return s.Registry.SwitchActive(name)
}

func (s *VideoService) SetProviderEnabled(name string, enabled bool) error {
	return s.Registry.SetEnabled(name, enabled)
}
