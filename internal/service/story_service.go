// internal/service/story_service.go
package service

import (
	"fmt"
	"strconv"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
)

type StoryService struct {
	StoryRepo  repository.StoryRepositoryInterface
	CollabRepo repository.CollaboratorRepositoryInterface
	Bus        events.Bus
}

func (s *StoryService) CreateStory(userID int, title, content, genre string) (*model.Story, error) {
	if title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	if content == "" {
		return nil, fmt.Errorf("content cannot be empty")
	}

	story := &model.Story{
		UserID:  userID,
		Title:   title,
		Content: content,
		Genre:   genre,
		Status:  "draft",
	}
	if err := s.StoryRepo.Create(story); err != nil {
		return nil, err
	}
	return story, nil
}

func (s *StoryService) GetStory(id int) (*model.Story, error) {
	return s.StoryRepo.GetByID(id)
}

// ListStories fetches a user's stories with pagination
func (s *StoryService) ListStories(userID, page, pageSize int, status, genre string) ([]model.Story, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.StoryRepo.ListByUser(userID, offset, pageSize, status, genre)
	if err != nil {
		return nil, nil, err
	}

	stories := make([]model.Story, len(ptrs))
	for i, st := range ptrs {
		stories[i] = *st
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return stories, pagination, nil
}

// UpdateStory rewrites a story's content. Only the owner or an accepted
// editor collaborator may do this; published stories are frozen.
func (s *StoryService) UpdateStory(storyID, userID int, title, content, genre string) (*model.Story, error) {
	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if story.Status == "published" {
		return nil, fmt.Errorf("story cannot be edited in status: %s", story.Status)
	}
	if err := s.requireRole(story, userID, model.RoleEditor); err != nil {
		return nil, err
	}

	if err := s.StoryRepo.UpdateContent(storyID, title, content, genre); err != nil {
		return nil, err
	}
	return s.StoryRepo.GetByID(storyID)
}

// PublishStory moves the story to published and emits the domain event the
// notification dispatcher listens for.
func (s *StoryService) PublishStory(storyID, userID int) (*model.Story, error) {
	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != userID {
		return nil, appErrors.NewForbidden("only the owner can publish")
	}
	if story.Status == "published" {
		return story, nil // already there
	}

	if err := s.StoryRepo.UpdateStatus(storyID, "published"); err != nil {
		return nil, err
	}
	story.Status = "published"

	if s.Bus != nil {
		s.Bus.Publish(events.Event{
			Domain: events.DomainStory,
			Type:   events.TypeStoryPublished,
			UserID: story.UserID,
			Vars: map[string]string{
				"story_id":    strconv.Itoa(story.ID),
				"story_title": story.Title,
			},
		})
	}
	return story, nil
}

func (s *StoryService) DeleteStory(storyID, userID int) error {
	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return err
	}
	if story.UserID != userID {
		return appErrors.NewForbidden("only the owner can delete")
	}
	return s.StoryRepo.Delete(storyID)
}

// requireRole passes for the owner, otherwise requires an accepted
// collaborator with the given role.
func (s *StoryService) requireRole(story *model.Story, userID int, role string) error {
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
	if collab.Role != role {
		return appErrors.NewForbidden("requires role " + role)
	}
	return nil
}
