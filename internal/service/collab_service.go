// internal/service/collab_service.go
package service

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
)

type CollabService struct {
	CollabRepo repository.CollaboratorRepositoryInterface
	StoryRepo  repository.StoryRepositoryInterface
	UserRepo   repository.UserRepositoryInterface
	Bus        events.Bus
}

// Invite adds a user (looked up by email) as a collaborator on the caller's
// story. Only the story owner can invite, and a user can hold at most one
// role per story.
func (s *CollabService) Invite(storyID, callerID int, email, role string) (*model.Collaborator, error) {
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != callerID {
		return nil, appErrors.NewForbidden("only the story owner can invite collaborators")
	}

	invitee, err := s.UserRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if invitee == nil {
		return nil, appErrors.NewUserNotFound(email)
	}
	if invitee.ID == callerID {
		return nil, fmt.Errorf("cannot invite yourself")
	}

	existing, err := s.CollabRepo.GetByStoryAndUser(storyID, invitee.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("user %d is already a collaborator on story %d", invitee.ID, storyID)
	}

	collab := &model.Collaborator{
		StoryID:     storyID,
		UserID:      invitee.ID,
		Role:        role,
		Status:      "invited",
		InviteToken: uuid.NewString(),
	}
	if err := s.CollabRepo.Create(collab); err != nil {
		return nil, err
	}

	if s.Bus != nil {
		s.Bus.Publish(events.Event{
			Domain: events.DomainCollab,
			Type:   events.TypeCollabInvited,
			UserID: invitee.ID,
			Vars: map[string]string{
				"story_id":    strconv.Itoa(storyID),
				"story_title": story.Title,
				"role":        role,
			},
		})
	}

	return collab, nil
}

// RespondToInvite accepts or declines an invitation identified by its token.
// The token is single-use: a resolved invite cannot change state again.
func (s *CollabService) RespondToInvite(token string, userID int, accept bool) (*model.Collaborator, error) {
	collab, err := s.CollabRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if collab == nil {
		return nil, appErrors.NewInviteNotFound(token)
	}
	if collab.UserID != userID {
		return nil, appErrors.NewForbidden("invite belongs to another user")
	}
	if collab.Status != "invited" {
		return nil, fmt.Errorf("invite already %s", collab.Status)
	}

	status := "declined"
	if accept {
		status = "accepted"
	}
	if err := s.CollabRepo.UpdateStatus(collab.ID, status); err != nil {
		return nil, err
	}
	collab.Status = status
	return collab, nil
}

// ListCollaborators returns collaborators on a story, visible to the owner
// and to accepted collaborators of any role.
func (s *CollabService) ListCollaborators(storyID, callerID int) ([]model.Collaborator, error) {
	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != callerID {
		collab, err := s.CollabRepo.GetByStoryAndUser(storyID, callerID)
		if err != nil {
			return nil, err
		}
		if collab == nil || collab.Status != "accepted" {
			return nil, appErrors.NewForbidden("not a collaborator on this story")
		}
	}
	return s.CollabRepo.ListByStory(storyID)
}
