// internal/service/narration_service.go
package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"

	"github.com/dineshachuthan/storyteller-backend/internal/cache"
	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/voice"
	"github.com/dineshachuthan/storyteller-backend/internal/queue"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
	"github.com/dineshachuthan/storyteller-backend/internal/storage"
)

// wordsPerSecond approximates narration duration from text length until the
// audio is actually decoded client-side.
const wordsPerSecond = 2.5

type NarrationService struct {
	NarrationRepo repository.NarrationRepositoryInterface
	StoryRepo     repository.StoryRepositoryInterface
	VoiceRepo     repository.VoiceRepositoryInterface
	CollabRepo    repository.CollaboratorRepositoryInterface
	TTS           voice.TTSProvider
	FallbackTTS   voice.TTSProvider // stock-voice engine tried when TTS fails
	Store         storage.Store
	Cache         cache.NarrationCache
	Queue         queue.Queue
	Bus           events.Bus
}

// ContentHash keys the narration cache: identical story text rendered with
// the same voice and TTS engine yields identical audio.
func ContentHash(content, voiceID, engine string) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte{0})
	h.Write([]byte(voiceID))
	h.Write([]byte{0})
	h.Write([]byte(engine))
	return hex.EncodeToString(h.Sum(nil))
}

// RequestNarration creates (or reuses) a narration for the story. A
// completed narration with the same content hash, or a redis cache hit, is
// returned immediately without calling the vendor; otherwise a pending row is
// queued for the worker.
func (s *NarrationService) RequestNarration(ctx context.Context, storyID, userID int, voiceProfileID *int) (*model.Narration, error) {
	story, err := s.StoryRepo.GetByID(storyID)
	if err != nil {
		return nil, err
	}
	if err := s.requireNarrator(story, userID); err != nil {
		return nil, err
	}

	voiceID := voice.DefaultVoiceID
	if voiceProfileID != nil {
		profile, err := s.VoiceRepo.GetProfile(*voiceProfileID)
		if err != nil {
			return nil, err
		}
		if profile.UserID != userID {
			return nil, appErrors.NewForbidden("voice profile belongs to another user")
		}
		if profile.Status != "completed" {
			return nil, fmt.Errorf("voice profile is not ready: %s", profile.Status)
		}
		voiceID = profile.ProviderVoiceID
	}

	hash := ContentHash(story.Content, voiceID, s.TTS.Name())

	// 1. A completed row with this hash is the same audio.
	existing, err := s.NarrationRepo.GetCompletedByHash(hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.CacheHit = true
		return existing, nil
	}

	// 2. The redis cache may remember audio whose row was pruned.
	if s.Cache != nil {
		objectKey, err := s.Cache.Get(ctx, hash)
		if err == nil && objectKey != "" {
			n := &model.Narration{
				StoryID:        storyID,
				VoiceProfileID: voiceProfileID,
				VoiceID:        voiceID,
				Status:         "completed",
				ContentHash:    hash,
				ObjectKey:      objectKey,
				CacheHit:       true,
			}
			if err := s.NarrationRepo.Create(n); err != nil {
				return nil, err
			}
			return n, nil
		}
	}

	// 3. Fresh work for the worker.
	n := &model.Narration{
		StoryID:        storyID,
		VoiceProfileID: voiceProfileID,
		VoiceID:        voiceID,
		Status:         "pending",
		ContentHash:    hash,
	}
	if err := s.NarrationRepo.Create(n); err != nil {
		return nil, err
	}

	if err := s.Queue.Publish(queue.TopicNarrationJobs, n.ID); err != nil {
		return nil, fmt.Errorf("failed to enqueue narration %d: %w", n.ID, err)
	}
	return n, nil
}

// ProcessNarration is the worker side: render the audio, store it, finish the
// row, warm the cache.
func (s *NarrationService) ProcessNarration(ctx context.Context, narrationID int) error {
	n, err := s.NarrationRepo.GetByID(narrationID)
	if err != nil {
		return err
	}
	if n.Status == "completed" {
		return nil // duplicate delivery
	}

	story, err := s.StoryRepo.GetByID(n.StoryID)
	if err != nil {
		return err
	}

	if err := s.NarrationRepo.MarkProcessing(narrationID); err != nil {
		return err
	}

	audio, err := s.TTS.Synthesize(ctx, story.Content, n.VoiceID)
	if err != nil && s.FallbackTTS != nil {
		// the fallback engine has no cloned voices, so it narrates with a stock voice
		log.Printf("⚠️ tts engine %s failed for narration %d, falling back to %s: %v",
			s.TTS.Name(), narrationID, s.FallbackTTS.Name(), err)
		audio, err = s.FallbackTTS.Synthesize(ctx, story.Content, voice.DefaultVoiceID)
	}
	if err != nil {
		_ = s.NarrationRepo.MarkFailed(narrationID, err.Error())
		return fmt.Errorf("tts failed for narration %d: %w", narrationID, err)
	}

	objectKey := fmt.Sprintf("narrations/%d.mp3", narrationID)
	if err := s.Store.Put(ctx, objectKey, bytes.NewReader(audio), "audio/mpeg"); err != nil {
		_ = s.NarrationRepo.MarkFailed(narrationID, err.Error())
		return fmt.Errorf("failed to store narration %d: %w", narrationID, err)
	}

	duration := estimateDuration(story.Content)
	if err := s.NarrationRepo.MarkCompleted(narrationID, objectKey, duration); err != nil {
		return err
	}

	if s.Cache != nil {
		_ = s.Cache.Set(ctx, n.ContentHash, objectKey)
	}

	// first completed narration moves the story forward
	if story.Status == "draft" || story.Status == "analyzed" {
		_ = s.StoryRepo.UpdateStatus(story.ID, "narrated")
	}

	if s.Bus != nil {
		s.Bus.Publish(events.Event{
			Domain: events.DomainStory,
			Type:   events.TypeNarrationDone,
			UserID: story.UserID,
			Vars: map[string]string{
				"story_id":     strconv.Itoa(story.ID),
				"story_title":  story.Title,
				"narration_id": strconv.Itoa(narrationID),
			},
		})
	}
	return nil
}

func (s *NarrationService) GetNarration(id int) (*model.Narration, error) {
	return s.NarrationRepo.GetByID(id)
}

func (s *NarrationService) ListNarrations(storyID int) ([]model.Narration, error) {
	return s.NarrationRepo.ListByStory(storyID)
}

// requireNarrator passes for the owner, otherwise requires an accepted
// collaborator whose role allows narrating (editor or narrator).
func (s *NarrationService) requireNarrator(story *model.Story, userID int) error {
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
	if collab.Role != model.RoleEditor && collab.Role != model.RoleNarrator {
		return appErrors.NewForbidden("requires role " + model.RoleNarrator)
	}
	return nil
}

func estimateDuration(content string) float64 {
	words := 0
	inWord := false
	for _, r := range content {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	return float64(words) / wordsPerSecond
}
