// internal/service/voice_service.go
package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/events"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/voice"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
	"github.com/dineshachuthan/storyteller-backend/internal/storage"
)

// MinTrainingSamples is how many ESM samples a profile needs before training
// can start.
const MinTrainingSamples = 3

type VoiceService struct {
	VoiceRepo repository.VoiceRepositoryInterface
	Clone     voice.CloneProvider
	Store     storage.Store
	Bus       events.Bus
}

func (s *VoiceService) ListESMItems() ([]model.ESMItem, error) {
	return s.VoiceRepo.ListESMItems()
}

func (s *VoiceService) CreateProfile(userID int, name string) (*model.VoiceProfile, error) {
	if name == "" {
		return nil, fmt.Errorf("profile name cannot be empty")
	}
	p := &model.VoiceProfile{UserID: userID, Name: name, Status: "pending"}
	if err := s.VoiceRepo.CreateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *VoiceService) GetProfile(id int) (*model.VoiceProfile, error) {
	return s.VoiceRepo.GetProfile(id)
}

func (s *VoiceService) ListProfiles(userID int) ([]model.VoiceProfile, error) {
	return s.VoiceRepo.ListProfilesByUser(userID)
}

// AddSample stores an uploaded recording for one ESM item and attaches it to
// the profile. Samples can only be added before training starts.
func (s *VoiceService) AddSample(ctx context.Context, profileID, userID, esmItemID int, audio io.Reader, durationSecs float64) (*model.VoiceSample, error) {
	profile, err := s.VoiceRepo.GetProfile(profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, appErrors.NewForbidden("not your voice profile")
	}
	if profile.Status != "pending" {
		return nil, fmt.Errorf("samples cannot be added in status: %s", profile.Status)
	}

	item, err := s.VoiceRepo.GetESMItem(esmItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("unknown esm item %d", esmItemID)
	}

	key := fmt.Sprintf("samples/%d/%d.mp3", profileID, esmItemID)
	if err := s.Store.Put(ctx, key, audio, "audio/mpeg"); err != nil {
		return nil, fmt.Errorf("failed to store sample: %w", err)
	}

	sample := &model.VoiceSample{
		VoiceProfileID: profileID,
		ESMItemID:      esmItemID,
		ObjectKey:      key,
		DurationSecs:   durationSecs,
	}
	if err := s.VoiceRepo.CreateSample(sample); err != nil {
		return nil, err
	}
	return sample, nil
}

// StartTraining submits the collected samples to the clone provider and moves
// the profile to training. The worker's cron loop polls for completion.
func (s *VoiceService) StartTraining(ctx context.Context, profileID, userID int) (*model.VoiceProfile, error) {
	profile, err := s.VoiceRepo.GetProfile(profileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, appErrors.NewForbidden("not your voice profile")
	}
	if profile.Status != "pending" {
		return nil, fmt.Errorf("training cannot start in status: %s", profile.Status)
	}
	if profile.SampleCount < MinTrainingSamples {
		return nil, fmt.Errorf("need at least %d samples, have %d", MinTrainingSamples, profile.SampleCount)
	}

	rows, err := s.VoiceRepo.ListSamples(profileID)
	if err != nil {
		return nil, err
	}

	samples := make([]voice.Sample, 0, len(rows))
	for _, row := range rows {
		body, err := s.Store.Get(ctx, row.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load sample %s: %w", row.ObjectKey, err)
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return nil, err
		}
		samples = append(samples, voice.Sample{
			Filename: fmt.Sprintf("sample_%d.mp3", row.ESMItemID),
			Data:     data,
		})
	}

	providerVoiceID, err := s.Clone.CreateClone(ctx, profile.Name, samples)
	if err != nil {
		_ = s.VoiceRepo.UpdateProfileStatus(profileID, "failed", "", err.Error())
		return nil, fmt.Errorf("clone submission failed: %w", err)
	}

	if err := s.VoiceRepo.UpdateProfileStatus(profileID, "training", providerVoiceID, ""); err != nil {
		return nil, err
	}
	profile.Status = "training"
	profile.ProviderVoiceID = providerVoiceID
	return profile, nil
}

// CheckTraining polls the clone provider for every training profile and
// finalizes the ones that finished. Called from the worker's cron loop.
func (s *VoiceService) CheckTraining(ctx context.Context) error {
	profiles, err := s.VoiceRepo.ListTrainingProfiles()
	if err != nil {
		return err
	}

	for _, p := range profiles {
		status, err := s.Clone.CloneStatus(ctx, p.ProviderVoiceID)
		if err != nil {
			log.Printf("⚠️ failed to poll clone status for profile %d: %v", p.ID, err)
			continue
		}

		switch status {
		case "completed":
			if err := s.VoiceRepo.UpdateProfileStatus(p.ID, "completed", "", ""); err != nil {
				return err
			}
			s.publishTrainingEvent(p, events.TypeTrainingDone, "")
		case "failed":
			if err := s.VoiceRepo.UpdateProfileStatus(p.ID, "failed", "", "provider reported training failure"); err != nil {
				return err
			}
			s.publishTrainingEvent(p, events.TypeTrainingFailed, "provider reported training failure")
		}
	}
	return nil
}

func (s *VoiceService) publishTrainingEvent(p model.VoiceProfile, eventType, reason string) {
	if s.Bus == nil {
		return
	}
	s.Bus.Publish(events.Event{
		Domain: events.DomainVoice,
		Type:   eventType,
		UserID: p.UserID,
		Vars: map[string]string{
			"profile_id":   strconv.Itoa(p.ID),
			"profile_name": p.Name,
			"reason":       reason,
		},
	})
}

// ReadSample streams a stored sample back, e.g. for playback in review.
func (s *VoiceService) ReadSample(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	return s.Store.Get(ctx, objectKey)
}

// SampleObjectKey resolves a sample's storage key after checking the caller
// owns the profile the sample belongs to.
func (s *VoiceService) SampleObjectKey(profileID, userID, sampleID int) (string, error) {
	profile, err := s.VoiceRepo.GetProfile(profileID)
	if err != nil {
		return "", err
	}
	if profile.UserID != userID {
		return "", appErrors.NewForbidden("voice profile belongs to another user")
	}

	samples, err := s.VoiceRepo.ListSamples(profileID)
	if err != nil {
		return "", err
	}
	for _, sample := range samples {
		if sample.ID == sampleID {
			return sample.ObjectKey, nil
		}
	}
	return "", fmt.Errorf("sample %d not found on profile %d", sampleID, profileID)
}
