package service_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/provider/voice"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

// stubClone controls training outcomes.
type stubClone struct {
	failCreate bool
	state      string
	clones     int
}

func (c *stubClone) CreateClone(ctx context.Context, name string, samples []voice.Sample) (string, error) {
	c.clones++
	if c.failCreate {
		return "", fmt.Errorf("vendor rejected samples")
	}
	return "voice-abc", nil
}

func (c *stubClone) CloneStatus(ctx context.Context, voiceID string) (string, error) {
	if c.state == "" {
		return "training", nil
	}
	return c.state, nil
}

func newVoiceFixture(clone *stubClone) (*service.VoiceService, *MockVoiceRepo, *recordingBus) {
	repo := &MockVoiceRepo{items: []model.ESMItem{
		{ID: 1, Category: "emotion", Name: "joy", PromptText: "Read happily", SampleSeconds: 15},
		{ID: 2, Category: "emotion", Name: "sadness", PromptText: "Read sadly", SampleSeconds: 15},
		{ID: 3, Category: "sound", Name: "laugh", PromptText: "Laugh", SampleSeconds: 10},
	}}
	bus := &recordingBus{}
	svc := &service.VoiceService{VoiceRepo: repo, Clone: clone, Store: &memStore{}, Bus: bus}
	return svc, repo, bus
}

func TestStartTrainingRequiresMinSamples(t *testing.T) {
	svc, _, _ := newVoiceFixture(&stubClone{})

	profile, err := svc.CreateProfile(7, "My voice")
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	audio := bytes.NewReader([]byte("mp3-bytes"))
	if _, err := svc.AddSample(context.Background(), profile.ID, 7, 1, audio, 12); err != nil {
		t.Fatalf("AddSample failed: %v", err)
	}

	if _, err := svc.StartTraining(context.Background(), profile.ID, 7); err == nil {
		t.Fatal("expected an error with fewer than 3 samples")
	}
}

func TestStartTrainingSubmitsAllSamples(t *testing.T) {
	clone := &stubClone{}
	svc, _, _ := newVoiceFixture(clone)

	profile, _ := svc.CreateProfile(7, "My voice")
	for item := 1; item <= 3; item++ {
		if _, err := svc.AddSample(context.Background(), profile.ID, 7, item, bytes.NewReader([]byte("mp3")), 10); err != nil {
			t.Fatalf("AddSample %d failed: %v", item, err)
		}
	}

	trained, err := svc.StartTraining(context.Background(), profile.ID, 7)
	if err != nil {
		t.Fatalf("StartTraining failed: %v", err)
	}
	if trained.Status != "training" {
		t.Errorf("expected training, got %s", trained.Status)
	}
	if trained.ProviderVoiceID != "voice-abc" {
		t.Errorf("expected vendor voice id, got %s", trained.ProviderVoiceID)
	}
	if clone.clones != 1 {
		t.Errorf("expected one clone call, got %d", clone.clones)
	}
}

func TestStartTrainingVendorFailureMarksProfile(t *testing.T) {
	svc, repo, _ := newVoiceFixture(&stubClone{failCreate: true})

	profile, _ := svc.CreateProfile(7, "My voice")
	for item := 1; item <= 3; item++ {
		svc.AddSample(context.Background(), profile.ID, 7, item, bytes.NewReader([]byte("mp3")), 10)
	}

	if _, err := svc.StartTraining(context.Background(), profile.ID, 7); err == nil {
		t.Fatal("expected an error when the vendor rejects the clone")
	}
	if repo.profiles[0].Status != "failed" {
		t.Errorf("expected failed, got %s", repo.profiles[0].Status)
	}
}

func TestAddSampleOwnerOnly(t *testing.T) {
	svc, _, _ := newVoiceFixture(&stubClone{})
	profile, _ := svc.CreateProfile(7, "My voice")

	_, err := svc.AddSample(context.Background(), profile.ID, 8, 1, bytes.NewReader([]byte("mp3")), 10)
	if !appErrors.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCheckTrainingCompletesProfiles(t *testing.T) {
	clone := &stubClone{state: "completed"}
	svc, repo, bus := newVoiceFixture(clone)

	repo.profiles = append(repo.profiles, &model.VoiceProfile{
		ID: 1, UserID: 7, Name: "My voice", Status: "training", ProviderVoiceID: "voice-abc",
	})

	if err := svc.CheckTraining(context.Background()); err != nil {
		t.Fatalf("CheckTraining failed: %v", err)
	}

	if repo.profiles[0].Status != "completed" {
		t.Errorf("expected completed, got %s", repo.profiles[0].Status)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.events))
	}
	if bus.events[0].Type != "training.completed" {
		t.Errorf("unexpected event type %s", bus.events[0].Type)
	}
}

func TestCheckTrainingFailedProfiles(t *testing.T) {
	svc, repo, bus := newVoiceFixture(&stubClone{state: "failed"})

	repo.profiles = append(repo.profiles, &model.VoiceProfile{
		ID: 1, UserID: 7, Name: "My voice", Status: "training", ProviderVoiceID: "voice-abc",
	})

	if err := svc.CheckTraining(context.Background()); err != nil {
		t.Fatalf("CheckTraining failed: %v", err)
	}

	if repo.profiles[0].Status != "failed" {
		t.Errorf("expected failed, got %s", repo.profiles[0].Status)
	}
	if len(bus.events) != 1 || bus.events[0].Type != "training.failed" {
		t.Errorf("expected training.failed event, got %+v", bus.events)
	}
}
