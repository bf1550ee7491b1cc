package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
	"github.com/dineshachuthan/storyteller-backend/internal/service"
)

// --- Mocks ---

type MockNarrationRepo struct {
	narrations []*model.Narration
}

func (m *MockNarrationRepo) Create(n *model.Narration) error {
	n.ID = len(m.narrations) + 1
	m.narrations = append(m.narrations, n)
	return nil
}

func (m *MockNarrationRepo) GetByID(id int) (*model.Narration, error) {
	for _, n := range m.narrations {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("narration %d not found", id)
}

func (m *MockNarrationRepo) GetCompletedByHash(hash string) (*model.Narration, error) {
	for _, n := range m.narrations {
		if n.ContentHash == hash && n.Status == "completed" {
			return n, nil
		}
	}
	return nil, nil
}

func (m *MockNarrationRepo) ListByStory(storyID int) ([]model.Narration, error) {
	var out []model.Narration
	for _, n := range m.narrations {
		if n.StoryID == storyID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *MockNarrationRepo) MarkProcessing(id int) error {
	n, _ := m.GetByID(id)
	n.Status = "processing"
	return nil
}

func (m *MockNarrationRepo) MarkCompleted(id int, objectKey string, durationSecs float64) error {
	n, _ := m.GetByID(id)
	n.Status = "completed"
	n.ObjectKey = objectKey
	n.DurationSecs = durationSecs
	return nil
}

func (m *MockNarrationRepo) MarkFailed(id int, lastError string) error {
	n, _ := m.GetByID(id)
	n.Status = "failed"
	n.LastError = lastError
	return nil
}

type MockVoiceRepo struct {
	profiles []*model.VoiceProfile
	samples  []*model.VoiceSample
	items    []model.ESMItem
}

func (m *MockVoiceRepo) CreateProfile(p *model.VoiceProfile) error {
	p.ID = len(m.profiles) + 1
	m.profiles = append(m.profiles, p)
	return nil
}

func (m *MockVoiceRepo) GetProfile(id int) (*model.VoiceProfile, error) {
	for _, p := range m.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("voice profile %d not found", id)
}

func (m *MockVoiceRepo) ListProfilesByUser(userID int) ([]model.VoiceProfile, error) {
	var out []model.VoiceProfile
	for _, p := range m.profiles {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MockVoiceRepo) UpdateProfileStatus(id int, status, providerVoiceID, lastError string) error {
	p, err := m.GetProfile(id)
	if err != nil {
		return err
	}
	p.Status = status
	if providerVoiceID != "" {
		p.ProviderVoiceID = providerVoiceID
	}
	p.LastError = lastError
	return nil
}

func (m *MockVoiceRepo) ListTrainingProfiles() ([]model.VoiceProfile, error) {
	var out []model.VoiceProfile
	for _, p := range m.profiles {
		if p.Status == "training" {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MockVoiceRepo) CreateSample(s *model.VoiceSample) error {
	s.ID = len(m.samples) + 1
	m.samples = append(m.samples, s)
	for _, p := range m.profiles {
		if p.ID == s.VoiceProfileID {
			p.SampleCount++
		}
	}
	return nil
}

func (m *MockVoiceRepo) ListSamples(profileID int) ([]model.VoiceSample, error) {
	var out []model.VoiceSample
	for _, s := range m.samples {
		if s.VoiceProfileID == profileID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MockVoiceRepo) ListESMItems() ([]model.ESMItem, error) { return m.items, nil }
func (m *MockVoiceRepo) GetESMItem(id int) (*model.ESMItem, error) {
	for _, item := range m.items {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, fmt.Errorf("esm item %d not found", id)
}

// stubTTS returns fixed audio bytes, or an error when fail is set.
type stubTTS struct {
	calls int
	fail  bool
}

func (s *stubTTS) Name() string { return "stub" }

func (s *stubTTS) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("vendor unavailable")
	}
	return []byte("audio-bytes"), nil
}

// memStore keeps objects in a map.
type memStore struct {
	objects map[string][]byte
}

func (s *memStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

// memCache is a map-backed narration cache.
type memCache struct {
	entries map[string]string
}

func (c *memCache) Get(ctx context.Context, hash string) (string, error) {
	return c.entries[hash], nil
}

func (c *memCache) Set(ctx context.Context, hash, objectKey string) error {
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	c.entries[hash] = objectKey
	return nil
}

// --- Tests ---

func TestContentHashIsStable(t *testing.T) {
	a := service.ContentHash("once upon a time", "voice-1", "stub")
	b := service.ContentHash("once upon a time", "voice-1", "stub")
	if a != b {
		t.Error("same inputs must hash identically")
	}

	if a == service.ContentHash("once upon a time", "voice-2", "stub") {
		t.Error("different voice must change the hash")
	}
	if a == service.ContentHash("once upon a time.", "voice-1", "stub") {
		t.Error("different content must change the hash")
	}
	if a == service.ContentHash("once upon a time", "voice-1", "other") {
		t.Error("different engine must change the hash")
	}
}

func newNarrationFixture() (*service.NarrationService, *MockNarrationRepo, *memCache, *MockQueue) {
	repo := &MockNarrationRepo{}
	cache := &memCache{}
	q := &MockQueue{}
	svc := &service.NarrationService{
		NarrationRepo: repo,
		StoryRepo:     &MockStoryRepoForVideo{},
		VoiceRepo:     &MockVoiceRepo{},
		TTS:           &stubTTS{},
		Store:         &memStore{},
		Cache:         cache,
		Queue:         q,
	}
	return svc, repo, cache, q
}

func TestRequestNarrationQueuesFreshWork(t *testing.T) {
	svc, repo, _, q := newNarrationFixture()

	n, err := svc.RequestNarration(context.Background(), 1, 7, nil)
	if err != nil {
		t.Fatalf("RequestNarration failed: %v", err)
	}

	if n.Status != "pending" {
		t.Errorf("expected pending, got %s", n.Status)
	}
	if n.ContentHash == "" {
		t.Error("expected content hash to be set")
	}
	if len(repo.narrations) != 1 {
		t.Fatalf("expected 1 row, got %d", len(repo.narrations))
	}

	jobs := q.published["narration_jobs"]
	if len(jobs) != 1 || jobs[0].(int) != n.ID {
		t.Errorf("expected narration %d queued, got %v", n.ID, jobs)
	}
}

func TestRequestNarrationReusesCompletedRow(t *testing.T) {
	svc, repo, _, q := newNarrationFixture()

	first, err := svc.RequestNarration(context.Background(), 1, 7, nil)
	if err != nil {
		t.Fatalf("RequestNarration failed: %v", err)
	}
	repo.narrations[0].Status = "completed"
	repo.narrations[0].ObjectKey = "narrations/1.mp3"

	second, err := svc.RequestNarration(context.Background(), 1, 7, nil)
	if err != nil {
		t.Fatalf("second RequestNarration failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected the completed row reused, got new id %d", second.ID)
	}
	if !second.CacheHit {
		t.Error("expected cache_hit on the reused row")
	}
	if len(q.published["narration_jobs"]) != 1 {
		t.Errorf("no new job should be queued on reuse, got %d", len(q.published["narration_jobs"]))
	}
}

func TestRequestNarrationRedisHitCreatesCompletedRow(t *testing.T) {
	svc, repo, cache, q := newNarrationFixture()

	hash := service.ContentHash("Once upon a time, a keeper lived alone.", "21m00Tcm4TlvDq8ikWAM", "stub")
	cache.Set(context.Background(), hash, "narrations/99.mp3")

	n, err := svc.RequestNarration(context.Background(), 1, 7, nil)
	if err != nil {
		t.Fatalf("RequestNarration failed: %v", err)
	}

	if n.Status != "completed" || !n.CacheHit {
		t.Errorf("expected completed cache-hit row, got status=%s cache_hit=%v", n.Status, n.CacheHit)
	}
	if n.ObjectKey != "narrations/99.mp3" {
		t.Errorf("expected cached object key, got %s", n.ObjectKey)
	}
	if len(repo.narrations) != 1 {
		t.Errorf("expected 1 row, got %d", len(repo.narrations))
	}
	if len(q.published["narration_jobs"]) != 0 {
		t.Error("no job should be queued on a cache hit")
	}
}

func TestProcessNarrationStoresAudioAndWarmsCache(t *testing.T) {
	svc, repo, cache, _ := newNarrationFixture()

	n, err := svc.RequestNarration(context.Background(), 1, 7, nil)
	if err != nil {
		t.Fatalf("RequestNarration failed: %v", err)
	}

	if err := svc.ProcessNarration(context.Background(), n.ID); err != nil {
		t.Fatalf("ProcessNarration failed: %v", err)
	}

	row := repo.narrations[0]
	if row.Status != "completed" {
		t.Fatalf("expected completed, got %s", row.Status)
	}
	if row.ObjectKey == "" {
		t.Error("expected object key recorded")
	}
	if row.DurationSecs <= 0 {
		t.Error("expected an estimated duration")
	}

	key, _ := cache.Get(context.Background(), row.ContentHash)
	if key != row.ObjectKey {
		t.Errorf("expected cache warmed with %s, got %s", row.ObjectKey, key)
	}
}

func TestRequestNarrationCollaboratorRoles(t *testing.T) {
	svc, _, _, _ := newNarrationFixture()
	svc.CollabRepo = &MockCollabRepo{collabs: []*model.Collaborator{
		{ID: 1, StoryID: 1, UserID: 8, Role: model.RoleNarrator, Status: "accepted"},
		{ID: 2, StoryID: 1, UserID: 9, Role: model.RoleViewer, Status: "accepted"},
	}}

	if _, err := svc.RequestNarration(context.Background(), 1, 8, nil); err != nil {
		t.Errorf("accepted narrator should be allowed: %v", err)
	}
	if _, err := svc.RequestNarration(context.Background(), 1, 9, nil); !appErrors.IsForbidden(err) {
		t.Errorf("viewer should be forbidden, got %v", err)
	}
	if _, err := svc.RequestNarration(context.Background(), 1, 10, nil); !appErrors.IsForbidden(err) {
		t.Errorf("stranger should be forbidden, got %v", err)
	}
}

func TestProcessNarrationFallsBackToStockEngine(t *testing.T) {
	svc, repo, _, _ := newNarrationFixture()
	primary := &stubTTS{fail: true}
	fallback := &stubTTS{}
	svc.TTS = primary
	svc.FallbackTTS = fallback

	n, err := svc.RequestNarration(context.Background(), 1, 7, nil)
	if err != nil {
		t.Fatalf("RequestNarration failed: %v", err)
	}
	if err := svc.ProcessNarration(context.Background(), n.ID); err != nil {
		t.Fatalf("ProcessNarration failed: %v", err)
	}

	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("expected one call each, got primary=%d fallback=%d", primary.calls, fallback.calls)
	}
	if repo.narrations[0].Status != "completed" {
		t.Errorf("expected completed via fallback, got %s", repo.narrations[0].Status)
	}
}

func TestRequestNarrationRejectsUntrainedProfile(t *testing.T) {
	svc, _, _, _ := newNarrationFixture()
	voiceRepo := svc.VoiceRepo.(*MockVoiceRepo)
	voiceRepo.profiles = append(voiceRepo.profiles, &model.VoiceProfile{ID: 1, UserID: 7, Status: "training"})

	profileID := 1
	if _, err := svc.RequestNarration(context.Background(), 1, 7, &profileID); err == nil {
		t.Fatal("expected an error for a profile still in training")
	}
}
