// internal/provider/voice/mock.go
package voice

import (
	"context"

	"github.com/google/uuid"
)

// MockProvider stands in when no ELEVENLABS_API_KEY is configured so the rest
// of the pipeline can run locally.
type MockProvider struct{}

func (MockProvider) Name() string { return "mock" }

func (MockProvider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	// tiny silent MP3 frame, enough for the pipeline to store something
	return []byte{0xFF, 0xFB, 0x90, 0x00}, nil
}

func (MockProvider) CreateClone(ctx context.Context, name string, samples []Sample) (string, error) {
	return "mock-" + uuid.NewString(), nil
}

func (MockProvider) CloneStatus(ctx context.Context, voiceID string) (string, error) {
	return "completed", nil
}

var _ TTSProvider = MockProvider{}
var _ CloneProvider = MockProvider{}
