// internal/provider/voice/provider.go
package voice

import "context"

// DefaultVoiceID is the stock narrator used when a story has no completed
// cloned voice profile (ElevenLabs "Rachel").
const DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

type Sample struct {
	Filename string
	Data     []byte
}

// TTSProvider renders narration audio for a voice.
type TTSProvider interface {
	Name() string
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// CloneProvider manages cloned voices built from user samples.
type CloneProvider interface {
	CreateClone(ctx context.Context, name string, samples []Sample) (string, error)
	// CloneStatus reports "training", "completed" or "failed".
	CloneStatus(ctx context.Context, voiceID string) (string, error)
}
