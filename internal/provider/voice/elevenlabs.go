// internal/provider/voice/elevenlabs.go
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

type ElevenLabsProvider struct {
	baseURL string
	apiKey  string
	modelID string
	client  *http.Client
}

func NewElevenLabsProvider(baseURL, apiKey string) *ElevenLabsProvider {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	return &ElevenLabsProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		modelID: "eleven_multilingual_v2",
		client:  &http.Client{},
	}
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to speech with the given voice and returns the
// MP3 bytes.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}

	reqBody := ttsRequest{
		Text:    text,
		ModelID: p.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/v1/text-to-speech/%s", p.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs API error: %s - %s", resp.Status, string(body))
	}

	return io.ReadAll(resp.Body)
}

// CreateClone uploads the recorded samples and returns the new voice ID.
func (p *ElevenLabsProvider) CreateClone(ctx context.Context, name string, samples []Sample) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", name); err != nil {
		return "", err
	}
	for _, s := range samples {
		fw, err := mw.CreateFormFile("files", s.Filename)
		if err != nil {
			return "", err
		}
		if _, err := fw.Write(s.Data); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/voices/add", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("elevenlabs API error: %s - %s", resp.Status, string(body))
	}

	var out struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.VoiceID == "" {
		return "", fmt.Errorf("elevenlabs returned no voice id")
	}
	return out.VoiceID, nil
}

// CloneStatus maps the vendor fine-tuning state onto training/completed/failed.
func (p *ElevenLabsProvider) CloneStatus(ctx context.Context, voiceID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/voices/"+voiceID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("elevenlabs API error: %s - %s", resp.Status, string(body))
	}

	var out struct {
		FineTuning struct {
			State string `json:"finetuning_state"` // not_started, queued, fine_tuning, fine_tuned, failed
		} `json:"fine_tuning"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	switch out.FineTuning.State {
	case "fine_tuned", "not_started":
		// instant clones skip fine-tuning entirely
		return "completed", nil
	case "failed":
		return "failed", nil
	default:
		return "training", nil
	}
}

var _ TTSProvider = (*ElevenLabsProvider)(nil)
var _ CloneProvider = (*ElevenLabsProvider)(nil)
