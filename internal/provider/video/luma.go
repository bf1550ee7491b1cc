// internal/provider/video/luma.go
package video

import (
	"context"
	"fmt"
	"net/http"
)

type LumaProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewLumaProvider(baseURL, apiKey string) *LumaProvider {
	if baseURL == "" {
		baseURL = "https://api.lumalabs.ai"
	}
	return &LumaProvider{baseURL: baseURL, apiKey: apiKey, client: &http.Client{}}
}

func (p *LumaProvider) Name() string { return "luma" }

func (p *LumaProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

func (p *LumaProvider) Submit(ctx context.Context, req Request) (string, error) {
	body := struct {
		Prompt      string `json:"prompt"`
		AspectRatio string `json:"aspect_ratio"`
	}{req.Prompt, req.AspectRatio}

	var resp struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}

	url := p.baseURL + "/dream-machine/v1/generations"
	if err := doJSON(ctx, p.client, http.MethodPost, url, p.headers(), body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("luma returned no generation id")
	}
	return resp.ID, nil
}

func (p *LumaProvider) Status(ctx context.Context, taskID string) (*Result, error) {
	var resp struct {
		State         string `json:"state"` // queued, dreaming, completed, failed
		FailureReason string `json:"failure_reason"`
		Assets        struct {
			Video string `json:"video"`
		} `json:"assets"`
	}

	url := p.baseURL + "/dream-machine/v1/generations/" + taskID
	if err := doJSON(ctx, p.client, http.MethodGet, url, p.headers(), nil, &resp); err != nil {
		return nil, err
	}

	switch resp.State {
	case "completed":
		return &Result{Status: StatusCompleted, VideoURL: resp.Assets.Video}, nil
	case "failed":
		return &Result{Status: StatusFailed, Err: resp.FailureReason}, nil
	default:
		return &Result{Status: StatusProcessing}, nil
	}
}

var _ Provider = (*LumaProvider)(nil)
