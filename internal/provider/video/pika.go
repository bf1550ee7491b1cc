// internal/provider/video/pika.go
package video

import (
	"context"
	"fmt"
	"net/http"
)

type PikaProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewPikaProvider(baseURL, apiKey string) *PikaProvider {
	if baseURL == "" {
		baseURL = "https://api.pika.art"
	}
	return &PikaProvider{baseURL: baseURL, apiKey: apiKey, client: &http.Client{}}
}

func (p *PikaProvider) Name() string { return "pika" }

func (p *PikaProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

func (p *PikaProvider) Submit(ctx context.Context, req Request) (string, error) {
	body := struct {
		PromptText string `json:"promptText"`
		Options    struct {
			AspectRatio string `json:"aspectRatio"`
			Duration    int    `json:"duration"`
		} `json:"options"`
	}{}
	body.PromptText = req.Prompt
	body.Options.AspectRatio = req.AspectRatio
	body.Options.Duration = req.DurationSecs

	var resp struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
	}

	url := p.baseURL + "/generate"
	if err := doJSON(ctx, p.client, http.MethodPost, url, p.headers(), body, &resp); err != nil {
		return "", err
	}
	if resp.Job.ID == "" {
		return "", fmt.Errorf("pika returned no job id")
	}
	return resp.Job.ID, nil
}

func (p *PikaProvider) Status(ctx context.Context, taskID string) (*Result, error) {
	var resp struct {
		Job struct {
			Status string `json:"status"` // queued, working, finished, failed
			Error  string `json:"error"`
		} `json:"job"`
		Videos []struct {
			ResultURL string `json:"resultUrl"`
		} `json:"videos"`
	}

	url := p.baseURL + "/jobs/" + taskID
	if err := doJSON(ctx, p.client, http.MethodGet, url, p.headers(), nil, &resp); err != nil {
		return nil, err
	}

	switch resp.Job.Status {
	case "finished":
		r := &Result{Status: StatusCompleted}
		if len(resp.Videos) > 0 {
			r.VideoURL = resp.Videos[0].ResultURL
		}
		return r, nil
	case "failed":
		return &Result{Status: StatusFailed, Err: resp.Job.Error}, nil
	default:
		return &Result{Status: StatusProcessing}, nil
	}
}

var _ Provider = (*PikaProvider)(nil)
