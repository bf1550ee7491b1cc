// internal/provider/video/runway.go
package video

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type RunwayProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewRunwayProvider(baseURL, apiKey string) *RunwayProvider {
	if baseURL == "" {
		baseURL = "https://api.dev.runwayml.com"
	}
	return &RunwayProvider{baseURL: baseURL, apiKey: apiKey, model: "gen3a_turbo", client: &http.Client{}}
}

func (p *RunwayProvider) Name() string { return "runwayml" }

func (p *RunwayProvider) headers() map[string]string {
	return map[string]string{
		"Authorization":      "Bearer " + p.apiKey,
		"X-Runway-Version":   "2024-11-06",
	}
}

func (p *RunwayProvider) Submit(ctx context.Context, req Request) (string, error) {
	body := struct {
		PromptText string `json:"promptText"`
		Model      string `json:"model"`
		Duration   int    `json:"duration"`
		Ratio      string `json:"ratio"`
	}{req.Prompt, p.model, req.DurationSecs, runwayRatio(req.AspectRatio)}

	var resp struct {
		ID string `json:"id"`
	}

	url := p.baseURL + "/v1/text_to_video"
	if err := doJSON(ctx, p.client, http.MethodPost, url, p.headers(), body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("runway returned no task id")
	}
	return resp.ID, nil
}

func (p *RunwayProvider) Status(ctx context.Context, taskID string) (*Result, error) {
	var resp struct {
		Status        string   `json:"status"` // PENDING, RUNNING, SUCCEEDED, FAILED
		Output        []string `json:"output"`
		FailureReason string   `json:"failure"`
	}

	url := p.baseURL + "/v1/tasks/" + taskID
	if err := doJSON(ctx, p.client, http.MethodGet, url, p.headers(), nil, &resp); err != nil {
		return nil, err
	}

	switch strings.ToUpper(resp.Status) {
	case "SUCCEEDED":
		r := &Result{Status: StatusCompleted}
		if len(resp.Output) > 0 {
			r.VideoURL = resp.Output[0]
		}
		return r, nil
	case "FAILED":
		return &Result{Status: StatusFailed, Err: resp.FailureReason}, nil
	default:
		return &Result{Status: StatusProcessing}, nil
	}
}

// runwayRatio maps "16:9"-style ratios to runway's pixel-dimension strings.
func runwayRatio(aspect string) string {
	switch aspect {
	case "9:16":
		return "768:1280"
	default:
		return "1280:768"
	}
}

var _ Provider = (*RunwayProvider)(nil)
