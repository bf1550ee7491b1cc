// internal/provider/video/kling.go
package video

import (
	"context"
	"fmt"
	"net/http"
)

type KlingProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewKlingProvider(baseURL, apiKey string) *KlingProvider {
	if baseURL == "" {
		baseURL = "https://api.klingai.com"
	}
	return &KlingProvider{baseURL: baseURL, apiKey: apiKey, client: &http.Client{}}
}

func (p *KlingProvider) Name() string { return "kling" }

func (p *KlingProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

func (p *KlingProvider) Submit(ctx context.Context, req Request) (string, error) {
	body := struct {
		Prompt      string `json:"prompt"`
		Duration    int    `json:"duration"`
		AspectRatio string `json:"aspect_ratio"`
	}{req.Prompt, req.DurationSecs, req.AspectRatio}

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}

	url := p.baseURL + "/v1/videos/text2video"
	if err := doJSON(ctx, p.client, http.MethodPost, url, p.headers(), body, &resp); err != nil {
		return "", err
	}
	if resp.Code != 0 {
		return "", fmt.Errorf("kling rejected task: %s", resp.Message)
	}
	if resp.Data.TaskID == "" {
		return "", fmt.Errorf("kling returned no task id")
	}
	return resp.Data.TaskID, nil
}

func (p *KlingProvider) Status(ctx context.Context, taskID string) (*Result, error) {
	var resp struct {
		Data struct {
			TaskStatus    string `json:"task_status"` // submitted, processing, succeed, failed
			TaskStatusMsg string `json:"task_status_msg"`
			TaskResult    struct {
				Videos []struct {
					URL string `json:"url"`
				} `json:"videos"`
			} `json:"task_result"`
		} `json:"data"`
	}

	url := p.baseURL + "/v1/videos/text2video/" + taskID
	if err := doJSON(ctx, p.client, http.MethodGet, url, p.headers(), nil, &resp); err != nil {
		return nil, err
	}

	switch resp.Data.TaskStatus {
	case "succeed":
		r := &Result{Status: StatusCompleted}
		if len(resp.Data.TaskResult.Videos) > 0 {
			r.VideoURL = resp.Data.TaskResult.Videos[0].URL
		}
		return r, nil
	case "failed":
		return &Result{Status: StatusFailed, Err: resp.Data.TaskStatusMsg}, nil
	default:
		return &Result{Status: StatusProcessing}, nil
	}
}

var _ Provider = (*KlingProvider)(nil)
