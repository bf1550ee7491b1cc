// internal/provider/video/provider.go
package video

import "context"

// Internal task states the vendor statuses map onto.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Request struct {
	Prompt       string
	DurationSecs int
	AspectRatio  string
}

// Result is the shared shape every vendor response is mapped to.
type Result struct {
	Status   string
	VideoURL string
	Err      string
}

// Provider is one third-party video generator. Submit returns the vendor's
// task ID; Status polls it.
type Provider interface {
	Name() string
	Submit(ctx context.Context, req Request) (string, error)
	Status(ctx context.Context, taskID string) (*Result, error)
}
