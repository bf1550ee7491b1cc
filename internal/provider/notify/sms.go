// internal/provider/notify/sms.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPSMSSender posts to a generic SMS gateway. Subject is dropped; SMS has
// no subject line.
type HTTPSMSSender struct {
	GatewayURL string
	APIKey     string
	client     *http.Client
}

func NewHTTPSMSSender(gatewayURL, apiKey string) *HTTPSMSSender {
	return &HTTPSMSSender{GatewayURL: gatewayURL, APIKey: apiKey, client: &http.Client{}}
}

func (s *HTTPSMSSender) Channel() string { return "sms" }

func (s *HTTPSMSSender) Send(ctx context.Context, address, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"to":      address,
		"message": body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.GatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms gateway error: %s - %s", resp.Status, string(raw))
	}
	return nil
}

var _ Sender = (*HTTPSMSSender)(nil)
