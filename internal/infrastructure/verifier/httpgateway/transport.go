package httpgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

func (c *Client) postForm(ctx context.Context, path string, body []byte, contentType string, out *domain.VerificationVerdict) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token := domain.BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPStatusError("verify", resp)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read verify response: %w", err)
	}
	if err := decodeVerdict(raw, out); err != nil {
		return err
	}
	return nil
}

// decodeVerdict requires isValid to be present; everything else defaults.
func decodeVerdict(raw []byte, out *domain.VerificationVerdict) error {
	var probe struct {
		IsValid *bool `json:"isValid"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return &MalformedResponseError{Reason: err.Error()}
	}
	if probe.IsValid == nil {
		return &MalformedResponseError{Reason: "missing isValid"}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &MalformedResponseError{Reason: err.Error()}
	}
	if out.ConfidenceScore < 0 || out.ConfidenceScore > 1 {
		return &MalformedResponseError{Reason: fmt.Sprintf("confidenceScore %v out of range", out.ConfidenceScore)}
	}
	return nil
}

func newHTTPStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
