package codegpt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
	"github.com/kirillkom/digital-seva/internal/infrastructure/resilience"
)

const DefaultURL = "https://api.codegpt.co/api/v1/chat/completions"

// Client calls a CodeGPT-compatible chat completion endpoint.
type Client struct {
	url        string
	apiKey     string
	orgID      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	APIKey             string
	OrgID              string
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

func New(url string, options Options) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		url:        url,
		apiKey:     options.APIKey,
		orgID:      options.OrgID,
		httpClient: httpClient,
		executor:   options.ResilienceExecutor,
	}
}

var _ ports.CompletionClient = (*Client)(nil)

type completionRequest struct {
	AgentID  string        `json:"agentId,omitempty"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var errNoChoices = errors.New("codegpt response has no choices")

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", errors.New("completion request has no messages")
	}
	payload := completionRequest{
		AgentID:  req.AgentID,
		Messages: make([]chatMessage, 0, len(req.Messages)),
		Stream:   false,
		Format:   "json",
	}
	for _, m := range req.Messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	var content string
	call := func(callCtx context.Context) error {
		var resp completionResponse
		if err := c.postJSON(callCtx, payload, &resp); err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errNoChoices
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "codegpt.complete", call, classifyCodeGPTError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("codegpt complete", err)
	}
	return content, nil
}
