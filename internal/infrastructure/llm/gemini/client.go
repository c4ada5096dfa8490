package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
	"github.com/kirillkom/digital-seva/internal/infrastructure/resilience"
)

const DefaultModel = "gemini-1.5-flash"

// Client is a completion client backed by the Gemini API. Agent ids are a
// CodeGPT concept and are ignored here.
type Client struct {
	client   *genai.Client
	model    string
	executor *resilience.Executor
}

type Options struct {
	Model              string
	ResilienceExecutor *resilience.Executor
}

func New(ctx context.Context, apiKey string, options Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := options.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model, executor: options.ResilienceExecutor}, nil
}

var _ ports.CompletionClient = (*Client)(nil)

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	system, history, last, err := splitConversation(req.Messages)
	if err != nil {
		return "", err
	}

	var text string
	call := func(callCtx context.Context) error {
		model := c.client.GenerativeModel(c.model)
		if system != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}
		session := model.StartChat()
		session.History = history

		resp, err := session.SendMessage(callCtx, genai.Text(last))
		if err != nil {
			return fmt.Errorf("gemini send message: %w", err)
		}
		out, err := responseText(resp)
		if err != nil {
			return err
		}
		text = out
		return nil
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "gemini.complete", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("gemini complete", err)
	}
	return text, nil
}

// splitConversation maps chat messages onto Gemini's model: system messages
// become the system instruction, the last user message is sent, the rest is
// history.
func splitConversation(messages []domain.ChatMessage) (string, []*genai.Content, string, error) {
	var systemParts []string
	var turns []domain.ChatMessage
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			systemParts = append(systemParts, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != domain.RoleUser {
		return "", nil, "", errors.New("gemini conversation must end with a user message")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return strings.Join(systemParts, "\n\n"), history, turns[len(turns)-1].Content, nil
}

var errEmptyResponse = errors.New("gemini returned no content")

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errEmptyResponse
	}
	return b.String(), nil
}
