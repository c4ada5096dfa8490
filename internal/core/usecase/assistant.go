package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

const assistantUnavailableReply = "I apologize, but I'm having trouble connecting to my services. Please try again in a moment."

const maxChatMessages = 20

type AssistantUseCase struct {
	profiles   ProfileLoader
	documents  ports.DocumentRepository
	completion ports.CompletionClient
	agentID    string
	logger     *slog.Logger
}

func NewAssistantUseCase(
	profiles ProfileLoader,
	documents ports.DocumentRepository,
	completion ports.CompletionClient,
	agentID string,
	logger *slog.Logger,
) *AssistantUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantUseCase{
		profiles:   profiles,
		documents:  documents,
		completion: completion,
		agentID:    agentID,
		logger:     logger,
	}
}

// Chat answers the conversation with the user's profile as context. Failures
// of the completion service produce an apologetic reply, not an error.
func (uc *AssistantUseCase) Chat(ctx context.Context, userID string, messages []domain.ChatMessage, language string) (*domain.ChatReply, error) {
	history := sanitizeHistory(messages)
	if len(history) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "assistant chat", fmt.Errorf("at least one user message is required"))
	}

	profile, err := uc.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	records, err := uc.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := domain.VerifiedTypes(records)
	matches := ScoreEligibility(*profile, docs)

	req := domain.CompletionRequest{
		AgentID: uc.agentID,
		Messages: append([]domain.ChatMessage{{
			Role:    domain.RoleSystem,
			Content: "You are Nithya, an AI assistant specializing in Indian government schemes. " + BuildAssistantContext(*profile, docs, matches, language),
		}}, history...),
	}

	reply := &domain.ChatReply{EligibleSchemes: matches}
	text, err := uc.completion.Complete(ctx, req)
	if err != nil || strings.TrimSpace(text) == "" {
		if err == nil {
			err = fmt.Errorf("empty completion")
		}
		uc.logger.Warn("assistant completion failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		reply.Message = domain.ChatMessage{Role: domain.RoleAssistant, Content: assistantUnavailableReply}
		reply.Source = domain.SourceFallback
		return reply, nil
	}

	reply.Message = domain.ChatMessage{Role: domain.RoleAssistant, Content: text}
	reply.Source = domain.SourceAI
	return reply, nil
}

// BuildAssistantContext renders the profile context and response rules
// appended to the assistant's system prompt.
func BuildAssistantContext(profile domain.Profile, docs []domain.DocumentType, matches []domain.SchemeMatch, language string) string {
	if language == "" {
		language = "English"
	}
	location := profile.Location
	region := location
	if region == "" {
		location = "Unknown"
		region = "India"
	}
	income := "Not specified"
	if profile.AnnualIncome != nil {
		income = "₹" + FormatINR(*profile.AnnualIncome)
	}
	age := "Not specified"
	if profile.Age > 0 {
		age = fmt.Sprintf("%d", profile.Age)
	}
	category := string(profile.Category)
	if category == "" {
		category = "General"
	}
	docNames := "None"
	if len(docs) > 0 {
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = string(d)
		}
		docNames = strings.Join(names, ", ")
	}
	name := profile.Name
	if name == "" {
		name = "Guest"
	}

	var b strings.Builder
	b.WriteString("User Profile Context:\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Location: %s\n", location)
	fmt.Fprintf(&b, "- Age: %s\n", age)
	fmt.Fprintf(&b, "- Gender: %s\n", orNotSpecified(string(profile.Sex)))
	fmt.Fprintf(&b, "- Category: %s\n", category)
	fmt.Fprintf(&b, "- Annual Income: %s\n", income)
	fmt.Fprintf(&b, "- Residence: %s\n", orNotSpecified(string(profile.ResidenceType)))
	fmt.Fprintf(&b, "- Employment: %s\n", orNotSpecified(string(profile.EmploymentStatus)))
	fmt.Fprintf(&b, "- Documents Available: %s\n\n", docNames)

	b.WriteString("Potentially Eligible Schemes:\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s (Relevance: %d%%)\n", m.SchemeName, m.RelevancePercent())
	}

	b.WriteString("\nInstructions:\n")
	fmt.Fprintf(&b, "1. Respond in %s language\n", language)
	b.WriteString("2. Keep responses simple and clear\n")
	b.WriteString("3. Focus on schemes matching user's profile\n")
	b.WriteString("4. Provide specific application steps\n")
	b.WriteString("5. Include document requirements\n")
	fmt.Fprintf(&b, "6. Use local context from %s when possible\n", region)
	return b.String()
}

// sanitizeHistory drops system and empty messages and keeps the most recent
// part of the conversation.
func sanitizeHistory(messages []domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(messages))
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant:
			out = append(out, domain.ChatMessage{Role: m.Role, Content: content})
		}
	}
	if len(out) > maxChatMessages {
		out = out[len(out)-maxChatMessages:]
	}
	return out
}
