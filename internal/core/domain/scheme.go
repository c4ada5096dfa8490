package domain

import "time"

type SchemeLevel string

const (
	SchemeCentral SchemeLevel = "central"
	SchemeState   SchemeLevel = "state"
)

// Scheme is a catalog entry for a government welfare programme.
type Scheme struct {
	ID                int         `json:"id" yaml:"id"`
	Name              string      `json:"name" yaml:"name"`
	Description       string      `json:"description" yaml:"description"`
	Eligibility       string      `json:"eligibility" yaml:"eligibility"`
	Benefits          string      `json:"benefits" yaml:"benefits"`
	DocumentsRequired []string    `json:"documentsRequired" yaml:"documentsRequired"`
	ApplicationURL    string      `json:"applicationUrl" yaml:"applicationUrl"`
	Category          string      `json:"category" yaml:"category"`
	Level             SchemeLevel `json:"level" yaml:"level"`
}

// SchemeMatch is a derived, never persisted, eligibility hit.
type SchemeMatch struct {
	SchemeName     string  `json:"schemeName"`
	RelevanceScore float64 `json:"relevanceScore"`
	Reason         string  `json:"reason"`
}

// RelevancePercent is the score rounded to a whole percentage.
func (m SchemeMatch) RelevancePercent() int {
	return int(m.RelevanceScore*100 + 0.5)
}

type RecommendationSource string

const (
	SourceAI       RecommendationSource = "ai"
	SourceFallback RecommendationSource = "fallback"
)

type Recommendation struct {
	Text        string               `json:"recommendations"`
	Source      RecommendationSource `json:"source"`
	Matches     []SchemeMatch        `json:"matches"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// CompletionRequest is what the completion client sends to the AI service.
type CompletionRequest struct {
	AgentID  string
	Messages []ChatMessage
}

type ChatReply struct {
	Message         ChatMessage          `json:"message"`
	Source          RecommendationSource `json:"source"`
	EligibleSchemes []SchemeMatch        `json:"eligibleSchemes"`
}
