package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

type RecommendationUseCase struct {
	profiles   ProfileLoader
	documents  ports.DocumentRepository
	completion ports.CompletionClient
	agentID    string
	logger     *slog.Logger
	now        func() time.Time
}

func NewRecommendationUseCase(
	profiles ProfileLoader,
	documents ports.DocumentRepository,
	completion ports.CompletionClient,
	agentID string,
	logger *slog.Logger,
) *RecommendationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationUseCase{
		profiles:   profiles,
		documents:  documents,
		completion: completion,
		agentID:    agentID,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RecommendForUser loads the caller's profile and verified documents and
// composes a recommendation. Only loading failures are returned as errors.
func (uc *RecommendationUseCase) RecommendForUser(ctx context.Context, userID string) (*domain.Recommendation, error) {
	profile, err := uc.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	records, err := uc.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := domain.VerifiedTypes(records)
	rec := uc.Recommend(ctx, *profile, docs, ScoreEligibility(*profile, docs))
	return &rec, nil
}

// Recommend asks the completion service for recommendations and falls back
// to locally generated text on any failure.
func (uc *RecommendationUseCase) Recommend(
	ctx context.Context,
	profile domain.Profile,
	docs []domain.DocumentType,
	matches []domain.SchemeMatch,
) domain.Recommendation {
	rec := domain.Recommendation{Matches: matches, GeneratedAt: uc.now()}

	text, err := uc.complete(ctx, BuildRecommendationPrompt(profile, docs, matches))
	if err != nil {
		uc.logger.Warn("recommendation completion failed, using fallback",
			slog.String("user_id", profile.ID),
			slog.String("error", err.Error()),
		)
		rec.Text = FallbackRecommendations(profile, matches)
		rec.Source = domain.SourceFallback
		return rec
	}

	rec.Text = formatRecommendations(text, profile)
	rec.Source = domain.SourceAI
	return rec
}

func (uc *RecommendationUseCase) complete(ctx context.Context, prompt string) (text string, err error) {
	if uc.completion == nil {
		return "", errors.New("completion client is not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion panicked: %v", r)
		}
	}()

	text, err = uc.completion.Complete(ctx, domain.CompletionRequest{
		AgentID:  uc.agentID,
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("completion returned empty content")
	}
	return text, nil
}

// BuildRecommendationPrompt assembles the completion prompt. The output is a
// pure function of its inputs.
func BuildRecommendationPrompt(profile domain.Profile, docs []domain.DocumentType, matches []domain.SchemeMatch) string {
	var b strings.Builder
	b.WriteString("As Digital Seva, analyze this Indian citizen's profile and provide detailed scheme recommendations:\n\n")
	b.WriteString("# User Profile\n")
	writeField(&b, "Name", profile.Name)
	if profile.Age > 0 {
		writeField(&b, "Age", strconv.Itoa(profile.Age)+" years")
	}
	writeField(&b, "Gender", string(profile.Sex))
	writeField(&b, "Marital Status", string(profile.MaritalStatus))
	writeField(&b, "State", profile.Location)
	writeField(&b, "Category", string(profile.Category))
	if profile.AnnualIncome != nil {
		writeField(&b, "Annual Income", "₹"+FormatINR(*profile.AnnualIncome))
	}
	writeField(&b, "Residence Type", string(profile.ResidenceType))
	if profile.FamilySize != nil {
		writeField(&b, "Family Size", strconv.Itoa(*profile.FamilySize)+" members")
	}
	if profile.IsDifferentlyAbled {
		pct := "unspecified"
		if profile.DisabilityPercentage != nil {
			pct = strconv.Itoa(*profile.DisabilityPercentage) + "%"
		}
		writeField(&b, "Differently Abled", "Yes ("+pct+")")
	}
	if profile.IsMinority {
		writeField(&b, "Minority", "Yes")
	}
	if profile.IsStudent {
		writeField(&b, "Education Status", "Student")
	}
	writeField(&b, "Employment", string(profile.EmploymentStatus))
	if profile.IsGovernmentEmployee {
		writeField(&b, "Government Employee", "Yes")
	}

	b.WriteString("\nAvailable Documents:\n")
	if len(docs) == 0 {
		b.WriteString("No documents specified\n")
	} else {
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = string(d)
		}
		b.WriteString(strings.Join(names, ", ") + "\n")
	}

	b.WriteString("\nPotentially Eligible Schemes:\n")
	if len(matches) == 0 {
		b.WriteString("None identified from the profile\n")
	}
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s (Relevance: %d%%): %s\n", m.SchemeName, m.RelevancePercent(), m.Reason)
	}

	state := profile.Location
	if state == "" {
		state = "State"
	}
	b.WriteString("\nProvide scheme recommendations in the following format:\n\n")
	b.WriteString("# Central Government Schemes\n[List eligible central schemes]\n\n")
	fmt.Fprintf(&b, "# %s Government Schemes\n[List eligible state schemes]\n\n", state)
	b.WriteString("# Special Category Schemes\n[List category-specific schemes]\n\n")
	b.WriteString("For each scheme, include:\n")
	b.WriteString("- Scheme Name\n- Eligibility Criteria\n- Benefits Provided\n- Required Documents\n- Application Process\n- Official Website/Link\n\n")
	b.WriteString("Use markdown formatting:\n")
	b.WriteString("- Use ## for scheme names\n- Use ### for sections within schemes\n- Use bullet points (•) for lists\n- Use > for important notes\n")
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

// FormatINR groups digits the Indian way: last three, then pairs
// (200000 -> "2,00,000").
func FormatINR(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return sign + strings.Join(groups, ",") + "," + tail
}

func formatRecommendations(aiText string, profile domain.Profile) string {
	var b strings.Builder
	b.WriteString("# Personalized Scheme Recommendations\n\n")
	b.WriteString("## Profile Summary\n")
	fmt.Fprintf(&b, "• Name: %s\n", orNotSpecified(profile.Name))
	fmt.Fprintf(&b, "• State: %s\n", orNotSpecified(profile.Location))
	fmt.Fprintf(&b, "• Category: %s\n\n", orNotSpecified(string(profile.Category)))
	b.WriteString(strings.TrimSpace(aiText))
	b.WriteString("\n\n> **Important Notes:**\n")
	b.WriteString("> • Please verify eligibility criteria at respective government portals\n")
	b.WriteString("> • Keep required documents ready before applying\n")
	b.WriteString("> • Contact local authorities for application assistance\n")
	return b.String()
}

func orNotSpecified(v string) string {
	if v == "" {
		return "Not specified"
	}
	return v
}

// FallbackRecommendations produces rule-based recommendation text without
// calling any external service.
func FallbackRecommendations(profile domain.Profile, matches []domain.SchemeMatch) string {
	var b strings.Builder
	b.WriteString("# General Scheme Recommendations\n\n")
	covered := map[string]bool{}

	if profile.IsStudent {
		b.WriteString("## Education Schemes\n\n")
		b.WriteString("### National Scholarship Portal\n")
		b.WriteString("• **Eligibility:** Students with family income below ₹8 lakh/year\n")
		b.WriteString("• **Benefits:** Financial assistance for education\n")
		b.WriteString("• **Documents Required:** Income certificate, academic records\n\n")
		covered[SchemeScholarships] = true
	}

	if profile.AnnualIncome != nil && *profile.AnnualIncome < 300000 {
		b.WriteString("## Income Support Schemes\n\n")
		b.WriteString("### PM-KISAN\n")
		b.WriteString("• **Benefits:** ₹6,000 per year in three installments\n")
		b.WriteString("• **Documents Required:** Land records, Aadhaar card\n\n")
		covered[SchemePMKisan] = true
	}

	if profile.IsDifferentlyAbled {
		b.WriteString("## Disability Support Schemes\n\n")
		b.WriteString("### ADIP Scheme\n")
		b.WriteString("• **Benefits:** Assistive devices and support\n")
		b.WriteString("• **Documents Required:** Disability certificate\n\n")
		covered[SchemeADIP] = true
	}

	for _, m := range matches {
		if covered[m.SchemeName] {
			continue
		}
		block, ok := fallbackBlocks[m.SchemeName]
		if !ok {
			continue
		}
		b.WriteString(block)
		covered[m.SchemeName] = true
	}

	b.WriteString("\n> Please visit your nearest Common Service Centre (CSC) for application assistance.")
	return b.String()
}

var fallbackBlocks = map[string]string{
	SchemePMKisan: "## Farmer Support Schemes\n\n" +
		"### PM-KISAN\n" +
		"• **Benefits:** ₹6,000 per year in three installments\n" +
		"• **Documents Required:** Land records, Aadhaar card, bank passbook\n\n",
	SchemeAyushman: "## Health Schemes\n\n" +
		"### Ayushman Bharat\n" +
		"• **Benefits:** Health cover up to ₹5 lakh per family per year\n" +
		"• **Documents Required:** Aadhaar card, ration card or income certificate\n\n",
	SchemePMAYRural: "## Housing Schemes\n\n" +
		"### PM Awas Yojana (Rural)\n" +
		"• **Benefits:** Financial assistance to build a pucca house\n" +
		"• **Documents Required:** Aadhaar card, BPL certificate, bank passbook\n\n",
	SchemeScholarships: "## Education Schemes\n\n" +
		"### National Scholarship Portal\n" +
		"• **Benefits:** Financial assistance for education\n" +
		"• **Documents Required:** Income certificate, academic records\n\n",
	SchemeADIP: "## Disability Support Schemes\n\n" +
		"### ADIP Scheme\n" +
		"• **Benefits:** Assistive devices and support\n" +
		"• **Documents Required:** Disability certificate\n\n",
}
