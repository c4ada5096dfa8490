package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

const (
	SchemePMKisan      = "PM-KISAN"
	SchemeAyushman     = "Ayushman Bharat"
	SchemePMAYRural    = "PM Awas Yojana (Rural)"
	SchemeScholarships = "National Scholarship Portal Schemes"
	SchemeADIP         = "ADIP Scheme"
)

// ScoreEligibility ranks the schemes a profile qualifies for. Rules are
// independent; the result is ordered by descending score and ties keep rule
// order. Absent numeric fields never satisfy a threshold.
func ScoreEligibility(profile domain.Profile, _ []domain.DocumentType) []domain.SchemeMatch {
	matches := make([]domain.SchemeMatch, 0, 5)

	if strings.Contains(strings.ToLower(string(profile.EmploymentStatus)), "farmer") {
		matches = append(matches, domain.SchemeMatch{
			SchemeName:     SchemePMKisan,
			RelevanceScore: 1.0,
			Reason:         "Eligible as a farmer for direct income support",
		})
	}

	if income := profile.AnnualIncome; income != nil && *income < 500000 {
		score := 0.7
		if *income < 250000 {
			score = 1.0
		}
		matches = append(matches, domain.SchemeMatch{
			SchemeName:     SchemeAyushman,
			RelevanceScore: score,
			Reason:         "Eligible based on annual income for health insurance coverage",
		})
	}

	if profile.ResidenceType == domain.ResidenceRural && profile.AnnualIncome != nil && *profile.AnnualIncome < 300000 {
		matches = append(matches, domain.SchemeMatch{
			SchemeName:     SchemePMAYRural,
			RelevanceScore: 1.0,
			Reason:         "Eligible for rural housing assistance based on residence and income",
		})
	}

	if profile.IsStudent {
		matches = append(matches, domain.SchemeMatch{
			SchemeName:     SchemeScholarships,
			RelevanceScore: 1.0,
			Reason:         "Eligible for educational scholarships as a student",
		})
	}

	if profile.IsDifferentlyAbled {
		score := 0.8
		if pct := profile.DisabilityPercentage; pct != nil && *pct > 40 {
			score = 1.0
		}
		matches = append(matches, domain.SchemeMatch{
			SchemeName:     SchemeADIP,
			RelevanceScore: score,
			Reason:         "Eligible for assistive devices and support based on disability status",
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})
	return matches
}

type EligibilityUseCase struct {
	profiles  ProfileLoader
	documents ports.DocumentRepository
}

// ProfileLoader reads a user's profile, typically through a cache.
type ProfileLoader interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

func NewEligibilityUseCase(profiles ProfileLoader, documents ports.DocumentRepository) *EligibilityUseCase {
	return &EligibilityUseCase{profiles: profiles, documents: documents}
}

func (uc *EligibilityUseCase) Evaluate(ctx context.Context, userID string) ([]domain.SchemeMatch, error) {
	profile, docTypes, err := uc.loadSubject(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ScoreEligibility(*profile, docTypes), nil
}

func (uc *EligibilityUseCase) loadSubject(ctx context.Context, userID string) (*domain.Profile, []domain.DocumentType, error) {
	profile, err := uc.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	records, err := uc.documents.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list documents: %w", err)
	}
	return profile, domain.VerifiedTypes(records), nil
}
