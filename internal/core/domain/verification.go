package domain

import "strings"

// VerificationVerdict is the wire form returned by the verification gateway.
type VerificationVerdict struct {
	IsValid         bool     `json:"isValid"`
	ConfidenceScore float64  `json:"confidenceScore"`
	DocumentType    string   `json:"documentType"`
	Errors          []string `json:"errors"`
}

// VerificationOutcome is either VerifiedOutcome or RejectedOutcome.
type VerificationOutcome interface {
	verificationOutcome()
}

type VerifiedOutcome struct {
	Score    float64
	Type     DocumentType
	Warnings []string
}

type RejectedOutcome struct {
	Score  float64
	Errors []string
}

func (VerifiedOutcome) verificationOutcome() {}
func (RejectedOutcome) verificationOutcome() {}

// Outcome converts the verdict into its tagged form. The declared type is
// used when the gateway does not echo one back.
func (v VerificationVerdict) Outcome(declared DocumentType) VerificationOutcome {
	score := clampScore(v.ConfidenceScore)
	errs := compactErrors(v.Errors)
	if !v.IsValid {
		if len(errs) == 0 {
			errs = []string{"document could not be verified"}
		}
		return RejectedOutcome{Score: score, Errors: errs}
	}

	docType := DocumentType(strings.TrimSpace(v.DocumentType))
	if !docType.Valid() {
		docType = declared
	}
	return VerifiedOutcome{Score: score, Type: docType, Warnings: errs}
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func compactErrors(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
