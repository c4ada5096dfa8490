package domain

import (
	"io"
	"strings"
	"time"
)

type DocumentType string

const (
	DocAadharCard              DocumentType = "Aadhar Card"
	DocPANCard                 DocumentType = "PAN Card"
	DocCasteCertificate        DocumentType = "Caste Certificate"
	DocRationCard              DocumentType = "Ration Card"
	DocVoterID                 DocumentType = "Voter ID"
	DocDrivingLicense          DocumentType = "Driving License"
	DocIncomeCertificate       DocumentType = "Income Certificate"
	DocDisabilityCertificate   DocumentType = "Disability Certificate"
	DocBPLCertificate          DocumentType = "BPL Certificate"
	DocDomicileCertificate     DocumentType = "Domicile Certificate"
	DocBirthCertificate        DocumentType = "Birth Certificate"
	DocMarriageCertificate     DocumentType = "Marriage Certificate"
	DocBankPassbook            DocumentType = "Bank Passbook"
	DocEmploymentCertificate   DocumentType = "Employment Certificate"
	DocEducationalCertificates DocumentType = "Educational Certificates"
	DocPropertyDocuments       DocumentType = "Property Documents"
)

var documentTypes = []DocumentType{
	DocAadharCard,
	DocPANCard,
	DocCasteCertificate,
	DocRationCard,
	DocVoterID,
	DocDrivingLicense,
	DocIncomeCertificate,
	DocDisabilityCertificate,
	DocBPLCertificate,
	DocDomicileCertificate,
	DocBirthCertificate,
	DocMarriageCertificate,
	DocBankPassbook,
	DocEmploymentCertificate,
	DocEducationalCertificates,
	DocPropertyDocuments,
}

// DocumentTypes returns the accepted document catalog in display order.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(documentTypes))
	copy(out, documentTypes)
	return out
}

func (t DocumentType) Valid() bool {
	for _, known := range documentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Slug is the storage-safe form of the type name, e.g. "aadhar-card".
func (t DocumentType) Slug() string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(string(t)), " ", "-"))
}

type VerificationDetails struct {
	ConfidenceScore float64  `json:"confidenceScore"`
	Errors          []string `json:"errors"`
}

// DocumentRecord is the persisted outcome of one verified upload. There is at
// most one record per (UserID, Type).
type DocumentRecord struct {
	ID           string              `json:"id"`
	UserID       string              `json:"userId"`
	Type         DocumentType        `json:"documentType"`
	FilePath     string              `json:"filePath"`
	UploadedAt   time.Time           `json:"uploadedAt"`
	IsVerified   bool                `json:"isVerified"`
	Verification VerificationDetails `json:"verificationDetails"`
}

// VerifiedTypes returns the types of verified records, preserving input order.
func VerifiedTypes(records []DocumentRecord) []DocumentType {
	out := make([]DocumentType, 0, len(records))
	for _, rec := range records {
		if rec.IsVerified {
			out = append(out, rec.Type)
		}
	}
	return out
}

// IntakeRequest is one uploaded file with its declared type.
type IntakeRequest struct {
	UserID       string
	DocumentType DocumentType
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

type IntakeStatus string

const (
	IntakeVerified IntakeStatus = "verified"
	IntakeFailed   IntakeStatus = "failed"
)

type IntakeResult struct {
	Status       IntakeStatus    `json:"status"`
	DocumentType DocumentType    `json:"documentType"`
	Message      string          `json:"message,omitempty"`
	Errors       []string        `json:"errors"`
	Document     *DocumentRecord `json:"document,omitempty"`
}

// DocumentSupersededEvent announces that a stored file was replaced by a
// newer upload of the same type and can be removed.
type DocumentSupersededEvent struct {
	UserID       string       `json:"userId"`
	DocumentType DocumentType `json:"documentType"`
	FilePath     string       `json:"filePath"`
	SupersededAt time.Time    `json:"supersededAt"`
}
