package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

const samplePDF = "%PDF-1.4\nsample"

func newIntakeForTest(gateway *gatewayFake) (*DocumentIntakeUseCase, *documentRepoFake, *storageFake) {
	repo := newDocumentRepoFake()
	storage := newStorageFake()
	uc := NewDocumentIntakeUseCase(repo, storage, gateway, inspectorFake{}, IntakeOptions{MaxUploadBytes: 1024})
	return uc, repo, storage
}

func intakeRequest(userID string, t domain.DocumentType, body string) domain.IntakeRequest {
	return domain.IntakeRequest{
		UserID:       userID,
		DocumentType: t,
		Filename:     "scan.pdf",
		ContentType:  "application/pdf",
		Size:         int64(len(body)),
		Body:         strings.NewReader(body),
	}
}

func TestIntakeRejectedVerdictPersistsNothing(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{
		IsValid:         false,
		ConfidenceScore: 0.3,
		Errors:          []string{"Name mismatch", "Blurry image"},
	}}
	uc, repo, storage := newIntakeForTest(gateway)

	res, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocPANCard, samplePDF))
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	if res.Status != domain.IntakeFailed {
		t.Fatalf("expected failed status, got %s", res.Status)
	}
	if res.Message != "Name mismatch" {
		t.Fatalf("expected first error as message, got %q", res.Message)
	}
	if repo.upserts != 0 || storage.count() != 0 {
		t.Fatalf("expected nothing persisted, upserts=%d files=%d", repo.upserts, storage.count())
	}
}

func TestIntakeGatewayErrorDegradesToFailedResult(t *testing.T) {
	gateway := &gatewayFake{err: errors.New("dial tcp: connection refused")}
	uc, repo, storage := newIntakeForTest(gateway)

	res, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocAadharCard, samplePDF))
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	if res.Status != domain.IntakeFailed || len(res.Errors) != 1 {
		t.Fatalf("expected failed status with one error, got %+v", res)
	}
	if repo.upserts != 0 || storage.count() != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestIntakeTemporaryGatewayErrorMessage(t *testing.T) {
	gateway := &gatewayFake{err: domain.WrapError(domain.ErrTemporary, "verify", errors.New("circuit open"))}
	uc, _, _ := newIntakeForTest(gateway)

	res, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocAadharCard, samplePDF))
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	if !strings.Contains(res.Errors[0], "temporarily unavailable") {
		t.Fatalf("unexpected error text: %q", res.Errors[0])
	}
}

func TestIntakeVerifiedCreatesSingleRecord(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{
		IsValid:         true,
		ConfidenceScore: 0.92,
		DocumentType:    string(domain.DocIncomeCertificate),
		Errors:          []string{"Low contrast"},
	}}
	uc, repo, storage := newIntakeForTest(gateway)

	res, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocIncomeCertificate, samplePDF))
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	if res.Status != domain.IntakeVerified || res.Document == nil {
		t.Fatalf("expected verified result with document, got %+v", res)
	}
	if !res.Document.IsVerified || res.Document.Verification.ConfidenceScore != 0.92 {
		t.Fatalf("unexpected record: %+v", res.Document)
	}
	if len(res.Document.Verification.Errors) != 1 || res.Document.Verification.Errors[0] != "Low contrast" {
		t.Fatalf("expected verdict errors copied, got %v", res.Document.Verification.Errors)
	}
	if repo.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", repo.upserts)
	}
	if !strings.HasPrefix(res.Document.FilePath, "u1/income-certificate/") {
		t.Fatalf("unexpected storage key %q", res.Document.FilePath)
	}
	if got := string(storage.files[res.Document.FilePath]); got != samplePDF {
		t.Fatalf("stored body = %q", got)
	}
	if len(gateway.calls) != 1 || gateway.calls[0].DocumentType != domain.DocIncomeCertificate {
		t.Fatalf("unexpected gateway calls: %+v", gateway.calls)
	}
}

func TestIntakeThenListReturnsVerdictValues(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{IsValid: true, ConfidenceScore: 0.81}}
	uc, repo, storage := newIntakeForTest(gateway)
	docs := NewDocumentUseCase(repo, storage, nil)

	if _, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocVoterID, samplePDF)); err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	records, err := docs.ListMine(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListMine() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	got := records[0]
	if got.Type != domain.DocVoterID || !got.IsVerified || got.Verification.ConfidenceScore != 0.81 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestIntakeReuploadSupersedesPreviousFile(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{IsValid: true, ConfidenceScore: 0.9}}
	repo := newDocumentRepoFake()
	storage := newStorageFake()
	events := &publisherFake{}
	uc := NewDocumentIntakeUseCase(repo, storage, gateway, inspectorFake{}, IntakeOptions{Events: events})

	first, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocRationCard, samplePDF))
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	second, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocRationCard, samplePDF))
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}

	if first.Document.ID != second.Document.ID {
		t.Fatalf("expected stable record id, got %s and %s", first.Document.ID, second.Document.ID)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected one active record, got %d", len(repo.records))
	}
	if len(events.events) != 1 || events.events[0].FilePath != first.Document.FilePath {
		t.Fatalf("expected superseded event for first file, got %+v", events.events)
	}
	if len(storage.deleted) != 0 {
		t.Fatalf("expected no inline delete when event published, got %v", storage.deleted)
	}
}

func TestIntakeReuploadDeletesInlineWhenPublishFails(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{IsValid: true, ConfidenceScore: 0.9}}
	repo := newDocumentRepoFake()
	storage := newStorageFake()
	events := &publisherFake{err: errors.New("nats down")}
	uc := NewDocumentIntakeUseCase(repo, storage, gateway, inspectorFake{}, IntakeOptions{Events: events})

	first, _ := uc.Intake(context.Background(), intakeRequest("u1", domain.DocRationCard, samplePDF))
	if _, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocRationCard, samplePDF)); err != nil {
		t.Fatalf("Intake() error = %v", err)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != first.Document.FilePath {
		t.Fatalf("expected inline delete of %s, got %v", first.Document.FilePath, storage.deleted)
	}
	if storage.count() != 1 {
		t.Fatalf("expected only the new file to remain, got %d", storage.count())
	}
}

func TestIntakeUpsertFailureRemovesStoredFile(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{IsValid: true, ConfidenceScore: 0.9}}
	uc, repo, storage := newIntakeForTest(gateway)
	repo.upsertErr = errors.New("db down")

	_, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocPANCard, samplePDF))
	if err == nil || !strings.Contains(err.Error(), "upsert document record") {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("persistence failure must not be classified as client error: %v", err)
	}
	if storage.count() != 0 || len(storage.deleted) != 1 {
		t.Fatalf("expected orphaned upload removed, files=%d deleted=%v", storage.count(), storage.deleted)
	}
}

func TestIntakeValidationHappensBeforeGateway(t *testing.T) {
	cases := []struct {
		name string
		req  domain.IntakeRequest
		uc   func(*gatewayFake) *DocumentIntakeUseCase
	}{
		{
			name: "unknown type",
			req:  intakeRequest("u1", "Passport", samplePDF),
		},
		{
			name: "missing user",
			req:  intakeRequest("", domain.DocPANCard, samplePDF),
		},
		{
			name: "empty file",
			req:  intakeRequest("u1", domain.DocPANCard, ""),
		},
		{
			name: "declared size too large",
			req: domain.IntakeRequest{
				UserID: "u1", DocumentType: domain.DocPANCard, Size: 4096, Body: strings.NewReader(samplePDF),
			},
		},
		{
			name: "actual size too large",
			req: domain.IntakeRequest{
				UserID: "u1", DocumentType: domain.DocPANCard, Body: strings.NewReader("%PDF-" + strings.Repeat("x", 2048)),
			},
		},
		{
			name: "not a pdf",
			req:  intakeRequest("u1", domain.DocPANCard, "hello"),
			uc: func(g *gatewayFake) *DocumentIntakeUseCase {
				return NewDocumentIntakeUseCase(newDocumentRepoFake(), newStorageFake(), g,
					inspectorFake{err: errors.New("missing %PDF- header")}, IntakeOptions{MaxUploadBytes: 1024})
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := &gatewayFake{verdict: domain.VerificationVerdict{IsValid: true}}
			uc, _, _ := newIntakeForTest(gateway)
			if tc.uc != nil {
				uc = tc.uc(gateway)
			}
			_, err := uc.Intake(context.Background(), tc.req)
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if len(gateway.calls) != 0 {
				t.Fatalf("gateway must not be called on invalid input")
			}
		})
	}
}

func TestIntakeOversizeIsTooLarge(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{IsValid: true}}
	uc, _, _ := newIntakeForTest(gateway)

	_, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocPANCard, samplePDF+strings.Repeat("x", 2048)))
	if !domain.IsKind(err, domain.ErrTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("too large must also be invalid input, got %v", err)
	}
	if len(gateway.calls) != 0 {
		t.Fatalf("gateway must not be called for oversize files")
	}
}

func TestIntakeConcurrentSameTypeLeavesOneRecord(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{IsValid: true, ConfidenceScore: 0.7}}
	repo := newDocumentRepoFake()
	storage := newStorageFake()
	uc := NewDocumentIntakeUseCase(repo, storage, gateway, inspectorFake{}, IntakeOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf("%%PDF-1.4 upload %d", i)
			req := intakeRequest("u1", domain.DocBankPassbook, body)
			req.Body = bytes.NewBufferString(body)
			if _, err := uc.Intake(context.Background(), req); err != nil {
				t.Errorf("Intake() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if len(repo.records) != 1 {
		t.Fatalf("expected single record, got %d", len(repo.records))
	}
	if storage.count() != 1 {
		t.Fatalf("expected superseded files removed, %d files left", storage.count())
	}
	if uc.locks.size() != 0 {
		t.Fatalf("expected lock table to be empty, got %d", uc.locks.size())
	}
}

func TestDocumentDeleteAfterIntakeRemovesFileAndRecord(t *testing.T) {
	gateway := &gatewayFake{verdict: domain.VerificationVerdict{IsValid: true, ConfidenceScore: 0.9}}
	uc, repo, storage := newIntakeForTest(gateway)
	docs := NewDocumentUseCase(repo, storage, nil)

	res, err := uc.Intake(context.Background(), intakeRequest("u1", domain.DocPANCard, samplePDF))
	if err != nil {
		t.Fatalf("Intake() error = %v", err)
	}

	if err := docs.Delete(context.Background(), "u2", res.Document.ID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
	if err := docs.Delete(context.Background(), "u1", res.Document.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if storage.count() != 0 || len(repo.records) != 0 {
		t.Fatalf("expected file and record removed")
	}
	if _, err := docs.Get(context.Background(), "u1", res.Document.ID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
