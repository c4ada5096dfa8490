package httpgateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
	"github.com/kirillkom/digital-seva/internal/infrastructure/resilience"
)

func verifyRequest() ports.VerificationRequest {
	return ports.VerificationRequest{
		DocumentType: domain.DocAadharCard,
		Filename:     "../aadhar scan.pdf",
		Content:      []byte("%PDF-1.4 body"),
	}
}

func TestVerifySendsMultipartAndDecodesVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("expected forwarded bearer token, got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("documentType"); got != "Aadhar Card" {
			t.Errorf("documentType = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		if string(raw) != "%PDF-1.4 body" || header.Filename != "aadhar scan.pdf" {
			t.Errorf("unexpected file %q named %q", raw, header.Filename)
		}
		_, _ = w.Write([]byte(`{"isValid":true,"confidenceScore":0.87,"documentType":"Aadhar Card","errors":[]}`))
	}))
	defer server.Close()

	client := New(server.URL+"/", Options{})
	ctx := domain.WithBearerToken(context.Background(), "user-token")
	verdict, err := client.Verify(ctx, verifyRequest())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !verdict.IsValid || verdict.ConfidenceScore != 0.87 || verdict.DocumentType != "Aadhar Card" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestVerifyIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ocr model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, Options{}).Verify(context.Background(), verifyRequest())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "ocr model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be temporary, got %v", err)
	}
}

func TestVerifyRejectsMalformedBody(t *testing.T) {
	for _, body := range []string{`not json`, `{"confidenceScore":0.4}`, `{"isValid":true,"confidenceScore":7}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := New(server.URL, Options{}).Verify(context.Background(), verifyRequest())
		server.Close()
		if err == nil || !strings.Contains(err.Error(), "malformed response") {
			t.Fatalf("body %q: expected malformed response error, got %v", body, err)
		}
		if domain.IsKind(err, domain.ErrTemporary) {
			t.Fatalf("body %q: malformed response must not be temporary", body)
		}
	}
}

func TestVerifyRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("retry must resend the full form: %v", err)
		}
		_, _ = w.Write([]byte(`{"isValid":false,"confidenceScore":0.1,"errors":["Name mismatch"]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})
	verdict, err := New(server.URL, Options{ResilienceExecutor: exec}).Verify(context.Background(), verifyRequest())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if verdict.IsValid || len(verdict.Errors) != 1 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestVerifyDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported file", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 3, RetryInitialBackoff: time.Millisecond, BreakerEnabled: false})
	_, err := New(server.URL, Options{ResilienceExecutor: exec}).Verify(context.Background(), verifyRequest())
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}
