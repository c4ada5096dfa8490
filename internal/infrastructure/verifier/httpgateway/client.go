package httpgateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
	"github.com/kirillkom/digital-seva/internal/infrastructure/resilience"
)

// Client talks to the document verification service:
// POST {baseURL}/verify, multipart fields "file" and "documentType".
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		executor:   options.ResilienceExecutor,
	}
}

var _ ports.VerificationGateway = (*Client)(nil)

func (c *Client) Verify(ctx context.Context, req ports.VerificationRequest) (domain.VerificationVerdict, error) {
	body, contentType, err := buildVerifyForm(req)
	if err != nil {
		return domain.VerificationVerdict{}, err
	}

	var verdict domain.VerificationVerdict
	call := func(callCtx context.Context) error {
		verdict = domain.VerificationVerdict{}
		return c.postForm(callCtx, "/verify", body, contentType, &verdict)
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "verifier.verify", call, classifyVerifierError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.VerificationVerdict{}, wrapTemporaryIfNeeded("verify document", err)
	}
	return verdict, nil
}

func buildVerifyForm(req ports.VerificationRequest) ([]byte, string, error) {
	if len(req.Content) == 0 {
		return nil, "", errors.New("verification request has no file content")
	}
	filename := filepath.Base(strings.TrimSpace(req.Filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = req.DocumentType.Slug() + ".pdf"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.WriteField("documentType", string(req.DocumentType)); err != nil {
		return nil, "", fmt.Errorf("write documentType field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
