package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/digital-seva/internal/core/ports"
	"github.com/kirillkom/digital-seva/internal/observability/metrics"
)

const (
	defaultServiceName = "api"
	maxJSONBodyBytes   = 1 << 20
)

// Services are the inbound use cases served over HTTP.
type Services struct {
	Accounts        ports.AccountService
	Intake          ports.DocumentIntake
	Documents       ports.DocumentService
	Eligibility     ports.EligibilityService
	Recommendations ports.RecommendationService
	Bookmarks       ports.BookmarkService
	Assistant       ports.AssistantService
	Translator      ports.Translator
	Catalog         ports.SchemeCatalog
}

type Options struct {
	Service          string
	Logger           *slog.Logger
	Metrics          *metrics.HTTPServerMetrics
	MaxUploadBytes   int64
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	Services

	service        string
	logger         *slog.Logger
	metrics        *metrics.HTTPServerMetrics
	validate       *validator.Validate
	maxUploadBytes int64
	opts           Options
}

func NewRouter(services Services, opts Options) *Router {
	if opts.Service == "" {
		opts.Service = defaultServiceName
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Router{
		Services:       services,
		service:        opts.Service,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: opts.MaxUploadBytes,
		opts:           opts,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(rt.logger))

	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.trafficControl)

		r.Post("/auth/register", rt.register)
		r.Post("/auth/login", rt.login)
		r.Get("/schemes", rt.listSchemes)
		r.Get("/schemes/{id}", rt.getScheme)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware)

			r.Get("/auth/profile", rt.getProfile)
			r.Put("/auth/profile", rt.updateProfile)

			r.Post("/documents/upload", rt.uploadDocument)
			r.Get("/documents/my-documents", rt.listDocuments)
			r.Get("/documents/{id}", rt.getDocument)
			r.Delete("/documents/{id}", rt.deleteDocument)

			r.Post("/bookmarks", rt.addBookmark)
			r.Get("/bookmarks", rt.listBookmarks)
			r.Delete("/bookmarks/{id}", rt.removeBookmark)

			r.Get("/eligibility", rt.eligibility)
			r.Post("/recommendations", rt.recommendations)
			r.Post("/assistant/chat", rt.chat)
			r.Post("/translate", rt.translate)
		})
	})

	if rt.metrics == nil {
		return r
	}
	return rt.metrics.Middleware(rt.service, r)
}

func (rt *Router) trafficControl(next http.Handler) http.Handler {
	reject := func(reason string) func() {
		return func() {
			if rt.metrics != nil {
				rt.metrics.RecordRejected(rt.service, reason)
			}
		}
	}
	h := backpressureMiddlewareWithHook(next, rt.opts.MaxInFlight, rt.opts.BackpressureWait, reject("backpressure"))
	return rateLimitMiddleware(h, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst, reject("rate_limited"))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a bounded JSON body into dst and runs struct validation.
func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	if err := rt.validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return true
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": describeValidation(err)})
		return false
	}
	return true
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", lowerFirst(fe.Field()), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s is %s", lowerFirst(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		message := "internal server error"
		if status == http.StatusServiceUnavailable {
			message = "service temporarily unavailable"
		}
		writeJSON(w, status, map[string]string{"error": message})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
