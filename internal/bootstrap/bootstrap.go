package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/digital-seva/internal/config"
	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
	"github.com/kirillkom/digital-seva/internal/core/usecase"
	"github.com/kirillkom/digital-seva/internal/infrastructure/auth"
	"github.com/kirillkom/digital-seva/internal/infrastructure/catalog"
	"github.com/kirillkom/digital-seva/internal/infrastructure/extractor/pdfcheck"
	"github.com/kirillkom/digital-seva/internal/infrastructure/queue/nats"
	"github.com/kirillkom/digital-seva/internal/infrastructure/resilience"
	"github.com/kirillkom/digital-seva/internal/infrastructure/verifier/httpgateway"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Accounts        ports.AccountService
	Intake          ports.DocumentIntake
	Documents       ports.DocumentService
	Eligibility     ports.EligibilityService
	Recommendations ports.RecommendationService
	Bookmarks       ports.BookmarkService
	Assistant       ports.AssistantService
	Translator      ports.Translator
	Catalog         ports.SchemeCatalog

	Janitor ports.SupersededFileHandler
	// Events is nil when NATS_URL is empty.
	Events ports.DocumentEventSubscriber

	closers []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, st.close)

	storage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	profileCache, translationCache, closeCache, err := newCaches(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	app.closers = append(app.closers, closeCache)

	schemes, err := catalog.Load(cfg.SchemeCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load scheme catalog: %w", err)
	}

	tokens, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}

	completion, closeCompletion, err := newCompletionClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init completion client: %w", err)
	}
	app.closers = append(app.closers, closeCompletion)

	verifierPolicy := resilience.DefaultConfig().WithCallTimeout(cfg.VerifierTimeout)
	gateway := httpgateway.New(cfg.VerifierURL, httpgateway.Options{
		ResilienceExecutor: resilience.NewExecutor(verifierPolicy),
	})

	var publisher ports.DocumentEventPublisher
	if cfg.NATSURL != "" {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig().WithCallTimeout(5 * time.Second)),
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.closers = append(app.closers, queue.Close)
		publisher = queue
		app.Events = queue
	}

	accounts := usecase.NewAccountUseCase(st.users, auth.NewBcryptHasher(0), tokens, profileCache)

	app.Accounts = accounts
	app.Intake = usecase.NewDocumentIntakeUseCase(st.documents, storage, gateway, pdfcheck.NewInspector(), usecase.IntakeOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Events:         publisher,
		Logger:         logger,
	})
	app.Documents = usecase.NewDocumentUseCase(st.documents, storage, logger)
	app.Eligibility = usecase.NewEligibilityUseCase(accounts, st.documents)
	app.Recommendations = usecase.NewRecommendationUseCase(accounts, st.documents, completion, cfg.RecommendationAgent, logger)
	app.Bookmarks = usecase.NewBookmarkUseCase(st.bookmarks, schemes)
	app.Assistant = usecase.NewAssistantUseCase(accounts, st.documents, completion, cfg.AssistantAgent, logger)
	app.Translator = usecase.NewTranslationUseCase(completion, translationCache, cfg.TranslationAgent, logger)
	app.Catalog = schemes
	app.Janitor = usecase.NewFileJanitorUseCase(st.documents, storage, logger)

	ok = true
	return app, nil
}

// Close releases resources in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// aiPolicy bounds each AI attempt by AI_TIMEOUT. AI_MAX_RETRIES counts
// retries, not attempts.
func aiPolicy(cfg config.Config) resilience.Config {
	policy := resilience.DefaultConfig().WithCallTimeout(cfg.AITimeout)
	if cfg.AIMaxRetries >= 0 {
		policy.RetryMaxAttempts = cfg.AIMaxRetries + 1
	}
	if cfg.AIBreakerMinRequests > 0 {
		policy.BreakerMinRequests = uint32(cfg.AIBreakerMinRequests)
	}
	return policy
}

var errUnknownDriver = errors.New("unknown driver")

func unknownDriver(kind, name string) error {
	return domain.WrapError(domain.ErrInvalidInput, "bootstrap", fmt.Errorf("%w %q for %s", errUnknownDriver, name, kind))
}
