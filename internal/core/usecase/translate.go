package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
)

type TranslationUseCase struct {
	completion ports.CompletionClient
	cache      ports.Cache[string]
	agentID    string
	logger     *slog.Logger
}

func NewTranslationUseCase(completion ports.CompletionClient, cache ports.Cache[string], agentID string, logger *slog.Logger) *TranslationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranslationUseCase{completion: completion, cache: cache, agentID: agentID, logger: logger}
}

// Translate returns text in the target language, or the original text when
// translation is not possible.
func (uc *TranslationUseCase) Translate(ctx context.Context, text, language, state string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(language) == "" || strings.EqualFold(language, "English") {
		return text
	}

	key := translationCacheKey(text, language)
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(ctx, key); ok {
			return cached
		}
	}

	region := state
	if region == "" {
		region = "India"
	}
	translated, err := uc.completion.Complete(ctx, domain.CompletionRequest{
		AgentID: uc.agentID,
		Messages: []domain.ChatMessage{
			{
				Role: domain.RoleSystem,
				Content: fmt.Sprintf(
					"You are a professional translator. Translate the following text to %s. Ensure the translation is natural and culturally appropriate for %s.",
					language, region,
				),
			},
			{Role: domain.RoleUser, Content: text},
		},
	})
	if err != nil || strings.TrimSpace(translated) == "" {
		if err != nil {
			uc.logger.Warn("translation failed", slog.String("language", language), slog.String("error", err.Error()))
		}
		return text
	}

	if uc.cache != nil {
		uc.cache.Set(ctx, key, translated)
	}
	return translated
}

func translationCacheKey(text, language string) string {
	sum := sha256.Sum256([]byte(text))
	return "translate:" + strings.ToLower(language) + ":" + hex.EncodeToString(sum[:])
}
