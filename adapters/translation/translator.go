package translation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/entities"
	"github.com/medtranslate/server/domain/repositories"
)

// Low temperature for consistent medical terminology.
const translationTemperature = 0.3

// Translator translates text through the completion provider, degrading to
// passthrough whenever the provider fails. It never aborts message delivery.
type Translator struct {
	client repositories.CompletionClient
	logger *zap.Logger
}

var _ repositories.Translator = (*Translator)(nil)

// NewTranslator creates a new provider-backed translator.
func NewTranslator(client repositories.CompletionClient, logger *zap.Logger) *Translator {
	return &Translator{client: client, logger: logger}
}

// Translate converts text from source to target language. Empty text and
// identical language pairs short-circuit without a provider call.
func (t *Translator) Translate(ctx context.Context, text string, source, target entities.Language) entities.TranslationResult {
	result := entities.TranslationResult{
		OriginalText:   text,
		SourceLanguage: source,
		TargetLanguage: target,
	}

	if strings.TrimSpace(text) == "" {
		result.TranslatedText = ""
		return result
	}

	if source == target {
		result.TranslatedText = text
		return result
	}

	translated, err := t.client.ChatCompletion(ctx, repositories.CompletionRequest{
		Messages:    translationPrompt(source, target, text),
		Model:       "flash",
		Temperature: translationTemperature,
	})
	if err != nil {
		t.logger.Error("Translation failed, falling back to passthrough",
			zap.String("source", string(source)),
			zap.String("target", string(target)),
			zap.Error(err))
		result.TranslatedText = text
		result.Degraded = true
		return result
	}

	result.TranslatedText = strings.TrimSpace(translated)
	return result
}
