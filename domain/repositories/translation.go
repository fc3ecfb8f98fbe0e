package repositories

import (
	"context"
	"errors"

	"github.com/medtranslate/server/domain/entities"
)

// ErrSummaryMalformed reports that the provider responded but its output
// could not be parsed. The accompanying placeholder summary is safe to
// display, not to persist.
var ErrSummaryMalformed = errors.New("summary response was not valid JSON")

// Translator converts text between languages. It never returns an error:
// any provider failure degrades to passthrough, tagged on the result.
type Translator interface {
	Translate(ctx context.Context, text string, source, target entities.Language) entities.TranslationResult
}

// Summarizer produces a structured clinical summary from an ordered message
// history. Unlike the translator this surfaces failures, since summary
// generation is an explicit user action rather than part of the relay path.
type Summarizer interface {
	Summarize(ctx context.Context, messages []entities.Message) (*entities.MedicalSummary, error)
}
