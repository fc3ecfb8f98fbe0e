package entities

// TranslationResult is the outcome of one translation. It is always fully
// populated: when the provider is unreachable the translator falls back to
// passthrough and marks the result as degraded instead of failing.
type TranslationResult struct {
	OriginalText   string   `json:"original_text"`
	TranslatedText string   `json:"translated_text"`
	SourceLanguage Language `json:"source_language"`
	TargetLanguage Language `json:"target_language"`

	// Degraded is true when TranslatedText is a fallback rather than a
	// provider translation. Not part of the wire format.
	Degraded bool `json:"-"`
}
