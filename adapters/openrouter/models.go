package openrouter

// ModelConfig maps a logical model name to its provider identifier and
// token limit.
type ModelConfig struct {
	ID        string
	Name      string
	MaxTokens int
}

const defaultModel = "flash"

// models is the static registry of logical model names. Unknown names fall
// back to the default entry rather than failing.
var models = map[string]ModelConfig{
	"flash": {
		ID:        "google/gemini-2.5-flash-lite",
		Name:      "Gemini 2.5 Flash Lite",
		MaxTokens: 4096,
	},
	"flash-preview": {
		ID:        "google/gemini-2.5-flash-lite-preview-06-17",
		Name:      "Gemini 2.5 Flash Lite Preview",
		MaxTokens: 4096,
	},
}

func resolveModel(name string) ModelConfig {
	if mc, ok := models[name]; ok {
		return mc
	}
	return models[defaultModel]
}
