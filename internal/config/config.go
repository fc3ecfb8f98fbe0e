package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all process configuration, loaded from the environment with
// an optional .env file.
type Config struct {
	Port string `envconfig:"PORT" default:"8000"`

	OpenRouterAPIKey  string `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`

	MongoURI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"medtranslate"`

	AudioStoragePath string `envconfig:"AUDIO_STORAGE_PATH" default:"./data/audio"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,https://medtranslate.vercel.app"`

	// JWTSecret enables conversation share tokens. When empty, the
	// websocket endpoint accepts unauthenticated connections.
	JWTSecret string `envconfig:"JWT_SECRET"`
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &cfg, nil
}
