package repositories

import "context"

// ChatMessage is one turn of a chat-completion prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes a single chat-completion call. Model is a
// logical model name; the client resolves it against its model registry.
type CompletionRequest struct {
	Messages    []ChatMessage
	Model       string
	Temperature float64
	MaxTokens   int
}

// CompletionClient is the outbound chat-completion provider. Implementations
// own retry and error classification; callers see either a usable response
// or a terminal error.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, req CompletionRequest) (string, error)

	// HealthCheck probes the provider with a short timeout. It never fails,
	// it only reports reachability.
	HealthCheck(ctx context.Context) bool
}
