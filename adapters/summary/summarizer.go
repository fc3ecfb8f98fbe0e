package summary

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/entities"
	"github.com/medtranslate/server/domain/repositories"
)

const (
	summaryTemperature = 0.5
	summaryMaxTokens   = 1000
)

// Summarizer generates structured clinical summaries from an ordered
// message history. Provider failures propagate to the caller; broken JSON
// degrades to a fixed placeholder summary, flagged with
// repositories.ErrSummaryMalformed so callers do not store it.
type Summarizer struct {
	client repositories.CompletionClient
	logger *zap.Logger
}

var _ repositories.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a new provider-backed summarizer.
func NewSummarizer(client repositories.CompletionClient, logger *zap.Logger) *Summarizer {
	return &Summarizer{client: client, logger: logger}
}

// Summarize builds a role-labeled transcript and asks the provider for a
// strict-JSON summary. An empty history returns a fixed placeholder without
// a provider call.
func (s *Summarizer) Summarize(ctx context.Context, messages []entities.Message) (*entities.MedicalSummary, error) {
	if len(messages) == 0 {
		return placeholderSummary("No conversation yet"), nil
	}

	response, err := s.client.ChatCompletion(ctx, repositories.CompletionRequest{
		Messages:    summaryPrompt(buildTranscript(messages)),
		Model:       "flash",
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	var parsed entities.MedicalSummary
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &parsed); err != nil {
		s.logger.Error("Failed to parse summary JSON", zap.Error(err))
		return placeholderSummary("Summary generation failed"), repositories.ErrSummaryMalformed
	}

	return &parsed, nil
}

func buildTranscript(messages []entities.Message) string {
	lines := lo.Map(messages, func(msg entities.Message, _ int) string {
		label := "Patient"
		if msg.Role == entities.RoleDoctor {
			label = "Doctor"
		}
		return label + ": " + msg.OriginalText
	})
	return strings.Join(lines, "\n")
}

// stripCodeFence removes surrounding markdown code fences, which some
// models emit despite the strict-JSON instruction.
func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		if idx := strings.Index(response, "\n"); idx != -1 {
			response = response[idx:]
		}
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	}
	return strings.TrimSpace(response)
}

func placeholderSummary(chiefComplaint string) *entities.MedicalSummary {
	return &entities.MedicalSummary{
		ChiefComplaint: chiefComplaint,
		Symptoms:       []string{},
		Duration:       "Not discussed",
		Medications:    []string{},
		Allergies:      []string{},
		FollowUp:       "Not discussed",
	}
}
