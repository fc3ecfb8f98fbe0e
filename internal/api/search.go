package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/entities"
)

const (
	minQueryLength = 2
	searchLimit    = 50
	snippetRadius  = 3
)

// searchMessages searches across original and translated text of all
// messages, newest first.
func (s *Server) searchMessages(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if len(query) < minQueryLength {
		return c.JSON(http.StatusOK, []SearchResult{})
	}

	messages, err := s.messages.Search(c.Request().Context(), query, searchLimit)
	if err != nil {
		s.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_failure",
			Message: "Search failed",
		})
	}

	results := lo.Map(messages, func(msg entities.Message, _ int) SearchResult {
		matchText := msg.OriginalText
		if !strings.Contains(strings.ToLower(matchText), strings.ToLower(query)) {
			matchText = msg.TranslatedText
		}

		return SearchResult{
			MessageID:       msg.ID,
			ConversationID:  msg.ConversationID,
			Snippet:         snippet(matchText, query),
			HighlightedText: highlight(matchText, query),
			Role:            string(msg.Role),
			CreatedAt:       msg.CreatedAt.Format(time.RFC3339),
		}
	})

	return c.JSON(http.StatusOK, results)
}

// snippet extracts a few words of context around the first matching word.
func snippet(text, query string) string {
	words := strings.Fields(text)
	queryLower := strings.ToLower(query)

	for i, word := range words {
		if !strings.Contains(strings.ToLower(word), queryLower) {
			continue
		}
		start := i - snippetRadius
		if start < 0 {
			start = 0
		}
		end := i + snippetRadius + 1
		if end > len(words) {
			end = len(words)
		}
		return "..." + strings.Join(words[start:end], " ") + "..."
	}

	return "......"
}

// highlight wraps case variants of the query in <mark> tags.
func highlight(text, query string) string {
	variants := []string{query, capitalize(query), strings.ToLower(query), strings.ToUpper(query)}
	for _, v := range lo.Uniq(variants) {
		text = strings.ReplaceAll(text, v, "<mark>"+v+"</mark>")
	}
	return text
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
