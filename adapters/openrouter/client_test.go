package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/repositories"
)

type providerScript struct {
	mu       sync.Mutex
	statuses []int
	content  string

	attempts     int
	attemptTimes []time.Time
	lastPayload  map[string]interface{}
}

func (p *providerScript) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()

		json.NewDecoder(r.Body).Decode(&p.lastPayload)
		p.attemptTimes = append(p.attemptTimes, time.Now())

		status := p.statuses[len(p.statuses)-1]
		if p.attempts < len(p.statuses) {
			status = p.statuses[p.attempts]
		}
		p.attempts++

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": p.content}},
			},
		})
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:     "test-key",
		APIBaseURL: baseURL,
		BaseDelay:  10 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func completionRequest() repositories.CompletionRequest {
	return repositories.CompletionRequest{
		Messages: []repositories.ChatMessage{{Role: "user", Content: "hola"}},
		Model:    "flash",
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestChatCompletionRecoversFromRateLimit(t *testing.T) {
	script := &providerScript{
		statuses: []int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK},
		content:  "hello",
	}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	content, err := client.ChatCompletion(context.Background(), completionRequest())

	require.NoError(t, err)
	assert.Equal(t, "hello", content)
	assert.Equal(t, 3, script.attempts)

	// Backoff doubles: the wait before attempt 3 must be at least the wait
	// before attempt 2.
	require.Len(t, script.attemptTimes, 3)
	firstGap := script.attemptTimes[1].Sub(script.attemptTimes[0])
	secondGap := script.attemptTimes[2].Sub(script.attemptTimes[1])
	assert.GreaterOrEqual(t, secondGap, firstGap)
}

func TestChatCompletionExhaustsRateLimitBudget(t *testing.T) {
	script := &providerScript{
		statuses: []int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests},
	}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ChatCompletion(context.Background(), completionRequest())

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3, script.attempts)
}

func TestChatCompletionAuthFailureIsTerminal(t *testing.T) {
	script := &providerScript{statuses: []int{http.StatusUnauthorized}}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ChatCompletion(context.Background(), completionRequest())

	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Equal(t, 1, script.attempts)
}

func TestChatCompletionRetriesGenericErrors(t *testing.T) {
	script := &providerScript{
		statuses: []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK},
		content:  "recovered",
	}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	content, err := client.ChatCompletion(context.Background(), completionRequest())

	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, 3, script.attempts)
}

func TestChatCompletionGenericErrorsExhaustBudget(t *testing.T) {
	script := &providerScript{
		statuses: []int{http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError},
	}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.ChatCompletion(context.Background(), completionRequest())

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, script.attempts)
	assert.False(t, errors.Is(err, ErrAuthentication))
}

func TestChatCompletionUnknownModelFallsBack(t *testing.T) {
	script := &providerScript{statuses: []int{http.StatusOK}, content: "ok"}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	req := completionRequest()
	req.Model = "does-not-exist"

	_, err := client.ChatCompletion(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models[defaultModel].ID, script.lastPayload["model"])
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	client := newTestClient(t, srv.URL)
	assert.True(t, client.HealthCheck(context.Background()))

	srv.Close()
	assert.False(t, client.HealthCheck(context.Background()))
}
