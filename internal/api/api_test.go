package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medtranslate/server/adapters/audiostore"
	"github.com/medtranslate/server/domain/entities"
	"github.com/medtranslate/server/domain/repositories"
	"github.com/medtranslate/server/internal/auth"
	"github.com/medtranslate/server/internal/websocket"
	"github.com/medtranslate/server/usecase"
)

type memConversations struct {
	byID map[string]*entities.Conversation
}

func newMemConversations() *memConversations {
	return &memConversations{byID: make(map[string]*entities.Conversation)}
}

func (m *memConversations) Create(_ context.Context, conversation *entities.Conversation) error {
	now := time.Now().UTC()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	m.byID[conversation.ID] = conversation
	return nil
}

func (m *memConversations) Get(_ context.Context, id string) (*entities.Conversation, error) {
	conversation, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return conversation, nil
}

func (m *memConversations) List(context.Context, int, int) ([]entities.Conversation, error) {
	conversations := make([]entities.Conversation, 0, len(m.byID))
	for _, conversation := range m.byID {
		conversations = append(conversations, *conversation)
	}
	return conversations, nil
}

func (m *memConversations) Update(_ context.Context, id string, params repositories.UpdateConversationParams) (*entities.Conversation, error) {
	conversation, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if params.Status != nil {
		conversation.Status = *params.Status
	}
	if params.Summary != nil {
		conversation.Summary = params.Summary
	}
	conversation.UpdatedAt = time.Now().UTC()
	return conversation, nil
}

func (m *memConversations) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memMessages struct {
	byConversation map[string][]entities.Message
	searchHits     []entities.Message
	searchCalls    int
}

func newMemMessages() *memMessages {
	return &memMessages{byConversation: make(map[string][]entities.Message)}
}

func (m *memMessages) Create(_ context.Context, params repositories.CreateMessageParams) (*entities.Message, error) {
	message := entities.Message{
		ID:             uuid.NewString(),
		ConversationID: params.ConversationID,
		Role:           params.Role,
		OriginalText:   params.OriginalText,
		TranslatedText: params.TranslatedText,
		AudioURL:       params.AudioURL,
		CreatedAt:      time.Now().UTC(),
	}
	m.byConversation[params.ConversationID] = append(m.byConversation[params.ConversationID], message)
	return &message, nil
}

func (m *memMessages) ListByConversation(_ context.Context, conversationID string) ([]entities.Message, error) {
	return m.byConversation[conversationID], nil
}

func (m *memMessages) Search(context.Context, string, int) ([]entities.Message, error) {
	m.searchCalls++
	return m.searchHits, nil
}

type passthroughTranslator struct{}

func (passthroughTranslator) Translate(_ context.Context, text string, source, target entities.Language) entities.TranslationResult {
	return entities.TranslationResult{
		OriginalText:   text,
		TranslatedText: "[" + string(target) + "] " + text,
		SourceLanguage: source,
		TargetLanguage: target,
	}
}

type stubSummarizer struct {
	summary *entities.MedicalSummary
	err     error
}

func (s *stubSummarizer) Summarize(context.Context, []entities.Message) (*entities.MedicalSummary, error) {
	return s.summary, s.err
}

type apiFixture struct {
	echo          *echo.Echo
	conversations *memConversations
	messages      *memMessages
	summarizer    *stubSummarizer
	tokens        *auth.Tokens
}

func newAPIFixture(t *testing.T, tokens *auth.Tokens) *apiFixture {
	t.Helper()
	logger := zap.NewNop()

	store, err := audiostore.NewLocal(t.TempDir(), logger)
	require.NoError(t, err)

	f := &apiFixture{
		echo:          echo.New(),
		conversations: newMemConversations(),
		messages:      newMemMessages(),
		summarizer:    &stubSummarizer{summary: &entities.MedicalSummary{ChiefComplaint: "Headache"}},
		tokens:        tokens,
	}

	registry := websocket.NewRegistry(logger)
	relay := usecase.NewRelayService(nil, passthroughTranslator{}, f.messages, registry, logger)

	server := NewServer(f.conversations, f.messages, passthroughTranslator{}, f.summarizer, store, registry, relay, tokens, logger)
	server.Register(f.echo)
	return f
}

func (f *apiFixture) request(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) seedConversation(t *testing.T) string {
	t.Helper()
	rec := f.request(http.MethodPost, "/api/conversations", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCreateConversationDefaultsLanguages(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/api/conversations", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, entities.LanguageEnglish, resp.DoctorLanguage)
	assert.Equal(t, entities.LanguageSpanish, resp.PatientLanguage)
	assert.Equal(t, entities.StatusActive, resp.Status)
	assert.NotNil(t, resp.Messages)
}

func TestCreateConversationRejectsUnknownLanguage(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/api/conversations", `{"doctor_language":"xx"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConversationWithMessages(t *testing.T) {
	f := newAPIFixture(t, nil)
	id := f.seedConversation(t)

	body := `{"conversation_id":"` + id + `","role":"doctor","original_text":"hello","translated_text":"hola"}`
	rec := f.request(http.MethodPost, "/api/messages", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(http.MethodGet, "/api/conversations/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "hello", resp.Messages[0].OriginalText)
}

func TestGetConversationNotFound(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodGet, "/api/conversations/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateConversationStatus(t *testing.T) {
	f := newAPIFixture(t, nil)
	id := f.seedConversation(t)

	rec := f.request(http.MethodPatch, "/api/conversations/"+id, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entities.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, entities.StatusCompleted, resp.Status)
}

func TestDeleteConversation(t *testing.T) {
	f := newAPIFixture(t, nil)
	id := f.seedConversation(t)

	rec := f.request(http.MethodDelete, "/api/conversations/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(http.MethodGet, "/api/conversations/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMessageUnknownConversation(t *testing.T) {
	f := newAPIFixture(t, nil)

	body := `{"conversation_id":"missing","role":"doctor","original_text":"x","translated_text":"y"}`
	rec := f.request(http.MethodPost, "/api/messages", body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummarizeConversation(t *testing.T) {
	f := newAPIFixture(t, nil)
	id := f.seedConversation(t)

	rec := f.request(http.MethodPost, "/api/conversations/"+id+"/summarize", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary entities.MedicalSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "Headache", summary.ChiefComplaint)

	// The summary was persisted on the conversation.
	stored, err := f.conversations.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, "Headache", stored.Summary.ChiefComplaint)
}

func TestSummarizeMalformedOutputKeepsStoredSummary(t *testing.T) {
	f := newAPIFixture(t, nil)
	id := f.seedConversation(t)

	good := &entities.MedicalSummary{ChiefComplaint: "Headache"}
	_, err := f.conversations.Update(context.Background(), id, repositories.UpdateConversationParams{Summary: good})
	require.NoError(t, err)

	f.summarizer.summary = &entities.MedicalSummary{ChiefComplaint: "Summary generation failed"}
	f.summarizer.err = repositories.ErrSummaryMalformed

	rec := f.request(http.MethodPost, "/api/conversations/"+id+"/summarize", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var returned entities.MedicalSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &returned))
	assert.Equal(t, "Summary generation failed", returned.ChiefComplaint)

	// The placeholder landed in the response, not in storage.
	stored, err := f.conversations.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, "Headache", stored.Summary.ChiefComplaint)
}

func TestSummarizeConversationProviderFailure(t *testing.T) {
	f := newAPIFixture(t, nil)
	id := f.seedConversation(t)
	f.summarizer.summary = nil
	f.summarizer.err = assert.AnError

	rec := f.request(http.MethodPost, "/api/conversations/"+id+"/summarize", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "summary_failure")
}

func TestTranslateEndpoint(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/api/translate", `{"text":"hello","source_language":"en","target_language":"es"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result entities.TranslationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "[es] hello", result.TranslatedText)
}

func TestTranslateEndpointRequiresLanguages(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodPost, "/api/translate", `{"text":"hello"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchShortQueryReturnsEmpty(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.request(http.MethodGet, "/api/search?q=a", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
	assert.Zero(t, f.messages.searchCalls)
}

func TestSearchReturnsHighlightedResults(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.messages.searchHits = []entities.Message{{
		ID:             "msg-1",
		ConversationID: "conv-1",
		Role:           entities.RoleDoctor,
		OriginalText:   "The patient reports a severe headache since Monday",
		TranslatedText: "El paciente reporta un dolor de cabeza severo",
		CreatedAt:      time.Now().UTC(),
	}}

	rec := f.request(http.MethodGet, "/api/search?q=headache", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "msg-1", results[0].MessageID)
	assert.Contains(t, results[0].Snippet, "headache")
	assert.Contains(t, results[0].HighlightedText, "<mark>headache</mark>")
}

func TestShareTokenDisabled(t *testing.T) {
	f := newAPIFixture(t, nil)
	id := f.seedConversation(t)

	rec := f.request(http.MethodPost, "/api/conversations/"+id+"/token", `{"role":"patient"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestShareTokenIssuedAndValid(t *testing.T) {
	tokens := auth.NewTokens("test-secret")
	f := newAPIFixture(t, tokens)
	id := f.seedConversation(t)

	rec := f.request(http.MethodPost, "/api/conversations/"+id+"/token", `{"role":"patient"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ShareTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	claims, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ConversationID)
	assert.Equal(t, entities.RolePatient, claims.Role)
}

func TestWebSocketRequiresToken(t *testing.T) {
	f := newAPIFixture(t, auth.NewTokens("test-secret"))

	rec := f.request(http.MethodGet, "/ws/conv-1", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_token")
}

func TestWebSocketRejectsForeignToken(t *testing.T) {
	tokens := auth.NewTokens("test-secret")
	f := newAPIFixture(t, tokens)

	token, err := tokens.GenerateConversationToken("conv-other", entities.RoleDoctor)
	require.NoError(t, err)

	rec := f.request(http.MethodGet, "/ws/conv-1?token="+token, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "wrong_conversation")
}
