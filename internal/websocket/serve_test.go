package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/entities"
	"github.com/medtranslate/server/domain/repositories"
	"github.com/medtranslate/server/usecase"
)

type noopTranscriber struct{}

func (noopTranscriber) Transcribe(context.Context, string) (string, bool) { return "", false }

type tagTranslator struct{}

func (tagTranslator) Translate(_ context.Context, text string, source, target entities.Language) entities.TranslationResult {
	return entities.TranslationResult{
		OriginalText:   text,
		TranslatedText: "[" + string(target) + "] " + text,
		SourceLanguage: source,
		TargetLanguage: target,
	}
}

type memMessages struct{}

func (memMessages) Create(_ context.Context, params repositories.CreateMessageParams) (*entities.Message, error) {
	return &entities.Message{
		ID:             uuid.NewString(),
		ConversationID: params.ConversationID,
		Role:           params.Role,
		OriginalText:   params.OriginalText,
		TranslatedText: params.TranslatedText,
		AudioURL:       params.AudioURL,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (memMessages) ListByConversation(context.Context, string) ([]entities.Message, error) {
	return nil, nil
}

func (memMessages) Search(context.Context, string, int) ([]entities.Message, error) {
	return nil, nil
}

type wireFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// socketFixture runs the real server loop: upgrade, pumps, dispatch, relay,
// registry fan-out.
type socketFixture struct {
	registry *Registry
	server   *httptest.Server
}

func newSocketFixture(t *testing.T) *socketFixture {
	t.Helper()
	logger := zap.NewNop()

	registry := NewRegistry(logger)
	relay := usecase.NewRelayService(noopTranscriber{}, tagTranslator{}, memMessages{}, registry, logger)

	e := echo.New()
	e.GET("/ws/:conversation_id", func(c echo.Context) error {
		return ServeConversation(registry, relay, c, c.Param("conversation_id"), logger)
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &socketFixture{registry: registry, server: srv}
}

func (f *socketFixture) dial(t *testing.T, conversationID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/" + conversationID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *socketFixture) awaitConnections(t *testing.T, conversationID string, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.registry.ConnectionCount(conversationID) == want
	}, 2*time.Second, 10*time.Millisecond)
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame wireFrame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestSendMessageReachesEveryRoomSocket(t *testing.T) {
	f := newSocketFixture(t)

	doctor := f.dial(t, "conv-1")
	patient := f.dial(t, "conv-1")
	f.awaitConnections(t, "conv-1", 2)

	err := doctor.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"send_message","text":"I have a headache","role":"doctor"}`))
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{doctor, patient} {
		frame := readFrame(t, conn)
		assert.Equal(t, "new_message", frame.Type)

		var message entities.Message
		require.NoError(t, json.Unmarshal(frame.Data, &message))
		assert.Equal(t, "I have a headache", message.OriginalText)
		assert.Equal(t, "[es] I have a headache", message.TranslatedText)
		assert.Equal(t, entities.RoleDoctor, message.Role)
		assert.NotEmpty(t, message.ID)
	}
}

func TestJoinAckIsPersonal(t *testing.T) {
	f := newSocketFixture(t)

	joiner := f.dial(t, "conv-1")
	peer := f.dial(t, "conv-1")
	f.awaitConnections(t, "conv-1", 2)

	err := joiner.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"join_conversation","conversation_id":"conv-1","role":"patient"}`))
	require.NoError(t, err)

	frame := readFrame(t, joiner)
	assert.Equal(t, "joined", frame.Type)

	// The peer sees nothing; its next read hits the deadline.
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = peer.ReadMessage()
	assert.Error(t, err)
}

func TestTypingIsBroadcast(t *testing.T) {
	f := newSocketFixture(t)

	typer := f.dial(t, "conv-1")
	peer := f.dial(t, "conv-1")
	f.awaitConnections(t, "conv-1", 2)

	err := typer.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"typing","role":"patient","is_typing":true}`))
	require.NoError(t, err)

	frame := readFrame(t, peer)
	assert.Equal(t, "typing", frame.Type)
}

func TestMalformedFrameKeepsConnectionAlive(t *testing.T) {
	f := newSocketFixture(t)

	conn := f.dial(t, "conv-1")
	f.awaitConnections(t, "conv-1", 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"send_message","text":"still here","role":"doctor"}`)))

	frame := readFrame(t, conn)
	assert.Equal(t, "new_message", frame.Type)
}

func TestDisconnectLeavesRoom(t *testing.T) {
	f := newSocketFixture(t)

	conn := f.dial(t, "conv-1")
	f.awaitConnections(t, "conv-1", 1)

	require.NoError(t, conn.Close())
	f.awaitConnections(t, "conv-1", 0)
}
