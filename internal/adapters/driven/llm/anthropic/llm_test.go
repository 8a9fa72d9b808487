package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{APIKey: "sk-ant", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestLLMService_Chat_LiftsSystemAndOrdersImages(t *testing.T) {
	var got messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"It is "},{"type":"text","text":"a board."}]}`))
	})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "You are Canvas."},
		{Role: driven.RoleUser, Content: "describe", Images: []domain.ImagePayload{{MIMEType: "image/jpeg", Data: "aGk="}}},
	}, driven.ChatOptions{Temperature: 0.3})
	require.NoError(t, err)

	assert.Equal(t, "It is a board.", out)
	assert.Equal(t, "You are Canvas.", got.System)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	blocks := got.Messages[0].Content
	require.Len(t, blocks, 2)
	assert.Equal(t, "image", blocks[0].Type)
	assert.Equal(t, &imageSource{Type: "base64", MediaType: "image/jpeg", Data: "aGk="}, blocks[0].Source)
	assert.Equal(t, "describe", blocks[1].Text)
}

func TestLLMService_Chat_Error(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad image"}}`))
	})

	_, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{})
	assert.ErrorContains(t, err, "bad image")
}

func TestLLMService_Stream(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var body messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\"}\n\n")
		for _, text := range []string{"Hi", " there"} {
			fmt.Fprintf(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":%q}}\n\n", text)
		}
		fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
	})

	var fragments []string
	for f, err := range svc.Stream(context.Background(), nil, driven.ChatOptions{}) {
		require.NoError(t, err)
		fragments = append(fragments, f)
	}
	assert.Equal(t, []string{"Hi", " there"}, fragments)
}

func TestLLMService_Stream_ErrorEvent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	})

	var errs []error
	for _, err := range svc.Stream(context.Background(), nil, driven.ChatOptions{}) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Overloaded")
}
