package ollama

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
	return NewLLMService(LLMConfig{BaseURL: server.URL, VisionModel: "llava"})
}

func TestLLMService_Generate(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 300, body.Options.NumPredict)
		_, _ = w.Write([]byte(`{"response":"NEEDS_CONTEXT: NO","done":true}`))
	})

	out, err := svc.Generate(context.Background(), "classify", driven.GenerateOptions{MaxTokens: 300, Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, "NEEDS_CONTEXT: NO", out)
}

func TestLLMService_Chat_Images(t *testing.T) {
	var got chatRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"a slide"},"done":true}`))
	})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{{
		Role: driven.RoleUser, Content: "what?",
		Images: []domain.ImagePayload{{MIMEType: "image/png", Data: "aGk="}},
	}}, driven.ChatOptions{})
	require.NoError(t, err)

	assert.Equal(t, "a slide", out)
	assert.Equal(t, "llava", got.Model)
	assert.Equal(t, []string{"aGk="}, got.Messages[0].Images)
	assert.False(t, got.Stream)
}

func TestLLMService_Stream(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)
		assert.Equal(t, DefaultLLMModel, body.Model)

		for _, c := range []string{"One", " two"} {
			fmt.Fprintf(w, "{\"message\":{\"role\":\"assistant\",\"content\":%q},\"done\":false}\n", c)
		}
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"\"},\"done\":true}\n")
	})

	var fragments []string
	for f, err := range svc.Stream(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "count"}}, driven.ChatOptions{}) {
		require.NoError(t, err)
		fragments = append(fragments, f)
	}
	assert.Equal(t, []string{"One", " two"}, fragments)
}

func TestLLMService_Stream_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "model missing",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"model not found"}`))
			},
			wantErr: "status 404",
		},
		{
			name: "in-band error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "{\"error\":\"out of memory\"}\n")
			},
			wantErr: "out of memory",
		},
		{
			name: "truncated",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "{\"message\":{\"content\":\"par\"},\"done\":false}\n")
			},
			wantErr: "before done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.handler)

			var errs []error
			for _, err := range svc.Stream(context.Background(), nil, driven.ChatOptions{}) {
				if err != nil {
					errs = append(errs, err)
				}
			}
			require.Len(t, errs, 1)
			assert.ErrorContains(t, errs[0], tt.wantErr)
		})
	}
}

func TestLLMService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.ErrorContains(t, svc.Ping(context.Background()), "503")
}
