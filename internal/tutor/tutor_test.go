package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeServer(t *testing.T, reply string, captured *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "test-model",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Chat(t *testing.T) {
	var got chatRequest
	srv := fakeServer(t, "  Try isolating x first.  ", &got)
	c := New(srv.URL+"/v1", "test-key", "test-model", testLogger())

	resp, err := c.Chat(context.Background(), Request{
		QuestionContext: "If 2x + 3 = 11, what is x?",
		ChatHistory: []Message{
			{Role: RoleStudent, Content: "I am stuck"},
			{Role: RoleTutor, Content: "What operation undoes +3?"},
		},
		Flags: Flags{TipRequested: true},
	})
	require.NoError(t, err)

	assert.Equal(t, "Try isolating x first.", resp.Message)
	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 8, TotalTokens: 20}, resp.UsageMetrics)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "2x + 3 = 11")
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "user", got.Messages[3].Role)
	assert.Contains(t, got.Messages[3].Content, "hint")
}

func TestClient_ChatEmptyRequest(t *testing.T) {
	c := New("http://127.0.0.1:0", "test-key", "test-model", testLogger())
	_, err := c.Chat(context.Background(), Request{QuestionContext: "   "})
	assert.ErrorIs(t, err, ErrEmptyRequest)
}

func TestClient_ChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/v1", "test-key", "test-model", testLogger())
	_, err := c.Chat(context.Background(), Request{QuestionContext: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tutor API call")
}

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name     string
		flags    Flags
		contains string
		excludes string
	}{
		{"plain", Flags{}, "latest message", "hint"},
		{"tip", Flags{TipRequested: true}, "Do NOT reveal", "recap"},
		{"summarise", Flags{SummariseRequested: true}, "recap", "Do NOT reveal"},
		{"both prefers summarise", Flags{TipRequested: true, SummariseRequested: true}, "recap", "Do NOT reveal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildSystemPrompt(Request{QuestionContext: "Q", Flags: tt.flags})
			assert.Contains(t, prompt, "QUESTION CONTEXT:\nQ")
			assert.Contains(t, prompt, tt.contains)
			assert.NotContains(t, prompt, tt.excludes)
		})
	}
}

func TestModeInstruction(t *testing.T) {
	assert.Empty(t, modeInstruction(Flags{}))
	assert.Contains(t, modeInstruction(Flags{TipRequested: true}), "hint")
	assert.Contains(t, modeInstruction(Flags{SummariseRequested: true}), "Summarise")
	assert.Contains(t, modeInstruction(Flags{TipRequested: true, SummariseRequested: true}), "Summarise")
}

func TestClient_LogsThroughInjectedLogger(t *testing.T) {
	srv := fakeServer(t, "Recap.", nil)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(srv.URL+"/v1", "test-key", "test-model", logger)

	_, err := c.Chat(context.Background(), Request{QuestionContext: "x", Flags: Flags{SummariseRequested: true}})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Tutor response")
	assert.Contains(t, buf.String(), "component=tutor")
	assert.Contains(t, buf.String(), "total_tokens=20")
}
