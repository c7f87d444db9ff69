package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/stretchr/testify/require"

	"github.com/wealthlens/ragpipe/internal/domain"
)

func TestChatReturnsConcatenatedTextBlocks(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		resp := sdk.Message{
			ID:         "msg_1",
			Type:       constant.Message("message"),
			Role:       constant.Assistant("assistant"),
			Model:      sdk.ModelClaude3_7SonnetLatest,
			StopReason: sdk.StopReasonEndTurn,
			Content: []sdk.ContentBlockUnion{
				{Type: "text", Text: "rel"},
				{Type: "text", Text: "evant"},
			},
		}
		b, _ := json.Marshal(resp)
		_, _ = w.Write(b)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{APIKey: "k", Model: "m", BaseURL: srv.URL}, srv.Client())
	out, err := client.Chat(context.Background(), "grade this passage", domain.ChatOptions{})
	require.NoError(t, err)
	require.Equal(t, "relevant", out)
	require.Equal(t, "/v1/messages", gotPath)
}

func TestChatPropagatesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{APIKey: "k", BaseURL: srv.URL}, srv.Client())
	_, err := client.Chat(context.Background(), "hello", domain.ChatOptions{})
	require.Error(t, err)
}

func TestRerankIsNotSupported(t *testing.T) {
	client := New(Config{APIKey: "k"}, nil)
	_, err := client.Rerank(context.Background(), "q", []string{"a", "b"})
	require.Error(t, err)
}
