package rerankhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerankAlignsScoresToInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b", "c"}, req.Documents)

		_ = json.NewEncoder(w).Encode(rerankResponse{
			Model: req.Model,
			Results: []rerankResult{
				{Index: 2, RelevanceScore: 0.9},
				{Index: 0, RelevanceScore: 0.4},
				{Index: 1, RelevanceScore: 0.1},
			},
		})
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL, Model: "reranker-v2"}, srv.Client())
	scores, err := c.Rerank(context.Background(), "q", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4, 0.1, 0.9}, scores)
}

func TestRerankReturnsNilForNoPassages(t *testing.T) {
	c := New(Config{Host: "http://unused.invalid"}, nil)
	scores, err := c.Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Nil(t, scores)
}

func TestRerankPropagatesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL}, srv.Client())
	_, err := c.Rerank(context.Background(), "q", []string{"a"})
	require.Error(t, err)
}
