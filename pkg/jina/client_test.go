package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_ExtractsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/https://jobs.example.com/platform-eng", r.URL.Path)
		assert.Equal(t, "Bearer jk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": 200,
			"data": {
				"title": "Platform Engineer at Example",
				"url": "https://jobs.example.com/platform-eng",
				"content": "# Platform Engineer\nKubernetes and Go, on-site in Austin.",
				"usage": {"tokens": 96}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("jk-test", WithBaseURL(srv.URL))
	resp, err := c.Read(context.Background(), "https://jobs.example.com/platform-eng")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "Platform Engineer at Example", resp.Data.Title)
	assert.Contains(t, resp.Data.Content, "Austin")
	assert.Equal(t, 96, resp.Data.Usage.Tokens)
}

func TestRead_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"code":200,"data":{"title":"t","url":"u","content":"second try","usage":{"tokens":4}}}`))
	}))
	defer srv.Close()

	c := NewClient("jk-test", WithBaseURL(srv.URL))
	resp, err := c.Read(context.Background(), "https://example.com/posting")
	require.NoError(t, err)
	assert.Equal(t, "second try", resp.Data.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRead_PermanentStatusFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"unknown url"}`))
	}))
	defer srv.Close()

	c := NewClient("jk-test", WithBaseURL(srv.URL))
	_, err := c.Read(context.Background(), "https://example.com/removed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load(), "only 429 and 5xx get a second attempt")
}

func TestSearch_DecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hiring+golang+engineer+remote", r.URL.EscapedPath())
		assert.Equal(t, "Bearer jk-test", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Return-Format"), "search results are already extracted")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": 200,
			"data": [
				{"title": "Example is hiring Go engineers", "url": "https://linkedin.com/posts/11", "content": "We are growing the platform team.", "description": "LinkedIn post"},
				{"title": "Go engineer wanted", "url": "https://news.example.com/3", "description": "Job board listing"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("jk-test", WithSearchBaseURL(srv.URL))
	resp, err := c.Search(context.Background(), "hiring golang engineer remote")
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Example is hiring Go engineers", resp.Data[0].Title)
	assert.Equal(t, "We are growing the platform team.", resp.Data[0].Content)
	assert.Equal(t, "Job board listing", resp.Data[1].Description)
}

func TestSearch_NoResultsIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"no results"}`))
	}))
	defer srv.Close()

	c := NewClient("jk-test", WithSearchBaseURL(srv.URL))
	resp, err := c.Search(context.Background(), "qzxv nonsense")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Empty(t, resp.Data)
}
