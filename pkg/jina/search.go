package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// SearchResponse is the search payload.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult is one web hit with content pre-extracted by Jina.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

func (c *apiClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	status, body, err := c.fetch(ctx, c.searchURL+"/"+url.QueryEscape(query), false)
	if err != nil {
		return nil, eris.Wrap(err, "jina: search")
	}

	// 422 means no results for the query, not a failure.
	if status == http.StatusUnprocessableEntity {
		return &SearchResponse{Code: http.StatusUnprocessableEntity}, nil
	}
	if status != http.StatusOK {
		return nil, eris.Errorf("jina: search status %d: %s", status, body)
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "jina: decode search response")
	}
	return &out, nil
}
