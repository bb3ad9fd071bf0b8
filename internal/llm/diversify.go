package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MaxQueries caps how many diversified queries a single request yields,
// regardless of how many the model returns.
const MaxQueries = 5

const queryMarker = "QUERY:"

const diversifyPrompt = `You help a job-search pipeline surface postings that plain keyword search misses.
Given these role keywords: %s
Write %d alternative search queries using creative hiring signals such as "stealth mode", "founding engineer", "we're hiring", or "join our team".
Respond with a JSON array of strings and nothing else.
If you cannot produce JSON, list one query per line prefixed with QUERY:`

// Diversifier generates alternative search queries for a keyword set.
type Diversifier struct {
	gen Generator
}

// NewDiversifier creates a query diversifier.
func NewDiversifier(gen Generator) *Diversifier {
	return &Diversifier{gen: gen}
}

// Diversify returns up to MaxQueries alternative search queries for the
// given role keywords. Returns nil on refusal or when nothing parseable
// comes back; the caller's stock queries still run either way.
func (d *Diversifier) Diversify(ctx context.Context, keywords []string) []string {
	prompt := fmt.Sprintf(diversifyPrompt, strings.Join(keywords, ", "), MaxQueries)

	text, err := d.gen.Generate(ctx, prompt)
	if err != nil {
		if IsRefusal(err) {
			zap.L().Info("llm: query diversification refused")
		} else {
			zap.L().Warn("llm: query diversification failed", zap.Error(err))
		}
		return nil
	}

	queries := ParseQueries(text)
	if len(queries) == 0 {
		zap.L().Warn("llm: no queries parsed from diversification response",
			zap.String("raw", truncate(text, 200)),
		)
	}
	return queries
}

// ParseQueries extracts a query list from text: first as a JSON array
// located anywhere in the response, then by splitting lines on the
// QUERY: marker. The result is truncated to MaxQueries.
func ParseQueries(text string) []string {
	if arr := parseJSONArray(text); len(arr) > 0 {
		return truncateQueries(arr)
	}

	var queries []string
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, queryMarker)
		if idx < 0 {
			continue
		}
		if q := strings.TrimSpace(line[idx+len(queryMarker):]); q != "" {
			queries = append(queries, q)
		}
	}
	return truncateQueries(queries)
}

// parseJSONArray finds the outermost [...] in text and decodes it.
// Models often wrap the array in markdown fences or commentary.
func parseJSONArray(text string) []string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &arr); err != nil {
		return nil
	}

	var out []string
	for _, q := range arr {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func truncateQueries(qs []string) []string {
	if len(qs) > MaxQueries {
		return qs[:MaxQueries]
	}
	return qs
}
