package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/model"
)

// maxContentChars is the truncation limit for posting content sent to
// the provider.
const maxContentChars = 16000 // ~4K tokens

// scorePrompt asks for a verdict in a strict line format so the response
// survives models that wrap output in markdown or chatter.
const scorePrompt = `You are screening job postings for a US-based software engineer's job search.
Rate this posting from 0.0 (irrelevant, foreign, or stale) to 1.0 (excellent match for a US tech role).
Consider role and stack fit, US location or true remote eligibility, company legitimacy, and whether the posting looks current.

Respond in exactly this format and nothing else:
SCORE: <number between 0.0 and 1.0>
REASON: <one sentence>`

var (
	scoreRe  = regexp.MustCompile(`(?i)\bSCORE:\s*([0-9]+(?:\.[0-9]+)?)`)
	reasonRe = regexp.MustCompile(`(?i)\bREASON:\s*(.+)`)
)

// Verdict is a parsed deep-scoring response.
type Verdict struct {
	Score  float64
	Reason string
}

// ParseVerdict locates the SCORE/REASON payload anywhere inside text,
// tolerating surrounding formatting noise. ok is false when no score
// line is present; callers must then leave the lead untouched.
func ParseVerdict(text string) (Verdict, bool) {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return Verdict{}, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Verdict{}, false
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	v := Verdict{Score: score}
	if rm := reasonRe.FindStringSubmatch(text); rm != nil {
		v.Reason = strings.TrimSpace(rm[1])
	}
	return v, true
}

// ResponseCache stores completions keyed by prompt hash so re-scoring
// identical content skips the provider round trip.
type ResponseCache interface {
	GetCachedResponse(ctx context.Context, key string) (string, bool, error)
	SetCachedResponse(ctx context.Context, key, text string) error
}

// Scorer refines lead scores with a full-content provider judgment.
type Scorer struct {
	gen   Generator
	cache ResponseCache
}

// NewScorer creates a deep-relevance scorer. cache may be nil.
func NewScorer(gen Generator, cache ResponseCache) *Scorer {
	return &Scorer{gen: gen, cache: cache}
}

// ScoreLead asks for a deep relevance verdict and applies it to the
// lead. Returns true when a verdict was applied. On refusal, error, or
// unparseable output the lead's score and notes are left exactly as
// they were: deep scoring refines prior judgments, never erases them.
func (s *Scorer) ScoreLead(ctx context.Context, l *model.Lead) bool {
	prompt := s.buildPrompt(l)
	key := promptKey(prompt)

	if s.cache != nil {
		text, ok, err := s.cache.GetCachedResponse(ctx, key)
		if err != nil {
			zap.L().Warn("llm: response cache read failed", zap.Error(err))
		} else if ok {
			if v, parsed := ParseVerdict(text); parsed {
				apply(l, v)
				return true
			}
			// Cached garbage: fall through to a fresh call.
		}
	}

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		if IsRefusal(err) {
			zap.L().Info("llm: deep scoring refused", zap.String("lead_id", l.ID))
		} else {
			zap.L().Warn("llm: deep scoring failed",
				zap.String("lead_id", l.ID),
				zap.Error(err),
			)
		}
		return false
	}

	v, parsed := ParseVerdict(text)
	if !parsed {
		zap.L().Warn("llm: unparseable scoring response",
			zap.String("lead_id", l.ID),
			zap.String("raw", truncate(text, 200)),
		)
		return false
	}

	if s.cache != nil {
		if err := s.cache.SetCachedResponse(ctx, key, text); err != nil {
			zap.L().Warn("llm: response cache write failed", zap.Error(err))
		}
	}

	apply(l, v)
	return true
}

func apply(l *model.Lead, v Verdict) {
	l.Score = v.Score
	note := "LLM: " + v.Reason
	if v.Reason == "" {
		note = fmt.Sprintf("LLM: score %.2f", v.Score)
	}
	l.Notes = []string{note}
}

func (s *Scorer) buildPrompt(l *model.Lead) string {
	content := l.FullContent
	if content == "" {
		content = l.Snippet
	}
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	var b strings.Builder
	b.WriteString(scorePrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Title: %s\nCompany: %s\nLocation: %s\n", l.Title, l.Company, l.Location)
	if len(l.MatchedKeywords) > 0 {
		fmt.Fprintf(&b, "Matched keywords: %s\n", strings.Join(l.MatchedKeywords, ", "))
	}
	b.WriteString("\nPosting content:\n")
	b.WriteString(content)
	return b.String()
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
