package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hiresignal/scout-cli/internal/model"
)

// maxContentChars is Discord's cap on a message's content field.
const maxContentChars = 2000

// Webhook posts markdown messages to a Discord-compatible webhook URL.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) NotifyLead(ctx context.Context, lead model.Lead) error {
	return w.post(ctx, formatLeadMessage(lead))
}

func (w *Webhook) SendDigest(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	for _, msg := range digestChunks(leads) {
		if err := w.post(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func formatLeadMessage(lead model.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 **New High Match: %d%%**\n", scorePercent(lead.Score))
	fmt.Fprintf(&b, "**Role:** %s\n", lead.Title)
	fmt.Fprintf(&b, "**Company:** %s\n", lead.Company)
	fmt.Fprintf(&b, "**Location:** %s\n", lead.Location)
	fmt.Fprintf(&b, "**Link:** [Apply Here](%s)\n", lead.Link)
	fmt.Fprintf(&b, "**Why:** %s", strings.Join(lead.MatchedKeywords, ", "))
	return b.String()
}

// digestChunks renders the ranked digest list, splitting into multiple
// messages whenever the next line would push past the content cap.
func digestChunks(leads []model.Lead) []string {
	var chunks []string
	var b strings.Builder
	fmt.Fprintf(&b, "**Job Digest: %d New Tech Roles**\n", len(leads))

	for i, lead := range leads {
		line := fmt.Sprintf("%d. [%s](%s) at %s | %d%%\n",
			i+1, lead.Title, lead.Link, lead.Company, scorePercent(lead.Score))
		if b.Len()+len(line) > maxContentChars {
			chunks = append(chunks, strings.TrimRight(b.String(), "\n"))
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(b.String(), "\n"))
	}
	return chunks
}

func (w *Webhook) post(ctx context.Context, content string) error {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return eris.Wrap(err, "notify: marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
