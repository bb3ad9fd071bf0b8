package notify

import (
	"context"
	"sync"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/model"
	"github.com/hiresignal/scout-cli/pkg/notion"
)

// notesMaxChars keeps Notes under Notion's 2000-char rich_text block limit.
const notesMaxChars = 1900

// NotionTracker upserts admitted leads into a Notion tracker database,
// keyed by the Fingerprint property. The full fingerprint listing is
// loaded once per process and kept current as pages are created.
type NotionTracker struct {
	client notion.Client
	dbID   string

	mu    sync.Mutex
	pages map[string]string // fingerprint -> page ID
}

func NewNotionTracker(client notion.Client, dbID string) *NotionTracker {
	return &NotionTracker{client: client, dbID: dbID}
}

func (n *NotionTracker) Name() string { return "notion" }

func (n *NotionTracker) NotifyLead(ctx context.Context, lead model.Lead) error {
	return n.upsert(ctx, lead)
}

func (n *NotionTracker) SendDigest(ctx context.Context, leads []model.Lead) error {
	var firstErr error
	synced := 0
	for i := range leads {
		if err := n.upsert(ctx, leads[i]); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			zap.L().Warn("notify: notion upsert failed",
				zap.String("lead_id", leads[i].ID),
				zap.Error(err),
			)
			continue
		}
		synced++
	}
	zap.L().Info("notify: notion digest synced",
		zap.Int("synced", synced),
		zap.Int("total", len(leads)),
	)
	return firstErr
}

func (n *NotionTracker) upsert(ctx context.Context, lead model.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pages == nil {
		fps, err := notion.ListFingerprints(ctx, n.client, n.dbID)
		if err != nil {
			return eris.Wrap(err, "notify: list notion fingerprints")
		}
		n.pages = fps
	}

	if pageID, ok := n.pages[lead.ID]; ok {
		_, err := n.client.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{
			Properties: leadUpdateProperties(lead),
		})
		return eris.Wrapf(err, "notify: notion update %s", lead.ID)
	}

	page, err := n.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(n.dbID),
		},
		Properties: leadPageProperties(lead),
	})
	if err != nil {
		return eris.Wrapf(err, "notify: notion create %s", lead.ID)
	}
	n.pages[lead.ID] = string(page.ID)
	return nil
}

// leadPageProperties builds the full property set for a new tracker page.
func leadPageProperties(lead model.Lead) notionapi.Properties {
	props := notionapi.Properties{
		"Name":        notionapi.TitleProperty{Title: richText(lead.Title)},
		"Fingerprint": notionapi.RichTextProperty{RichText: richText(lead.ID)},
		"Company":     notionapi.RichTextProperty{RichText: richText(lead.Company)},
		"URL":         notionapi.URLProperty{URL: lead.Link},
		"Score":       notionapi.NumberProperty{Number: lead.Score},
		"Status":      notionapi.SelectProperty{Select: notionapi.Option{Name: string(lead.Status)}},
	}
	if lead.Location != "" {
		props["Location"] = notionapi.RichTextProperty{RichText: richText(lead.Location)}
	}
	if lead.Category != "" {
		props["Category"] = notionapi.SelectProperty{Select: notionapi.Option{Name: string(lead.Category)}}
	}
	if lead.RemoteType != "" {
		props["Remote"] = notionapi.SelectProperty{Select: notionapi.Option{Name: string(lead.RemoteType)}}
	}
	if notes := lead.NotesJoined(); notes != "" {
		props["Notes"] = notionapi.RichTextProperty{RichText: richText(truncateNotes(notes))}
	}
	return props
}

// leadUpdateProperties refreshes the fields that change after rescoring.
func leadUpdateProperties(lead model.Lead) notionapi.Properties {
	props := notionapi.Properties{
		"Score":  notionapi.NumberProperty{Number: lead.Score},
		"Status": notionapi.SelectProperty{Select: notionapi.Option{Name: string(lead.Status)}},
	}
	if notes := lead.NotesJoined(); notes != "" {
		props["Notes"] = notionapi.RichTextProperty{RichText: richText(truncateNotes(notes))}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: s}}}
}

func truncateNotes(s string) string {
	runes := []rune(s)
	if len(runes) <= notesMaxChars {
		return s
	}
	return string(runes[:notesMaxChars])
}
