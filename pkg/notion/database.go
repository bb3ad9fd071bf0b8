package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll walks every page of a database through Notion's cursor
// pagination. Each follow-up request is issued as soon as its cursor
// is known, so the next fetch is in flight while results are appended.
func QueryAll(ctx context.Context, c Client, dbID string, base *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	type fetched struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}

	fetch := func(cursor notionapi.Cursor) <-chan fetched {
		ch := make(chan fetched, 1)
		go func() {
			req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
			if base != nil {
				req.Filter = base.Filter
				req.Sorts = base.Sorts
				req.PageSize = base.PageSize
			}
			resp, err := c.QueryDatabase(ctx, dbID, req)
			ch <- fetched{resp: resp, err: err}
		}()
		return ch
	}

	var all []notionapi.Page
	pending := fetch("")
	for {
		got := <-pending
		if got.err != nil {
			return nil, eris.Wrap(got.err, "notion: query all")
		}
		all = append(all, got.resp.Results...)
		if !got.resp.HasMore {
			return all, nil
		}
		pending = fetch(got.resp.NextCursor)
	}
}

// ListFingerprints returns fingerprint -> page ID for every page in the
// database. The sink loads this once per run so duplicate checks are a
// map lookup instead of a query round trip.
func ListFingerprints(ctx context.Context, c Client, dbID string) (map[string]string, error) {
	pages, err := QueryAll(ctx, c, dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: list fingerprints")
	}

	fps := make(map[string]string, len(pages))
	for _, p := range pages {
		prop, ok := p.Properties["Fingerprint"]
		if !ok {
			continue
		}
		rtp, ok := prop.(*notionapi.RichTextProperty)
		if !ok {
			continue
		}
		if fp := plainText(rtp.RichText); fp != "" {
			fps[fp] = string(p.ID)
		}
	}
	return fps, nil
}

func plainText(rts []notionapi.RichText) string {
	var s string
	for _, rt := range rts {
		s += rt.PlainText
	}
	return s
}
