// Package export writes stored leads to spreadsheet formats.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/hiresignal/scout-cli/internal/model"
)

// columns is the header row shared by all formats.
var columns = []string{
	"id", "captured", "company", "title", "category", "location",
	"remote", "score", "matched_keywords", "link", "status",
}

// leadRow renders one lead as export cells, in column order.
func leadRow(l *model.Lead) []string {
	captured := ""
	if !l.CreatedAt.IsZero() {
		captured = l.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		l.ID,
		captured,
		l.Company,
		l.Title,
		string(l.Category),
		l.Location,
		string(l.RemoteType),
		strconv.FormatFloat(l.Score, 'f', 2, 64),
		strings.Join(l.MatchedKeywords, ", "),
		l.Link,
		string(l.Status),
	}
}
