// Package identity derives stable fingerprints for job postings so the
// same posting seen across runs or sources collapses to one record.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/hiresignal/scout-cli/internal/model"
)

// Fingerprint returns the hex digest identifying a posting. Company and
// title are case-folded before hashing; the link is hashed as-is since
// URL paths are case-sensitive.
func Fingerprint(company, title, link string) string {
	h := sha256.Sum256([]byte(strings.ToLower(company) + strings.ToLower(title) + link))
	return hex.EncodeToString(h[:])
}

// Assign stamps the lead with its fingerprint ID.
func Assign(l *model.Lead) {
	l.ID = Fingerprint(l.Company, l.Title, l.Link)
}
