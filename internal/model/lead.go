package model

import (
	"strings"
	"time"
)

// Category buckets a lead by role family, derived from the title.
type Category string

const (
	CategoryData      Category = "data"
	CategoryBackend   Category = "backend"
	CategoryFrontend  Category = "frontend"
	CategoryFullstack Category = "fullstack"
	CategoryMLAI      Category = "ml-ai"
	CategoryDevOpsSRE Category = "devops-sre"
	CategorySecurity  Category = "security"
	CategoryOtherTech Category = "other-tech"
)

// RemoteType describes the work arrangement advertised by a posting.
// Postings with no signal are classified onsite rather than given an
// "unsure" bucket.
type RemoteType string

const (
	RemoteTypeRemote RemoteType = "remote"
	RemoteTypeHybrid RemoteType = "hybrid"
	RemoteTypeOnsite RemoteType = "onsite"
)

// LeadStatus tracks what has happened to an admitted lead.
type LeadStatus string

const (
	LeadStatusNew      LeadStatus = "new"
	LeadStatusAlerted  LeadStatus = "alerted"
	LeadStatusDigested LeadStatus = "digested"
)

// DropReason records which pipeline stage rejected a lead.
type DropReason string

const (
	DropDuplicate DropReason = "duplicate"
	DropGeo       DropReason = "geo"
	DropPrefilter DropReason = "prefilter"
	DropPostScore DropReason = "postscore"
)

// Lead is a single job posting moving through the intake pipeline.
type Lead struct {
	ID              string     `json:"id"`
	Source          string     `json:"source"`
	Company         string     `json:"company"`
	Title           string     `json:"title"`
	Link            string     `json:"link"`
	ApplyLink       string     `json:"apply_link,omitempty"`
	Snippet         string     `json:"snippet"`
	FullContent     string     `json:"full_content,omitempty"`
	Keywords        []string   `json:"keywords,omitempty"`
	MatchedKeywords []string   `json:"matched_keywords,omitempty"`
	Location        string     `json:"location"`
	City            string     `json:"city,omitempty"`
	State           string     `json:"state,omitempty"`
	Country         string     `json:"country"`
	RemoteType      RemoteType `json:"remote_type"`
	Category        Category   `json:"category,omitempty"`
	Score           float64    `json:"score"`
	Notes           []string   `json:"notes,omitempty"`
	Seniority       string     `json:"seniority,omitempty"`
	EmploymentType  string     `json:"employment_type,omitempty"`
	SalaryMin       float64    `json:"salary_min,omitempty"`
	SalaryMax       float64    `json:"salary_max,omitempty"`
	SalaryCurrency  string     `json:"salary_currency,omitempty"`
	Status          LeadStatus `json:"status"`
	DropReason      DropReason `json:"drop_reason,omitempty"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	CrawledAt       *time.Time `json:"crawled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AddNote appends an annotation to the lead's audit trail.
// Earlier notes are never rewritten.
func (l *Lead) AddNote(note string) {
	if note == "" {
		return
	}
	l.Notes = append(l.Notes, note)
}

// NotesJoined flattens the audit trail for storage and display.
func (l *Lead) NotesJoined() string {
	return strings.Join(l.Notes, "; ")
}

// Dropped reports whether any pipeline stage has rejected the lead.
func (l *Lead) Dropped() bool {
	return l.DropReason != ""
}
