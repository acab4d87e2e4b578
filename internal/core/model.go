package core

import (
	"strings"
	"time"
)

// Category is the topical bucket assigned to an analyzed email.
type Category string

const (
	CategoryAcademic       Category = "Academic"
	CategoryAdministrative Category = "Administrative"
	CategoryEvent          Category = "Event"
	CategoryDeadline       Category = "Deadline"
	CategoryPersonal       Category = "Personal"
	CategoryOther          Category = "Other"
)

// DefaultThreshold is the importance threshold applied when no user
// policy is supplied.
const DefaultThreshold = 0.7

// Email represents an email message to be triaged
type Email struct {
	Sender     string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Verdict is the result of analyzing a single email. A fresh value is
// produced for every call and is never mutated after return.
type Verdict struct {
	IsSpam               bool
	IsImportant          bool
	IsUniversityNotice   bool
	Category             Category
	PriorityScore        float64
	SpamIndicators       []string
	ImportanceIndicators []string
}

// ScoringPolicy carries the per-user calibration applied during analysis.
// Sender checks are case-insensitive substring matches.
type ScoringPolicy struct {
	TrustedSenders []string
	BlockedSenders []string
	Threshold      float64
}

// Profiles holds the keyword and domain sets mined from the training
// corpus. All entries are lowercase. Empty sets mean "untrained": the
// keyword and domain rules simply never fire.
type Profiles struct {
	SpamKeywords       map[string]struct{}
	UniversityKeywords map[string]struct{}
	SpamDomains        map[string]struct{}
}

// EmptyProfiles returns a profile set with no trained data.
func EmptyProfiles() *Profiles {
	return &Profiles{
		SpamKeywords:       map[string]struct{}{},
		UniversityKeywords: map[string]struct{}{},
		SpamDomains:        map[string]struct{}{},
	}
}

// User is an account owning triaged mail
type User struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt time.Time
}

// Preferences is the stored per-user triage policy. Trusted and Blocked
// are comma-separated free text, parsed on demand.
type Preferences struct {
	UserID              int64
	Threshold           float64
	EnableNotifications bool
	Trusted             string
	Blocked             string
}

// DefaultPreferences returns the preferences assigned to a user that has
// never saved any.
func DefaultPreferences(userID int64) *Preferences {
	return &Preferences{
		UserID:              userID,
		Threshold:           DefaultThreshold,
		EnableNotifications: true,
	}
}

// ScoringPolicy converts stored preferences into the policy applied
// during analysis. The trusted and blocked lists are comma-separated
// free text; entries are trimmed and blanks dropped.
func (p *Preferences) ScoringPolicy() *ScoringPolicy {
	return &ScoringPolicy{
		TrustedSenders: SplitSenderList(p.Trusted),
		BlockedSenders: SplitSenderList(p.Blocked),
		Threshold:      p.Threshold,
	}
}

// SplitSenderList parses a comma-separated sender list, trimming
// whitespace and dropping empty entries.
func SplitSenderList(raw string) []string {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// StoredEmail is an email persisted together with its verdict fields.
type StoredEmail struct {
	ID            int64
	UserID        int64
	Sender        string
	Subject       string
	Body          string
	ReceivedAt    time.Time
	IsSpam        bool
	IsImportant   bool
	Category      Category
	PriorityScore float64
}

// Alert notifies a user about a high-priority email.
type Alert struct {
	ID        int64
	UserID    int64
	EmailID   int64
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// TriageResult bundles everything produced by one pass through the
// triage service.
type TriageResult struct {
	ProcessingID string
	Email        *StoredEmail
	Verdict      *Verdict
	Alert        *Alert
}

// MailboxStats summarizes a user's triaged mail for the dashboard and
// report surfaces.
type MailboxStats struct {
	TotalEmails    int
	SpamCount      int
	ImportantCount int
	Categories     map[string]int
}

// DomainCount is a sender domain with the number of emails seen from it.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// MessageMeta is the listing shape supplied by a remote mailbox.
type MessageMeta struct {
	ID         string
	Sender     string
	Subject    string
	ReceivedAt time.Time
	Snippet    string
}
