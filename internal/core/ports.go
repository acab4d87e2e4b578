package core

import (
	"context"
	"time"
)

// ProfileSource supplies the current profile snapshot to the analyzer.
// Implementations must publish rebuilt profiles atomically so a scoring
// call never observes a half-built set.
type ProfileSource interface {
	// Profiles returns the current immutable profile snapshot.
	Profiles() *Profiles
}

// TriageStore defines the interface for persisting users, preferences,
// triaged emails and alerts
type TriageStore interface {
	// SaveUser stores a user, assigning its ID
	SaveUser(ctx context.Context, user *User) error

	// GetPreferences returns the stored preferences for a user, or nil
	// when the user has never saved any
	GetPreferences(ctx context.Context, userID int64) (*Preferences, error)

	// SavePreferences inserts or replaces a user's preferences
	SavePreferences(ctx context.Context, prefs *Preferences) error

	// SaveEmail stores a triaged email, assigning its ID
	SaveEmail(ctx context.Context, email *StoredEmail) error

	// RecentEmails returns up to limit emails for a user, newest first
	RecentEmails(ctx context.Context, userID int64, limit int) ([]*StoredEmail, error)

	// CountEmailsSince counts a user's emails received at or after since
	CountEmailsSince(ctx context.Context, userID int64, since time.Time) (int, error)

	// MailboxStats returns aggregate counts for a user's mailbox
	MailboxStats(ctx context.Context, userID int64) (*MailboxStats, error)

	// TopSenderDomains returns the most frequent sender domains for a user
	TopSenderDomains(ctx context.Context, userID int64, limit int) ([]DomainCount, error)

	// SaveAlert stores an alert, assigning its ID
	SaveAlert(ctx context.Context, alert *Alert) error

	// UnreadAlerts returns a user's unread alerts, newest first
	UnreadAlerts(ctx context.Context, userID int64) ([]*Alert, error)

	// MarkAlertRead marks one of the user's alerts as read
	MarkAlertRead(ctx context.Context, userID, alertID int64) error
}

// MailSource defines the interface for a remote mailbox the triage
// service can import from
type MailSource interface {
	// ListMessages returns metadata for up to max recent messages
	ListMessages(ctx context.Context, max int64, query string) ([]MessageMeta, error)

	// GetMessage returns the full content of one message
	GetMessage(ctx context.Context, id string) (*Email, error)
}
