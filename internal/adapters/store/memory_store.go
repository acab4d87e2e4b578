package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/surajswas/unimail/internal/core"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// MemoryStore is an in-memory implementation of the TriageStore
// interface, used for tests and throwaway setups.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]*core.User
	prefs  map[int64]*core.Preferences
	emails []*core.StoredEmail
	alerts []*core.Alert
	nextID int64
	logger *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		users:  make(map[int64]*core.User),
		prefs:  make(map[int64]*core.Preferences),
		logger: logger,
		nextID: 1,
	}
}

func (s *MemoryStore) nextIdentity() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// SaveUser stores a user, assigning its ID
func (s *MemoryStore) SaveUser(_ context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.ID = s.nextIdentity()
	s.users[user.ID] = user
	return nil
}

// GetPreferences returns a user's stored preferences, or nil when none exist
func (s *MemoryStore) GetPreferences(_ context.Context, userID int64) (*core.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, ok := s.prefs[userID]
	if !ok {
		return nil, nil
	}
	copied := *prefs
	return &copied, nil
}

// SavePreferences inserts or replaces a user's preferences
func (s *MemoryStore) SavePreferences(_ context.Context, prefs *core.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *prefs
	s.prefs[prefs.UserID] = &copied
	return nil
}

// SaveEmail stores a triaged email, assigning its ID
func (s *MemoryStore) SaveEmail(_ context.Context, email *core.StoredEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email.ID = s.nextIdentity()
	copied := *email
	s.emails = append(s.emails, &copied)
	return nil
}

// RecentEmails returns up to limit emails for a user, newest first
func (s *MemoryStore) RecentEmails(_ context.Context, userID int64, limit int) ([]*core.StoredEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*core.StoredEmail
	for _, email := range s.emails {
		if email.UserID == userID {
			copied := *email
			matched = append(matched, &copied)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ReceivedAt.After(matched[j].ReceivedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountEmailsSince counts a user's emails received at or after since
func (s *MemoryStore) CountEmailsSince(_ context.Context, userID int64, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, email := range s.emails {
		if email.UserID == userID && !email.ReceivedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// MailboxStats returns aggregate counts for a user's mailbox
func (s *MemoryStore) MailboxStats(_ context.Context, userID int64) (*core.MailboxStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &core.MailboxStats{Categories: make(map[string]int)}
	for _, email := range s.emails {
		if email.UserID != userID {
			continue
		}
		stats.TotalEmails++
		if email.IsSpam {
			stats.SpamCount++
		}
		if email.IsImportant {
			stats.ImportantCount++
		}
		stats.Categories[string(email.Category)]++
	}
	return stats, nil
}

// TopSenderDomains returns the most frequent sender domains for a user
func (s *MemoryStore) TopSenderDomains(_ context.Context, userID int64, limit int) ([]core.DomainCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	var order []string
	for _, email := range s.emails {
		if email.UserID != userID {
			continue
		}
		domain := core.SenderDomain(email.Sender)
		if _, seen := counts[domain]; !seen {
			order = append(order, domain)
		}
		counts[domain]++
	}
	return topDomains(counts, order, limit), nil
}

// SaveAlert stores an alert, assigning its ID
func (s *MemoryStore) SaveAlert(_ context.Context, alert *core.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	alert.ID = s.nextIdentity()
	copied := *alert
	s.alerts = append(s.alerts, &copied)
	return nil
}

// UnreadAlerts returns a user's unread alerts, newest first
func (s *MemoryStore) UnreadAlerts(_ context.Context, userID int64) ([]*core.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*core.Alert
	for _, alert := range s.alerts {
		if alert.UserID == userID && !alert.IsRead {
			copied := *alert
			matched = append(matched, &copied)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

// MarkAlertRead marks one of the user's alerts as read
func (s *MemoryStore) MarkAlertRead(_ context.Context, userID, alertID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alert := range s.alerts {
		if alert.ID == alertID && alert.UserID == userID {
			alert.IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

// topDomains ranks domain counts descending, first-seen order breaking
// ties, and truncates to limit.
func topDomains(counts map[string]int, order []string, limit int) []core.DomainCount {
	ranked := make([]string, len(order))
	copy(ranked, order)
	position := make(map[string]int, len(order))
	for i, domain := range order {
		position[domain] = i
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return position[ranked[i]] < position[ranked[j]]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]core.DomainCount, 0, len(ranked))
	for _, domain := range ranked {
		out = append(out, core.DomainCount{Domain: domain, Count: counts[domain]})
	}
	return out
}
