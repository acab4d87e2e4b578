package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is a minimal in-memory TriageStore for service tests.
type fakeStore struct {
	prefs  map[int64]*Preferences
	emails []*StoredEmail
	alerts []*Alert
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{prefs: make(map[int64]*Preferences)}
}

func (s *fakeStore) SaveUser(ctx context.Context, user *User) error { return nil }

func (s *fakeStore) GetPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	return s.prefs[userID], nil
}

func (s *fakeStore) SavePreferences(ctx context.Context, prefs *Preferences) error {
	s.prefs[prefs.UserID] = prefs
	return nil
}

func (s *fakeStore) SaveEmail(ctx context.Context, email *StoredEmail) error {
	s.nextID++
	email.ID = s.nextID
	s.emails = append(s.emails, email)
	return nil
}

func (s *fakeStore) RecentEmails(ctx context.Context, userID int64, limit int) ([]*StoredEmail, error) {
	return s.emails, nil
}

func (s *fakeStore) CountEmailsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return len(s.emails), nil
}

func (s *fakeStore) MailboxStats(ctx context.Context, userID int64) (*MailboxStats, error) {
	return &MailboxStats{}, nil
}

func (s *fakeStore) TopSenderDomains(ctx context.Context, userID int64, limit int) ([]DomainCount, error) {
	return nil, nil
}

func (s *fakeStore) SaveAlert(ctx context.Context, alert *Alert) error {
	s.nextID++
	alert.ID = s.nextID
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *fakeStore) UnreadAlerts(ctx context.Context, userID int64) ([]*Alert, error) {
	return s.alerts, nil
}

func (s *fakeStore) MarkAlertRead(ctx context.Context, userID, alertID int64) error { return nil }

func newTestService(store TriageStore) *TriageService {
	analyzer := newTestAnalyzer(nil)
	return NewTriageService(analyzer, store, zap.NewNop())
}

func TestTriagePersistsEmailAndRaisesAlert(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	result, err := service.Triage(context.Background(), 1, &Email{
		Sender:  "dean@university.edu",
		Subject: "Important Academic Deadline",
		Body:    "Course registration closes Friday. Check the university portal for more information.",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ProcessingID)
	require.Len(t, store.emails, 1)
	stored := store.emails[0]
	assert.Equal(t, int64(1), stored.UserID)
	assert.True(t, stored.IsImportant)
	assert.False(t, stored.ReceivedAt.IsZero())

	require.NotNil(t, result.Alert)
	require.Len(t, store.alerts, 1)
	assert.Equal(t, stored.ID, result.Alert.EmailID)
	assert.Contains(t, result.Alert.Message, "dean@university.edu")
}

func TestTriageNoAlertForUnimportantEmail(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	result, err := service.Triage(context.Background(), 1, &Email{
		Sender:  "friend@gmail.com",
		Subject: "Weekend plans?",
		Body:    "Hey, dinner this weekend?",
	})
	require.NoError(t, err)

	assert.False(t, result.Verdict.IsImportant)
	assert.Nil(t, result.Alert)
	assert.Empty(t, store.alerts)
	assert.Len(t, store.emails, 1)
}

func TestTriageRespectsDisabledNotifications(t *testing.T) {
	store := newFakeStore()
	store.prefs[1] = &Preferences{
		UserID:              1,
		Threshold:           DefaultThreshold,
		EnableNotifications: false,
	}
	service := newTestService(store)

	result, err := service.Triage(context.Background(), 1, &Email{
		Sender:  "dean@university.edu",
		Subject: "Important Academic Deadline",
		Body:    "Course registration closes Friday. Check the university portal for more information.",
	})
	require.NoError(t, err)

	assert.True(t, result.Verdict.IsImportant)
	assert.Nil(t, result.Alert)
	assert.Empty(t, store.alerts)
}

func TestTriageAppliesStoredPolicy(t *testing.T) {
	store := newFakeStore()
	store.prefs[1] = &Preferences{
		UserID:              1,
		Threshold:           DefaultThreshold,
		EnableNotifications: true,
		Blocked:             "gmail.com",
	}
	service := newTestService(store)

	result, err := service.Triage(context.Background(), 1, &Email{
		Sender:  "friend@gmail.com",
		Subject: "Weekend plans?",
		Body:    "Hey, dinner this weekend?",
	})
	require.NoError(t, err)

	assert.True(t, result.Verdict.IsSpam)
	assert.Nil(t, result.Alert)
}

func TestPolicyForDefaultsWhenUnset(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	policy, prefs, err := service.PolicyFor(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, DefaultThreshold, policy.Threshold)
	assert.Empty(t, policy.TrustedSenders)
	assert.Empty(t, policy.BlockedSenders)
	assert.True(t, prefs.EnableNotifications)
	assert.Equal(t, int64(42), prefs.UserID)
}

func TestSplitSenderList(t *testing.T) {
	tests := []struct {
		raw      string
		expected []string
	}{
		{"", nil},
		{"a@b.com", []string{"a@b.com"}},
		{" a@b.com , c@d.com ,, ", []string{"a@b.com", "c@d.com"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SplitSenderList(tt.raw), "raw %q", tt.raw)
	}
}
