package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/surajswas/unimail/internal/core"
)

func seedEmails(t *testing.T, s core.TriageStore, userID int64, emails ...*core.StoredEmail) {
	t.Helper()
	for _, email := range emails {
		email.UserID = userID
		require.NoError(t, s.SaveEmail(context.Background(), email))
	}
}

func TestMemoryStorePreferencesRoundTrip(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	prefs, err := s.GetPreferences(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, prefs)

	saved := &core.Preferences{
		UserID:              1,
		Threshold:           0.5,
		EnableNotifications: true,
		Trusted:             "dean@university.edu",
		Blocked:             "spam.com",
	}
	require.NoError(t, s.SavePreferences(ctx, saved))

	prefs, err = s.GetPreferences(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, prefs)
	assert.Equal(t, 0.5, prefs.Threshold)
	assert.Equal(t, "dean@university.edu", prefs.Trusted)

	// Replacing overwrites rather than duplicating.
	saved.Threshold = 0.9
	require.NoError(t, s.SavePreferences(ctx, saved))
	prefs, err = s.GetPreferences(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.9, prefs.Threshold)
}

func TestMemoryStoreRecentEmailsNewestFirst(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	seedEmails(t, s, 1,
		&core.StoredEmail{Sender: "a@x.com", ReceivedAt: base},
		&core.StoredEmail{Sender: "b@x.com", ReceivedAt: base.Add(2 * time.Hour)},
		&core.StoredEmail{Sender: "c@x.com", ReceivedAt: base.Add(time.Hour)},
	)
	seedEmails(t, s, 2,
		&core.StoredEmail{Sender: "other@x.com", ReceivedAt: base},
	)

	emails, err := s.RecentEmails(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "b@x.com", emails[0].Sender)
	assert.Equal(t, "c@x.com", emails[1].Sender)
}

func TestMemoryStoreCountEmailsSince(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	seedEmails(t, s, 1,
		&core.StoredEmail{Sender: "a@x.com", ReceivedAt: base.Add(-time.Hour)},
		&core.StoredEmail{Sender: "b@x.com", ReceivedAt: base},
		&core.StoredEmail{Sender: "c@x.com", ReceivedAt: base.Add(time.Hour)},
	)

	count, err := s.CountEmailsSince(context.Background(), 1, base)
	require.NoError(t, err)
	// The boundary instant itself counts.
	assert.Equal(t, 2, count)
}

func TestMemoryStoreMailboxStats(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	now := time.Now()

	seedEmails(t, s, 1,
		&core.StoredEmail{Sender: "a@x.com", ReceivedAt: now, IsSpam: true, Category: core.CategoryOther},
		&core.StoredEmail{Sender: "b@x.com", ReceivedAt: now, IsImportant: true, Category: core.CategoryAcademic},
		&core.StoredEmail{Sender: "c@x.com", ReceivedAt: now, IsImportant: true, Category: core.CategoryAcademic},
	)

	stats, err := s.MailboxStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEmails)
	assert.Equal(t, 1, stats.SpamCount)
	assert.Equal(t, 2, stats.ImportantCount)
	assert.Equal(t, 2, stats.Categories["Academic"])
	assert.Equal(t, 1, stats.Categories["Other"])
}

func TestMemoryStoreTopSenderDomains(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	now := time.Now()

	seedEmails(t, s, 1,
		&core.StoredEmail{Sender: "a@gmail.com", ReceivedAt: now},
		&core.StoredEmail{Sender: "b@uni.edu", ReceivedAt: now},
		&core.StoredEmail{Sender: "c@gmail.com", ReceivedAt: now},
		&core.StoredEmail{Sender: "d@scam.biz", ReceivedAt: now},
	)

	domains, err := s.TopSenderDomains(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, core.DomainCount{Domain: "gmail.com", Count: 2}, domains[0])
	// uni.edu and scam.biz tie at 1; first seen wins.
	assert.Equal(t, core.DomainCount{Domain: "uni.edu", Count: 1}, domains[1])
}

func TestMemoryStoreAlertLifecycle(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	alert := &core.Alert{UserID: 1, EmailID: 10, Message: "Important Academic email"}
	require.NoError(t, s.SaveAlert(ctx, alert))
	require.NotZero(t, alert.ID)

	unread, err := s.UnreadAlerts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	// Wrong user cannot mark it read.
	assert.ErrorIs(t, s.MarkAlertRead(ctx, 2, alert.ID), ErrNotFound)

	require.NoError(t, s.MarkAlertRead(ctx, 1, alert.ID))
	unread, err = s.UnreadAlerts(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, unread)

	assert.ErrorIs(t, s.MarkAlertRead(ctx, 1, 999), ErrNotFound)
}

func TestMemoryStoreSaveUserAssignsID(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())

	user := &core.User{Username: "suraj", Email: "suraj@example.com"}
	require.NoError(t, s.SaveUser(context.Background(), user))
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.SavePreferences(ctx, &core.Preferences{UserID: 1, Threshold: 0.7}))

	first, err := s.GetPreferences(ctx, 1)
	require.NoError(t, err)
	first.Threshold = 0.1

	second, err := s.GetPreferences(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.7, second.Threshold)
}
