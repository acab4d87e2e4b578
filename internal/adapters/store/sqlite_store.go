package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/surajswas/unimail/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the TriageStore interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			user_id INTEGER PRIMARY KEY,
			threshold REAL,
			enable_notifications BOOLEAN,
			trusted TEXT,
			blocked TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			sender TEXT NOT NULL,
			subject TEXT,
			body TEXT,
			received_at TIMESTAMP,
			is_spam BOOLEAN,
			is_important BOOLEAN,
			category TEXT,
			priority_score REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_user_received ON emails(user_id, received_at)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			email_id INTEGER,
			message TEXT NOT NULL,
			is_read BOOLEAN DEFAULT 0,
			created_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_user_unread ON alerts(user_id, is_read)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// SaveUser stores a user, assigning its ID
func (s *SQLiteStore) SaveUser(ctx context.Context, user *core.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, created_at)
		VALUES (?, ?, ?)
	`, user.Username, user.Email, user.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	return nil
}

// GetPreferences returns a user's stored preferences, or nil when none exist
func (s *SQLiteStore) GetPreferences(ctx context.Context, userID int64) (*core.Preferences, error) {
	prefs := &core.Preferences{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT threshold, enable_notifications, trusted, blocked
		FROM preferences
		WHERE user_id = ?
	`, userID).Scan(&prefs.Threshold, &prefs.EnableNotifications, &prefs.Trusted, &prefs.Blocked)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences inserts or replaces a user's preferences
func (s *SQLiteStore) SavePreferences(ctx context.Context, prefs *core.Preferences) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO preferences (user_id, threshold, enable_notifications, trusted, blocked)
		VALUES (?, ?, ?, ?, ?)
	`, prefs.UserID, prefs.Threshold, prefs.EnableNotifications, prefs.Trusted, prefs.Blocked)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// SaveEmail stores a triaged email, assigning its ID
func (s *SQLiteStore) SaveEmail(ctx context.Context, email *core.StoredEmail) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO emails (user_id, sender, subject, body, received_at, is_spam, is_important, category, priority_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, email.UserID, email.Sender, email.Subject, email.Body,
		email.ReceivedAt.Format(time.RFC3339), email.IsSpam, email.IsImportant,
		string(email.Category), email.PriorityScore)
	if err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}
	email.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read email id: %w", err)
	}
	return nil
}

// RecentEmails returns up to limit emails for a user, newest first
func (s *SQLiteStore) RecentEmails(ctx context.Context, userID int64, limit int) ([]*core.StoredEmail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, sender, subject, body, received_at, is_spam, is_important, category, priority_score
		FROM emails
		WHERE user_id = ?
		ORDER BY received_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	var emails []*core.StoredEmail
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// CountEmailsSince counts a user's emails received at or after since
func (s *SQLiteStore) CountEmailsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM emails
		WHERE user_id = ? AND received_at >= ?
	`, userID, since.Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}
	return count, nil
}

// MailboxStats returns aggregate counts for a user's mailbox
func (s *SQLiteStore) MailboxStats(ctx context.Context, userID int64) (*core.MailboxStats, error) {
	stats := &core.MailboxStats{Categories: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_spam THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN is_important THEN 1 ELSE 0 END), 0)
		FROM emails
		WHERE user_id = ?
	`, userID).Scan(&stats.TotalEmails, &stats.SpamCount, &stats.ImportantCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query mailbox totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM emails
		WHERE user_id = ?
		GROUP BY category
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.Categories[category] = count
	}
	return stats, rows.Err()
}

// TopSenderDomains returns the most frequent sender domains for a user
func (s *SQLiteStore) TopSenderDomains(ctx context.Context, userID int64, limit int) ([]core.DomainCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender FROM emails WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query senders: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	var order []string
	for rows.Next() {
		var sender string
		if err := rows.Scan(&sender); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		domain := core.SenderDomain(sender)
		if _, seen := counts[domain]; !seen {
			order = append(order, domain)
		}
		counts[domain]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topDomains(counts, order, limit), nil
}

// SaveAlert stores an alert, assigning its ID
func (s *SQLiteStore) SaveAlert(ctx context.Context, alert *core.Alert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (user_id, email_id, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, alert.UserID, alert.EmailID, alert.Message, alert.IsRead, alert.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	alert.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read alert id: %w", err)
	}
	return nil
}

// UnreadAlerts returns a user's unread alerts, newest first
func (s *SQLiteStore) UnreadAlerts(ctx context.Context, userID int64) ([]*core.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, email_id, message, is_read, created_at
		FROM alerts
		WHERE user_id = ? AND is_read = 0
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*core.Alert
	for rows.Next() {
		alert := &core.Alert{}
		var createdAt string
		if err := rows.Scan(&alert.ID, &alert.UserID, &alert.EmailID, &alert.Message, &alert.IsRead, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alert.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// MarkAlertRead marks one of the user's alerts as read
func (s *SQLiteStore) MarkAlertRead(ctx context.Context, userID, alertID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET is_read = 1
		WHERE id = ? AND user_id = ?
	`, alertID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check alert update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type emailScanner interface {
	Scan(dest ...any) error
}

func scanEmail(row emailScanner) (*core.StoredEmail, error) {
	email := &core.StoredEmail{}
	var receivedAt, category string
	err := row.Scan(&email.ID, &email.UserID, &email.Sender, &email.Subject, &email.Body,
		&receivedAt, &email.IsSpam, &email.IsImportant, &category, &email.PriorityScore)
	if err != nil {
		return nil, fmt.Errorf("failed to scan email: %w", err)
	}
	email.ReceivedAt, _ = time.Parse(time.RFC3339, receivedAt)
	email.Category = core.Category(category)
	return email, nil
}
