package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/surajswas/unimail/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the TriageStore interface.
// The DSN must include parseTime=true so DATETIME columns scan into
// time.Time directly.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			username VARCHAR(64) NOT NULL,
			email VARCHAR(120) NOT NULL UNIQUE,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			user_id BIGINT PRIMARY KEY,
			threshold DOUBLE,
			enable_notifications BOOLEAN,
			trusted TEXT,
			blocked TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			user_id BIGINT NOT NULL,
			sender VARCHAR(255) NOT NULL,
			subject VARCHAR(512),
			body TEXT,
			received_at DATETIME,
			is_spam BOOLEAN,
			is_important BOOLEAN,
			category VARCHAR(50),
			priority_score DOUBLE,
			INDEX idx_emails_user_received (user_id, received_at)
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			user_id BIGINT NOT NULL,
			email_id BIGINT,
			message VARCHAR(255) NOT NULL,
			is_read BOOLEAN DEFAULT FALSE,
			created_at DATETIME,
			INDEX idx_alerts_user_unread (user_id, is_read)
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// SaveUser stores a user, assigning its ID
func (s *MySQLStore) SaveUser(ctx context.Context, user *core.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, created_at)
		VALUES (?, ?, ?)
	`, user.Username, user.Email, user.CreatedAt)
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
func (s *MySQLStore) GetPreferences(ctx context.Context, userID int64) (*core.Preferences, error) {
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
func (s *MySQLStore) SavePreferences(ctx context.Context, prefs *core.Preferences) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, threshold, enable_notifications, trusted, blocked)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			threshold = VALUES(threshold),
			enable_notifications = VALUES(enable_notifications),
			trusted = VALUES(trusted),
			blocked = VALUES(blocked)
	`, prefs.UserID, prefs.Threshold, prefs.EnableNotifications, prefs.Trusted, prefs.Blocked)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// SaveEmail stores a triaged email, assigning its ID
func (s *MySQLStore) SaveEmail(ctx context.Context, email *core.StoredEmail) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO emails (user_id, sender, subject, body, received_at, is_spam, is_important, category, priority_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, email.UserID, email.Sender, email.Subject, email.Body,
		email.ReceivedAt, email.IsSpam, email.IsImportant,
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
func (s *MySQLStore) RecentEmails(ctx context.Context, userID int64, limit int) ([]*core.StoredEmail, error) {
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
		email := &core.StoredEmail{}
		var category string
		if err := rows.Scan(&email.ID, &email.UserID, &email.Sender, &email.Subject, &email.Body,
			&email.ReceivedAt, &email.IsSpam, &email.IsImportant, &category, &email.PriorityScore); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		email.Category = core.Category(category)
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// CountEmailsSince counts a user's emails received at or after since
func (s *MySQLStore) CountEmailsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM emails
		WHERE user_id = ? AND received_at >= ?
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}
	return count, nil
}

// MailboxStats returns aggregate counts for a user's mailbox
func (s *MySQLStore) MailboxStats(ctx context.Context, userID int64) (*core.MailboxStats, error) {
	stats := &core.MailboxStats{Categories: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(is_spam), 0),
		       COALESCE(SUM(is_important), 0)
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
func (s *MySQLStore) TopSenderDomains(ctx context.Context, userID int64, limit int) ([]core.DomainCount, error) {
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
func (s *MySQLStore) SaveAlert(ctx context.Context, alert *core.Alert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (user_id, email_id, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, alert.UserID, alert.EmailID, alert.Message, alert.IsRead, alert.CreatedAt)
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
func (s *MySQLStore) UnreadAlerts(ctx context.Context, userID int64) ([]*core.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, email_id, message, is_read, created_at
		FROM alerts
		WHERE user_id = ? AND is_read = FALSE
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*core.Alert
	for rows.Next() {
		alert := &core.Alert{}
		if err := rows.Scan(&alert.ID, &alert.UserID, &alert.EmailID, &alert.Message, &alert.IsRead, &alert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// MarkAlertRead marks one of the user's alerts as read
func (s *MySQLStore) MarkAlertRead(ctx context.Context, userID, alertID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET is_read = TRUE
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
