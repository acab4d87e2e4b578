package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TriageService is the core service for email triage: it scores an
// incoming email against the owner's policy, persists it with its
// verdict and raises an alert when the verdict warrants one.
type TriageService struct {
	analyzer *Analyzer
	store    TriageStore
	logger   *zap.Logger
}

// NewTriageService creates a new triage service
func NewTriageService(analyzer *Analyzer, store TriageStore, logger *zap.Logger) *TriageService {
	return &TriageService{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
	}
}

// Analyzer exposes the underlying analyzer for surfaces that score
// without persisting.
func (s *TriageService) Analyzer() *Analyzer {
	return s.analyzer
}

// PolicyFor builds the scoring policy for a user from stored
// preferences. A user without stored preferences gets the defaults.
func (s *TriageService) PolicyFor(ctx context.Context, userID int64) (*ScoringPolicy, *Preferences, error) {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs == nil {
		prefs = DefaultPreferences(userID)
	}
	return prefs.ScoringPolicy(), prefs, nil
}

// Triage analyzes one email for a user and persists the outcome.
func (s *TriageService) Triage(ctx context.Context, userID int64, email *Email) (*TriageResult, error) {
	policy, prefs, err := s.PolicyFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	verdict := s.analyzer.AnalyzeEmail(email.Sender, email.Subject, email.Body, policy)

	receivedAt := email.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	stored := &StoredEmail{
		UserID:        userID,
		Sender:        email.Sender,
		Subject:       email.Subject,
		Body:          email.Body,
		ReceivedAt:    receivedAt,
		IsSpam:        verdict.IsSpam,
		IsImportant:   verdict.IsImportant,
		Category:      verdict.Category,
		PriorityScore: verdict.PriorityScore,
	}
	if err := s.store.SaveEmail(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to store email: %w", err)
	}

	result := &TriageResult{
		ProcessingID: uuid.NewString(),
		Email:        stored,
		Verdict:      verdict,
	}

	if verdict.IsImportant && prefs.EnableNotifications {
		alert := &Alert{
			UserID:    userID,
			EmailID:   stored.ID,
			Message:   fmt.Sprintf("Important %s email from %s: %s", verdict.Category, email.Sender, email.Subject),
			CreatedAt: time.Now(),
		}
		if err := s.store.SaveAlert(ctx, alert); err != nil {
			// The email is already stored; a lost alert is logged, not fatal.
			s.logger.Error("Failed to store alert",
				zap.Error(err),
				zap.Int64("user_id", userID),
				zap.Int64("email_id", stored.ID))
		} else {
			result.Alert = alert
		}
	}

	s.logger.Info("Email triaged",
		zap.String("processing_id", result.ProcessingID),
		zap.Int64("user_id", userID),
		zap.String("sender", email.Sender),
		zap.String("category", string(verdict.Category)),
		zap.Float64("priority_score", verdict.PriorityScore),
		zap.Bool("is_spam", verdict.IsSpam),
		zap.Bool("is_important", verdict.IsImportant))

	return result, nil
}
