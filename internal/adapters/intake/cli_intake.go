package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/utils"
	"go.uber.org/zap"
)

// CLIIntake triages a single message supplied on a reader and prints the
// verdict to stdout.
type CLIIntake struct {
	service     *core.TriageService
	logger      *zap.Logger
	textProc    *utils.TextProcessor
	input       io.Reader
	userID      int64
	maxBodySize int
	verbose     bool
}

// NewCLIIntake creates a new CLI intake surface reading from input.
func NewCLIIntake(service *core.TriageService, logger *zap.Logger, textProc *utils.TextProcessor, input io.Reader, userID int64, maxBodySize int, verbose bool) *CLIIntake {
	return &CLIIntake{
		service:     service,
		logger:      logger,
		textProc:    textProc,
		input:       input,
		userID:      userID,
		maxBodySize: maxBodySize,
		verbose:     verbose,
	}
}

// ProcessEmail triages an email and prints the verdict.
func (f *CLIIntake) ProcessEmail(ctx context.Context, email *core.Email) (*core.TriageResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.Sender))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.Sender)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	startTime := time.Now()
	result, err := f.service.Triage(ctx, f.userID, email)
	if err != nil {
		f.logger.Error("Failed to triage email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	v := result.Verdict
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Is spam: %t\n", v.IsSpam)
	fmt.Printf("Is important: %t\n", v.IsImportant)
	fmt.Printf("University notice: %t\n", v.IsUniversityNotice)
	fmt.Printf("Category: %s\n", v.Category)
	fmt.Printf("Priority score: %.4f\n", v.PriorityScore)
	if len(v.SpamIndicators) > 0 {
		fmt.Printf("Spam indicators: %s\n", strings.Join(v.SpamIndicators, "; "))
	}
	if len(v.ImportanceIndicators) > 0 {
		fmt.Printf("Importance indicators: %s\n", strings.Join(v.ImportanceIndicators, "; "))
	}
	if result.Alert != nil {
		fmt.Printf("Alert: %s\n", result.Alert.Message)
	}
	fmt.Printf("Processing time: %v\n", duration)

	return result, nil
}

// Start reads one message from the configured input and triages it.
func (f *CLIIntake) Start() error {
	rawData, err := io.ReadAll(f.input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	email, err := parseRawEmail(rawData)
	if err != nil {
		return fmt.Errorf("failed to parse input message: %w", err)
	}
	email.Body = f.textProc.PrepareBody(email.Body, f.maxBodySize)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = f.ProcessEmail(ctx, email)
	return err
}

// Stop is a no-op for the CLI intake.
func (f *CLIIntake) Stop() error {
	return nil
}

// parseRawEmail parses an RFC 5322 message into the fields the analyzer
// consumes.
func parseRawEmail(rawData []byte) (*core.Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		return nil, err
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, err
	}

	sender := ""
	if from := msg.Header.Get("From"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			sender = addr.Address
		} else {
			sender = from
		}
	}

	receivedAt := time.Now()
	if date, err := msg.Header.Date(); err == nil {
		receivedAt = date
	}

	return &core.Email{
		Sender:     sender,
		Subject:    decodeHeader(msg.Header.Get("Subject")),
		Body:       body,
		ReceivedAt: receivedAt,
	}, nil
}
