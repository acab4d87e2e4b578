package intake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/utils"
	"go.uber.org/zap"
)

// SMTPIntake accepts messages over SMTP, triages them for the configured
// user and relays the stamped message to an upstream MTA when enabled.
type SMTPIntake struct {
	service         *core.TriageService
	logger          *zap.Logger
	textProc        *utils.TextProcessor
	listenAddr      string
	server          *smtp.Server
	userID          int64
	maxBodySize     int
	spamHeader      string
	scoreHeader     string
	categoryHeader  string
	upstreamAddr    string
	upstreamPort    int
	upstreamEnabled bool
	maxMessageBytes int64
}

// NewSMTPIntake creates a new SMTP intake surface.
func NewSMTPIntake(
	service *core.TriageService,
	logger *zap.Logger,
	textProc *utils.TextProcessor,
	listenAddr string,
	userID int64,
	maxBodySize int,
	spamHeader string,
	scoreHeader string,
	categoryHeader string,
	upstreamAddr string,
	upstreamPort int,
	upstreamEnabled bool,
	maxMessageBytes int64,
) *SMTPIntake {
	if spamHeader == "" {
		spamHeader = "X-UniMail-Spam"
	}
	if scoreHeader == "" {
		scoreHeader = "X-UniMail-Score"
	}
	if categoryHeader == "" {
		categoryHeader = "X-UniMail-Category"
	}
	if maxMessageBytes <= 0 {
		maxMessageBytes = 10 * 1024 * 1024
	}

	return &SMTPIntake{
		service:         service,
		logger:          logger,
		textProc:        textProc,
		listenAddr:      listenAddr,
		userID:          userID,
		maxBodySize:     maxBodySize,
		spamHeader:      spamHeader,
		scoreHeader:     scoreHeader,
		categoryHeader:  categoryHeader,
		upstreamAddr:    upstreamAddr,
		upstreamPort:    upstreamPort,
		upstreamEnabled: upstreamEnabled,
		maxMessageBytes: maxMessageBytes,
	}
}

// Start starts the SMTP server.
func (f *SMTPIntake) Start() error {
	f.server = smtp.NewServer(&smtpBackend{intake: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = f.maxMessageBytes
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP intake starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server.
func (f *SMTPIntake) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail triages a single email for the configured user.
func (f *SMTPIntake) ProcessEmail(ctx context.Context, email *core.Email) (*core.TriageResult, error) {
	return f.service.Triage(ctx, f.userID, email)
}

// sendUpstream relays the stamped message to the upstream MTA using go-smtp.
func (f *SMTPIntake) sendUpstream(sender string, recipients []string, emailData []byte) error {
	upstreamAddr := fmt.Sprintf("%s:%d", f.upstreamAddr, f.upstreamPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", upstreamAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to upstream MTA: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface.
type smtpBackend struct {
	intake *SMTPIntake
}

func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		intake:     b.intake,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface.
type smtpSession struct {
	intake     *SMTPIntake
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data reads the message, triages it and relays the stamped copy upstream.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.intake.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := extractTextFromMessage(msg)
	if err != nil {
		s.intake.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	sender := s.sender
	if from := msg.Header.Get("From"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			sender = addr.Address
		}
	}

	subject := decodeHeader(msg.Header.Get("Subject"))

	receivedAt := time.Now()
	if date, err := msg.Header.Date(); err == nil {
		receivedAt = date
	}

	email := &core.Email{
		Sender:     sender,
		Subject:    subject,
		Body:       s.intake.textProc.PrepareBody(textContent, s.intake.maxBodySize),
		ReceivedAt: receivedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.intake.ProcessEmail(ctx, email)
	if err != nil {
		s.intake.logger.Error("Failed to triage email",
			zap.Error(err),
			zap.String("sender", sender),
			zap.String("sender_domain", core.SenderDomain(sender)))
		return err
	}
	verdict := result.Verdict

	var stamped bytes.Buffer
	fmt.Fprintf(&stamped, "%s: %t\r\n", s.intake.spamHeader, verdict.IsSpam)
	fmt.Fprintf(&stamped, "%s: %.4f\r\n", s.intake.scoreHeader, verdict.PriorityScore)
	fmt.Fprintf(&stamped, "%s: %s\r\n", s.intake.categoryHeader, verdict.Category)
	for key, values := range msg.Header {
		for _, value := range values {
			fmt.Fprintf(&stamped, "%s: %s\r\n", key, value)
		}
	}
	fmt.Fprintf(&stamped, "\r\n")

	// Preserve the original body bytes, MIME parts included.
	bodyStart := bytes.Index(rawData, []byte("\r\n\r\n"))
	if bodyStart != -1 {
		stamped.Write(rawData[bodyStart+4:])
	} else if bodyStart = bytes.Index(rawData, []byte("\n\n")); bodyStart != -1 {
		stamped.Write(rawData[bodyStart+2:])
	} else {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			s.intake.logger.Error("Failed to read message body", zap.Error(err))
			return err
		}
		stamped.Write(bodyBytes)
	}

	if s.intake.upstreamEnabled {
		if err := s.intake.sendUpstream(s.sender, s.recipients, stamped.Bytes()); err != nil {
			s.intake.logger.Error("Failed to relay email upstream",
				zap.Error(err),
				zap.String("sender", sender))
			return err
		}
	}

	s.intake.logger.Info("Processed email",
		zap.String("sender", sender),
		zap.String("sender_domain", core.SenderDomain(sender)),
		zap.Bool("is_spam", verdict.IsSpam),
		zap.Bool("is_important", verdict.IsImportant),
		zap.String("category", string(verdict.Category)),
		zap.Float64("score", verdict.PriorityScore))

	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}

// decodeHeader decodes RFC 2047 encoded words, falling back to the raw value.
func decodeHeader(value string) string {
	if !strings.Contains(value, "=?") {
		return value
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
