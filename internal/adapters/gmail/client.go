package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/surajswas/unimail/internal/core"
	"go.uber.org/zap"
)

// dateLayout matches the RFC 5322 date prefix Gmail puts in the Date
// header. The header is truncated before parsing so trailing zone names
// do not break it.
const dateLayout = "Mon, 2 Jan 2006 15:04:05"

// Client implements core.MailSource against the Gmail API for a single
// authorized mailbox.
type Client struct {
	service *gmailapi.Service
	logger  *zap.Logger
}

// NewClient builds a Gmail client from an OAuth client secrets file and
// a stored token file. The token must already exist; the interactive
// authorization flow is out of scope for the daemon.
func NewClient(ctx context.Context, credentialsFile, tokenFile string, logger *zap.Logger) (*Client, error) {
	credBytes, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(credBytes, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	token, err := loadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load token file: %w", err)
	}

	service, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service: service,
		logger:  logger,
	}, nil
}

// ListMessages returns metadata for up to max recent messages matching
// the Gmail query string.
func (c *Client) ListMessages(ctx context.Context, max int64, query string) ([]core.MessageMeta, error) {
	call := c.service.Users.Messages.List("me").MaxResults(max).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}

	listing, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	metas := make([]core.MessageMeta, 0, len(listing.Messages))
	for _, ref := range listing.Messages {
		msg, err := c.service.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			c.logger.Warn("Failed to fetch message metadata",
				zap.String("message_id", ref.Id),
				zap.Error(err))
			continue
		}

		meta := core.MessageMeta{
			ID:         msg.Id,
			ReceivedAt: time.Now(),
			Snippet:    msg.Snippet,
		}
		applyHeaders(msg.Payload, &meta.Sender, &meta.Subject, &meta.ReceivedAt)
		metas = append(metas, meta)
	}

	return metas, nil
}

// GetMessage returns the full content of one message. Only the first
// text/plain part is used as the body.
func (c *Client) GetMessage(ctx context.Context, id string) (*core.Email, error) {
	msg, err := c.service.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	email := &core.Email{ReceivedAt: time.Now()}
	applyHeaders(msg.Payload, &email.Sender, &email.Subject, &email.ReceivedAt)
	email.Body = extractBody(msg.Payload)

	return email, nil
}

func applyHeaders(payload *gmailapi.MessagePart, sender, subject *string, receivedAt *time.Time) {
	if payload == nil {
		return
	}
	for _, header := range payload.Headers {
		switch header.Name {
		case "From":
			*sender = header.Value
		case "Subject":
			*subject = header.Value
		case "Date":
			if parsed, ok := parseDate(header.Value); ok {
				*receivedAt = parsed
			}
		}
	}
}

func parseDate(value string) (time.Time, bool) {
	if len(value) > 25 {
		value = value[:25]
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func extractBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}

	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
				return decodeBody(part.Body.Data)
			}
		}
		return ""
	}

	if payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}
	return ""
}

// decodeBody decodes the base64url body data Gmail returns, with or
// without padding.
func decodeBody(data string) string {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}

func loadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}
