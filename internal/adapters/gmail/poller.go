package gmail

import (
	"context"
	"time"

	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/utils"
	"go.uber.org/zap"
)

// Poller periodically imports new messages from a mail source and runs
// them through the triage service. Messages already imported are skipped
// by ID.
type Poller struct {
	source      core.MailSource
	service     *core.TriageService
	logger      *zap.Logger
	textProc    *utils.TextProcessor
	userID      int64
	interval    time.Duration
	maxResults  int64
	maxBodySize int
	query       string
	seen        map[string]struct{}
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewPoller creates a new mailbox poller.
func NewPoller(
	source core.MailSource,
	service *core.TriageService,
	logger *zap.Logger,
	textProc *utils.TextProcessor,
	userID int64,
	interval time.Duration,
	maxResults int64,
	maxBodySize int,
	query string,
) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	return &Poller{
		source:      source,
		service:     service,
		logger:      logger,
		textProc:    textProc,
		userID:      userID,
		interval:    interval,
		maxResults:  maxResults,
		maxBodySize: maxBodySize,
		query:       query,
		seen:        make(map[string]struct{}),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins polling in a background goroutine.
func (p *Poller) Start() error {
	p.logger.Info("Mailbox poller starting",
		zap.Duration("interval", p.interval),
		zap.Int64("max_results", p.maxResults),
		zap.String("query", p.query))

	go func() {
		defer close(p.doneCh)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.poll()
		for {
			select {
			case <-ticker.C:
				p.poll()
			case <-p.stopCh:
				return
			}
		}
	}()

	return nil
}

// Stop stops the poller and waits for the in-flight cycle to finish.
func (p *Poller) Stop() error {
	close(p.stopCh)
	<-p.doneCh
	return nil
}

// poll runs one import cycle.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	metas, err := p.source.ListMessages(ctx, p.maxResults, p.query)
	if err != nil {
		p.logger.Error("Failed to list mailbox messages", zap.Error(err))
		return
	}

	imported := 0
	for _, meta := range metas {
		if _, ok := p.seen[meta.ID]; ok {
			continue
		}

		email, err := p.source.GetMessage(ctx, meta.ID)
		if err != nil {
			p.logger.Warn("Failed to fetch message",
				zap.String("message_id", meta.ID),
				zap.Error(err))
			continue
		}
		email.Body = p.textProc.PrepareBody(email.Body, p.maxBodySize)

		if _, err := p.service.Triage(ctx, p.userID, email); err != nil {
			p.logger.Error("Failed to triage imported message",
				zap.String("message_id", meta.ID),
				zap.Error(err))
			continue
		}

		p.seen[meta.ID] = struct{}{}
		imported++
	}

	if imported > 0 {
		p.logger.Info("Imported messages from mailbox", zap.Int("count", imported))
	}
}
