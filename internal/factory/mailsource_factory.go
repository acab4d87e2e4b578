package factory

import (
	"context"
	"fmt"

	"github.com/surajswas/unimail/internal/adapters/gmail"
	"github.com/surajswas/unimail/internal/config"
	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/utils"
	"go.uber.org/zap"
)

// MailSourceFactory creates remote mailbox pollers based on configuration
type MailSourceFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	service  *core.TriageService
	textProc *utils.TextProcessor
}

// NewMailSourceFactory creates a new mail source factory
func NewMailSourceFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.TriageService,
	textProc *utils.TextProcessor,
) *MailSourceFactory {
	return &MailSourceFactory{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		textProc: textProc,
	}
}

// CreatePoller creates a Gmail poller, or nil when the import is disabled
func (f *MailSourceFactory) CreatePoller(ctx context.Context) (*gmail.Poller, error) {
	if !f.cfg.GetBool("gmail.enabled") {
		return nil, nil
	}

	client, err := gmail.NewClient(
		ctx,
		f.cfg.GetString("gmail.credentials_file"),
		f.cfg.GetString("gmail.token_file"),
		f.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}

	interval, err := f.cfg.GetDuration("gmail.poll_interval")
	if err != nil {
		return nil, fmt.Errorf("invalid gmail poll interval: %w", err)
	}

	return gmail.NewPoller(
		client,
		f.service,
		f.logger,
		f.textProc,
		f.cfg.GetInt64("triage.user_id"),
		interval,
		f.cfg.GetInt64("gmail.max_results"),
		f.cfg.GetInt("triage.max_body_size"),
		f.cfg.GetString("gmail.query"),
	), nil
}
