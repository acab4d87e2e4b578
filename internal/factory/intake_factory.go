package factory

import (
	"fmt"
	"os"

	"github.com/surajswas/unimail/internal/adapters/intake"
	"github.com/surajswas/unimail/internal/config"
	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/ports"
	"github.com/surajswas/unimail/internal/utils"
	"go.uber.org/zap"
)

// IntakeFactory creates email intake surfaces based on configuration
type IntakeFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	service  *core.TriageService
	store    core.TriageStore
	textProc *utils.TextProcessor
}

// NewIntakeFactory creates a new intake factory
func NewIntakeFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.TriageService,
	store core.TriageStore,
	textProc *utils.TextProcessor,
) *IntakeFactory {
	return &IntakeFactory{
		cfg:      cfg,
		logger:   logger,
		service:  service,
		store:    store,
		textProc: textProc,
	}
}

// CreateEmailIntake creates an email intake surface based on the configuration
func (f *IntakeFactory) CreateEmailIntake() (ports.EmailIntake, error) {
	intakeType := f.cfg.GetString("server.intake_type")
	userID := f.cfg.GetInt64("triage.user_id")
	maxBodySize := f.cfg.GetInt("triage.max_body_size")

	switch intakeType {
	case "http":
		return intake.NewHTTPIntake(
			f.service,
			f.store,
			f.logger,
			f.textProc,
			f.cfg.GetString("server.listen_address"),
			userID,
			maxBodySize,
		), nil
	case "smtp":
		return intake.NewSMTPIntake(
			f.service,
			f.logger,
			f.textProc,
			f.cfg.GetString("server.smtp.listen_address"),
			userID,
			maxBodySize,
			f.cfg.GetString("server.smtp.headers.spam"),
			f.cfg.GetString("server.smtp.headers.score"),
			f.cfg.GetString("server.smtp.headers.category"),
			f.cfg.GetString("server.smtp.upstream.address"),
			f.cfg.GetInt("server.smtp.upstream.port"),
			f.cfg.GetBool("server.smtp.upstream.enabled"),
			f.cfg.GetInt64("server.smtp.max_message_bytes"),
		), nil
	case "cli":
		return intake.NewCLIIntake(
			f.service,
			f.logger,
			f.textProc,
			os.Stdin,
			userID,
			maxBodySize,
			f.cfg.GetBool("cli.verbose"),
		), nil
	default:
		return nil, fmt.Errorf("unsupported intake type: %s", intakeType)
	}
}
