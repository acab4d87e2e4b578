package ports

import (
	"context"

	"github.com/surajswas/unimail/internal/core"
)

// EmailIntake defines the interface for a surface that accepts emails
// into the triage pipeline
type EmailIntake interface {
	// ProcessEmail runs one email through triage and returns the result
	ProcessEmail(ctx context.Context, email *core.Email) (*core.TriageResult, error)

	// Start starts the intake surface
	Start() error

	// Stop stops the intake surface
	Stop() error
}
