package di

import (
	"go.uber.org/dig"

	"github.com/surajswas/unimail/internal/config"
	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/corpus"
	"github.com/surajswas/unimail/internal/factory"
	"github.com/surajswas/unimail/internal/logging"
	"github.com/surajswas/unimail/internal/ports"
	"github.com/surajswas/unimail/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewProfilerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailSourceFactory); err != nil {
		return nil, err
	}

	// Register profiler, both as itself and as the analyzer's profile source
	if err := container.Provide(func(f *factory.ProfilerFactory) *corpus.Profiler {
		return f.CreateProfiler()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(p *corpus.Profiler) core.ProfileSource {
		return p
	}); err != nil {
		return nil, err
	}

	// Register analyzer
	if err := container.Provide(core.NewAnalyzer); err != nil {
		return nil, err
	}

	// Register triage store
	if err := container.Provide(func(f *factory.StoreFactory) (core.TriageStore, error) {
		return f.CreateTriageStore()
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(core.NewTriageService); err != nil {
		return nil, err
	}

	// Register email intake
	if err := container.Provide(func(f *factory.IntakeFactory) (ports.EmailIntake, error) {
		return f.CreateEmailIntake()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
