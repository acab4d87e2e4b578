package factory

import (
	"github.com/surajswas/unimail/internal/config"
	"github.com/surajswas/unimail/internal/corpus"
	"go.uber.org/zap"
)

// ProfilerFactory builds the keyword profiler from the configured
// training dataset
type ProfilerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewProfilerFactory creates a new profiler factory
func NewProfilerFactory(cfg *config.Config, logger *zap.Logger) *ProfilerFactory {
	return &ProfilerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateProfiler loads the configured dataset and derives profiles from
// it. A missing or unreadable dataset yields an untrained profiler: the
// analyzer still works, keyword and domain rules simply never fire.
func (f *ProfilerFactory) CreateProfiler() *corpus.Profiler {
	path := f.cfg.GetString("dataset.path")

	loader := corpus.NewLoader(f.logger)
	c, ok := loader.LoadCSV(path)
	if !ok {
		f.logger.Warn("Training dataset unavailable, starting untrained",
			zap.String("path", path))
		return corpus.NewProfiler(nil, f.logger)
	}

	return corpus.NewProfiler(c, f.logger)
}
