package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/surajswas/unimail/internal/config"
	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/corpus"
	"github.com/surajswas/unimail/internal/logging"
)

// TrainerFlags contains all command line flags for the trainer application
type TrainerFlags struct {
	DatasetPath string
	SummaryPath string
	Threshold   float64
	SkipSamples bool
	Verbose     bool
	JSONLog     bool
	ConfigFile  string
}

// ParseTrainerFlags parses command line flags and returns a TrainerFlags struct
func ParseTrainerFlags() *TrainerFlags {
	flags := &TrainerFlags{}

	flag.StringVar(&flags.DatasetPath, "dataset", "email_dataset.csv", "Path to the labeled training CSV")
	flag.StringVar(&flags.SummaryPath, "summary", "", "Write a training summary to this file")
	flag.Float64Var(&flags.Threshold, "threshold", core.DefaultThreshold, "Importance threshold for the sample scoring run")
	flag.BoolVar(&flags.SkipSamples, "skip-samples", false, "Skip scoring the sample emails after training")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildTrainerContainer creates and configures a dependency injection
// container for the trainer application
func BuildTrainerContainer(flags *TrainerFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *TrainerFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *TrainerFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *TrainerFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		return createConfigFromTrainerFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register the profiler trained from the dataset
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*corpus.Profiler, error) {
		path := cfg.GetString("dataset.path")
		loader := corpus.NewLoader(logger)
		c, ok := loader.LoadCSV(path)
		if !ok {
			return nil, &DatasetError{Path: path}
		}
		return corpus.NewProfiler(c, logger), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(p *corpus.Profiler) core.ProfileSource {
		return p
	}); err != nil {
		return nil, err
	}

	// Register analyzer for the sample scoring run
	if err := container.Provide(core.NewAnalyzer); err != nil {
		return nil, err
	}

	return container, nil
}

// DatasetError reports a dataset that could not be loaded
type DatasetError struct {
	Path string
}

func (e *DatasetError) Error() string {
	return "failed to load training dataset: " + e.Path
}

// createConfigFromTrainerFlags creates a configuration from command line flags
func createConfigFromTrainerFlags(flags *TrainerFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("dataset.path", flags.DatasetPath)
	v.Set("dataset.summary_path", flags.SummaryPath)
	v.Set("cli.verbose", flags.Verbose)

	return config.NewFromViper(v)
}
