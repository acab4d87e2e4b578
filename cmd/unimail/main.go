package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/di"
	"github.com/surajswas/unimail/internal/factory"
	"github.com/surajswas/unimail/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	emailIntake ports.EmailIntake,
	store core.TriageStore,
	mailSourceFactory *factory.MailSourceFactory,
) error {
	defer logger.Sync()

	// Start the intake surface
	if err := emailIntake.Start(); err != nil {
		logger.Fatal("Failed to start intake", zap.Error(err))
		return err
	}

	// Start the Gmail poller when the import is enabled
	poller, err := mailSourceFactory.CreatePoller(context.Background())
	if err != nil {
		logger.Error("Failed to create mailbox poller", zap.Error(err))
	} else if poller != nil {
		if err := poller.Start(); err != nil {
			logger.Error("Failed to start mailbox poller", zap.Error(err))
			poller = nil
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if poller != nil {
		if err := poller.Stop(); err != nil {
			logger.Error("Failed to stop mailbox poller", zap.Error(err))
		}
	}

	// Stop the intake surface
	if err := emailIntake.Stop(); err != nil {
		logger.Error("Failed to stop intake", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
