package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/surajswas/unimail/internal/config"
	"github.com/surajswas/unimail/internal/core"
	"github.com/surajswas/unimail/internal/corpus"
	"github.com/surajswas/unimail/internal/di"
	"go.uber.org/zap"
)

// sampleEmail is one of the canned messages scored after training to
// sanity-check the derived profiles.
type sampleEmail struct {
	sender  string
	subject string
	body    string
}

var sampleEmails = []sampleEmail{
	{
		sender:  "dean@university.edu",
		subject: "Important Academic Deadline",
		body:    "This is a reminder that all course registrations must be completed by Friday. Please check the university portal for more information.",
	},
	{
		sender:  "lottery_winner@gmail.com",
		subject: "YOU WON $5 MILLION!!!",
		body:    "Congratulations! You have won our lottery! Click here to claim your prize: http://suspicious-site.xyz",
	},
	{
		sender:  "professor@school.edu",
		subject: "Assignment Submission",
		body:    "Dear students, this is a reminder that your final project is due next week. Please submit through the course portal.",
	},
	{
		sender:  "friend@gmail.com",
		subject: "Weekend plans?",
		body:    "Hey, I was wondering if you wanted to get together this weekend for dinner? Let me know!",
	},
}

func main() {
	flags := di.ParseTrainerFlags()

	container, err := di.BuildTrainerContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Training error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.TrainerFlags,
	cfg *config.Config,
	logger *zap.Logger,
	profiler *corpus.Profiler,
	analyzer *core.Analyzer,
) error {
	defer logger.Sync()

	stats := profiler.Statistics()
	logger.Info("Dataset loaded",
		zap.Int("total_records", stats.TotalRecords),
		zap.Any("label_distribution", stats.LabelCounts))

	logger.Info("Training completed",
		zap.Int("spam_keywords", len(profiler.SpamKeywords())),
		zap.Int("university_keywords", len(profiler.UniversityKeywords())),
		zap.Int("spam_domains", len(profiler.SpamDomains())))

	if kws := profiler.SpamKeywords(); len(kws) > 0 {
		logger.Info("Top spam keywords", zap.Strings("keywords", head(kws, 10)))
	}
	if kws := profiler.UniversityKeywords(); len(kws) > 0 {
		logger.Info("Top university keywords", zap.Strings("keywords", head(kws, 10)))
	}

	summaryPath := cfg.GetString("dataset.summary_path")
	if summaryPath != "" {
		if err := corpus.WriteSummary(profiler, summaryPath); err != nil {
			return fmt.Errorf("failed to write training summary: %w", err)
		}
		logger.Info("Training summary saved", zap.String("path", summaryPath))
	} else {
		fmt.Println(corpus.Summary(profiler))
	}

	if !flags.SkipSamples {
		scoreSamples(analyzer, flags.Threshold)
	}

	logger.Info("Training and testing completed")
	return nil
}

// scoreSamples runs the canned sample emails through the analyzer and
// prints the verdicts.
func scoreSamples(analyzer *core.Analyzer, threshold float64) {
	policy := &core.ScoringPolicy{Threshold: threshold}

	fmt.Println("\n=== Sample Scoring ===")
	for i, sample := range sampleEmails {
		verdict := analyzer.AnalyzeEmail(sample.sender, sample.subject, sample.body, policy)

		fmt.Printf("\nSample %d:\n", i+1)
		fmt.Printf("Sender: %s\n", sample.sender)
		fmt.Printf("Subject: %s\n", sample.subject)
		fmt.Printf("Category: %s\n", verdict.Category)
		fmt.Printf("Priority score: %.2f\n", verdict.PriorityScore)
		fmt.Printf("Is spam: %t\n", verdict.IsSpam)
		fmt.Printf("Is important: %t\n", verdict.IsImportant)
		fmt.Printf("Is university notice: %t\n", verdict.IsUniversityNotice)
		if len(verdict.SpamIndicators) > 0 {
			fmt.Printf("Spam indicators: %s\n", strings.Join(verdict.SpamIndicators, ", "))
		}
		if len(verdict.ImportanceIndicators) > 0 {
			fmt.Printf("Importance indicators: %s\n", strings.Join(verdict.ImportanceIndicators, ", "))
		}
		fmt.Println(strings.Repeat("-", 50))
	}
}

func head(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
