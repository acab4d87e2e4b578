package corpus

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// dateFormats are tried in order when extracting the dataset date range.
// Unparseable dates are skipped, never fatal.
var dateFormats = []string{"1/2/2006 15:04", "1/2/2006"}

// KeywordReport holds the diagnostic per-field keyword counts for one
// label. Distinct from the scoring profiles: subject and body are
// counted separately, on whitespace tokens, and capped at 20 each.
type KeywordReport struct {
	SubjectKeywords []WordCount
	BodyKeywords    []WordCount
}

// WordCount pairs a token with its frequency.
type WordCount struct {
	Word  string
	Count int
}

const reportKeywordLimit = 20

// ExtractKeywords builds the diagnostic keyword report for a label.
func ExtractKeywords(c *Corpus, label Label) KeywordReport {
	subjects := newFrequencyCounter()
	bodies := newFrequencyCounter()
	for _, rec := range c.Records(label) {
		countWhitespaceTokens(subjects, rec.Subject)
		countWhitespaceTokens(bodies, rec.Body)
	}
	return KeywordReport{
		SubjectKeywords: withCounts(subjects, reportKeywordLimit),
		BodyKeywords:    withCounts(bodies, reportKeywordLimit),
	}
}

func countWhitespaceTokens(counter *frequencyCounter, text string) {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if len(word) > minTokenLen {
			counter.Add(word)
		}
	}
}

func withCounts(counter *frequencyCounter, n int) []WordCount {
	top := counter.Top(n)
	out := make([]WordCount, 0, len(top))
	for _, word := range top {
		out = append(out, WordCount{Word: word, Count: counter.counts[word]})
	}
	return out
}

// CommonSenderDomains lists the most frequent sender domains for a
// label, for diagnostics.
func CommonSenderDomains(c *Corpus, label Label, n int) []WordCount {
	counter := newFrequencyCounter()
	for _, rec := range c.Records(label) {
		if rec.Sender == "" {
			continue
		}
		domain := rec.Sender
		if idx := strings.LastIndex(domain, "@"); idx >= 0 {
			domain = domain[idx+1:]
		}
		counter.Add(domain)
	}
	return withCounts(counter, n)
}

// Summary renders a plain-text report over the profiler's corpus:
// totals, date range, label distribution, missing fields and the top
// derived keywords.
func Summary(p *Profiler) string {
	stats := p.Statistics()

	var b strings.Builder
	b.WriteString("Email Analyzer Training Summary\n")
	b.WriteString("==============================\n\n")

	if stats.TotalRecords == 0 {
		b.WriteString("No training data loaded.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Total records: %d\n", stats.TotalRecords))
	b.WriteString(fmt.Sprintf("Date range: %s\n", dateRange(p.Corpus())))
	b.WriteString("Label distribution:\n")

	labels := make([]string, 0, len(stats.LabelCounts))
	for label := range stats.LabelCounts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if stats.LabelCounts[labels[i]] != stats.LabelCounts[labels[j]] {
			return stats.LabelCounts[labels[i]] > stats.LabelCounts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for _, label := range labels {
		count := stats.LabelCounts[label]
		pct := float64(count) / float64(stats.TotalRecords) * 100
		b.WriteString(fmt.Sprintf("  - %s: %d (%.1f%%)\n", label, count, pct))
	}

	var missingFields []string
	for field, count := range stats.MissingValues {
		if count > 0 {
			missingFields = append(missingFields, field)
		}
	}
	if len(missingFields) > 0 {
		sort.Strings(missingFields)
		b.WriteString(fmt.Sprintf("Fields with missing values: %s\n", strings.Join(missingFields, ", ")))
	}

	b.WriteString("\nTop spam keywords:\n")
	for _, keyword := range topN(p.SpamKeywords(), 10) {
		b.WriteString(fmt.Sprintf("- %s\n", keyword))
	}
	b.WriteString("\nTop university notice keywords:\n")
	for _, keyword := range topN(p.UniversityKeywords(), 10) {
		b.WriteString(fmt.Sprintf("- %s\n", keyword))
	}

	return b.String()
}

// WriteSummary writes the training summary to a file.
func WriteSummary(p *Profiler, path string) error {
	if err := os.WriteFile(path, []byte(Summary(p)), 0o644); err != nil {
		return fmt.Errorf("failed to write training summary: %w", err)
	}
	return nil
}

func topN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

// dateRange extracts the earliest and latest parseable record dates.
func dateRange(c *Corpus) string {
	var min, max time.Time
	for _, label := range []Label{LabelSpam, LabelHam, LabelUniversityNotice} {
		for _, rec := range c.Records(label) {
			parsed, ok := parseDate(rec.Date)
			if !ok {
				continue
			}
			if min.IsZero() || parsed.Before(min) {
				min = parsed
			}
			if max.IsZero() || parsed.After(max) {
				max = parsed
			}
		}
	}
	if min.IsZero() {
		return "unknown date range"
	}
	return fmt.Sprintf("from %s to %s", min.Format("2006-01-02"), max.Format("2006-01-02"))
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if parsed, err := time.Parse(format, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
