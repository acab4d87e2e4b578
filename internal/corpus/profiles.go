package corpus

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/surajswas/unimail/internal/core"
	"go.uber.org/zap"
)

const (
	// maxKeywords bounds the per-label keyword profile.
	maxKeywords = 50
	// maxDomains bounds the spam sender-domain profile.
	maxDomains = 10
	// minTokenLen drops short tokens before counting.
	minTokenLen = 3
)

var wordPattern = regexp.MustCompile(`\w+`)

// DeriveKeywordProfile returns the top keywords for a label, ranked by
// descending frequency with first-seen order breaking ties. Tokens are
// lowercased alphanumeric runs from subject+body, longer than three
// characters.
func DeriveKeywordProfile(c *Corpus, label Label) []string {
	counter := newFrequencyCounter()
	for _, rec := range c.Records(label) {
		text := strings.ToLower(rec.Subject + " " + rec.Body)
		for _, word := range wordPattern.FindAllString(text, -1) {
			if len(word) > minTokenLen {
				counter.Add(word)
			}
		}
	}
	return counter.Top(maxKeywords)
}

// DeriveDomainProfile returns the most frequent sender domains among
// spam records: the substring after the last '@', lowercased, or the
// whole sender when there is no '@'.
func DeriveDomainProfile(c *Corpus) []string {
	counter := newFrequencyCounter()
	for _, rec := range c.Records(LabelSpam) {
		if rec.Sender == "" {
			continue
		}
		counter.Add(core.SenderDomain(rec.Sender))
	}
	return counter.Top(maxDomains)
}

// frequencyCounter counts values while remembering insertion order, so
// Top is deterministic: count descending, then first-seen ascending.
type frequencyCounter struct {
	counts map[string]int
	order  map[string]int
	next   int
}

func newFrequencyCounter() *frequencyCounter {
	return &frequencyCounter{
		counts: make(map[string]int),
		order:  make(map[string]int),
	}
}

func (f *frequencyCounter) Add(value string) {
	if _, seen := f.counts[value]; !seen {
		f.order[value] = f.next
		f.next++
	}
	f.counts[value]++
}

func (f *frequencyCounter) Top(n int) []string {
	values := make([]string, 0, len(f.counts))
	for value := range f.counts {
		values = append(values, value)
	}
	sort.Slice(values, func(i, j int) bool {
		if f.counts[values[i]] != f.counts[values[j]] {
			return f.counts[values[i]] > f.counts[values[j]]
		}
		return f.order[values[i]] < f.order[values[j]]
	})
	if len(values) > n {
		values = values[:n]
	}
	return values
}

// Profiler owns a training corpus and the profile snapshot derived from
// it. The snapshot is swapped atomically on every rebuild, so concurrent
// scoring calls always see a complete profile set.
type Profiler struct {
	mu       sync.Mutex
	corpus   *Corpus
	snapshot atomic.Pointer[core.Profiles]

	spamKeywords       []string
	universityKeywords []string
	spamDomains        []string

	logger *zap.Logger
}

// NewProfiler creates a profiler. A nil corpus yields an untrained
// profiler whose snapshot is empty.
func NewProfiler(c *Corpus, logger *zap.Logger) *Profiler {
	p := &Profiler{
		corpus: c,
		logger: logger,
	}
	if p.corpus == nil {
		p.corpus = New()
	}
	p.rebuild()
	return p
}

// Profiles returns the current immutable profile snapshot.
func (p *Profiler) Profiles() *core.Profiles {
	return p.snapshot.Load()
}

// Trained reports whether any profile has been derived.
func (p *Profiler) Trained() bool {
	return !p.corpus.Empty()
}

// Merge appends incoming training data and fully re-derives all
// profiles. Returns false when there is nothing to merge.
func (p *Profiler) Merge(incoming *Corpus) bool {
	if incoming.Empty() {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.corpus.Append(incoming)
	p.rebuild()
	return true
}

// Statistics returns diagnostic counts for the accumulated corpus.
func (p *Profiler) Statistics() Statistics {
	return p.corpus.Statistics()
}

// Corpus returns the accumulated training corpus.
func (p *Profiler) Corpus() *Corpus {
	return p.corpus
}

// SpamKeywords returns the ranked spam keyword profile.
func (p *Profiler) SpamKeywords() []string {
	return p.spamKeywords
}

// UniversityKeywords returns the ranked university keyword profile.
func (p *Profiler) UniversityKeywords() []string {
	return p.universityKeywords
}

// SpamDomains returns the ranked spam sender-domain profile.
func (p *Profiler) SpamDomains() []string {
	return p.spamDomains
}

func (p *Profiler) rebuild() {
	p.spamKeywords = DeriveKeywordProfile(p.corpus, LabelSpam)
	p.universityKeywords = DeriveKeywordProfile(p.corpus, LabelUniversityNotice)
	p.spamDomains = DeriveDomainProfile(p.corpus)

	profiles := &core.Profiles{
		SpamKeywords:       toSet(p.spamKeywords),
		UniversityKeywords: toSet(p.universityKeywords),
		SpamDomains:        toSet(p.spamDomains),
	}
	p.snapshot.Store(profiles)

	if p.logger != nil {
		p.logger.Info("Derived profiles from training corpus",
			zap.Int("spam_keywords", len(p.spamKeywords)),
			zap.Int("university_keywords", len(p.universityKeywords)),
			zap.Int("spam_domains", len(p.spamDomains)))
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
