// Package corpus loads labeled email datasets and derives the keyword
// and domain profiles that calibrate the analyzer.
package corpus

import (
	"strings"
)

// Label identifies a training bucket.
type Label string

const (
	LabelSpam             Label = "spam"
	LabelHam              Label = "ham"
	LabelUniversityNotice Label = "university_notice"
)

// rawLabels maps dataset label values (case-insensitive, matched after
// lowercasing) to buckets. The raw taxonomy differs lexically from the
// bucket names: the dataset writes "university notice" with a space.
// Rows with any other label value are dropped.
var rawLabels = map[string]Label{
	"spam":              LabelSpam,
	"ham":               LabelHam,
	"university notice": LabelUniversityNotice,
}

// TrainingRecord is one labeled email from a dataset. Missing fields are
// normalized to the empty string; Date stays raw text and is parsed
// best-effort only for reporting.
type TrainingRecord struct {
	Sender  string
	Subject string
	Body    string
	Date    string
}

// Row is one raw dataset row before label mapping.
type Row struct {
	Sender  string
	Subject string
	Body    string
	Date    string
	Label   string
}

// Statistics describes a corpus for diagnostics; it plays no part in
// scoring.
type Statistics struct {
	TotalRecords  int
	LabelCounts   map[string]int
	MissingValues map[string]int
}

// Corpus is an ordered, labeled collection of training records.
// Immutable once built; Merge produces updates by appending and callers
// re-derive profiles from the result.
type Corpus struct {
	records map[Label][]TrainingRecord

	// Diagnostic counters over the raw rows, including dropped ones.
	total       int
	labelCounts map[string]int
	missing     map[string]int
}

// New creates an empty corpus.
func New() *Corpus {
	return &Corpus{
		records:     make(map[Label][]TrainingRecord),
		labelCounts: make(map[string]int),
		missing:     make(map[string]int),
	}
}

// Build constructs a corpus from raw rows. Rows whose label matches no
// known raw value are counted in the statistics but kept out of every
// bucket.
func Build(rows []Row) *Corpus {
	c := New()
	for _, row := range rows {
		c.add(row)
	}
	return c
}

func (c *Corpus) add(row Row) {
	c.total++

	rawLabel := strings.ToLower(strings.TrimSpace(row.Label))
	c.labelCounts[rawLabel]++

	for field, value := range map[string]string{
		"email":   row.Sender,
		"subject": row.Subject,
		"body":    row.Body,
		"date":    row.Date,
		"label":   row.Label,
	} {
		if value == "" {
			c.missing[field]++
		}
	}

	label, ok := rawLabels[rawLabel]
	if !ok {
		return
	}
	c.records[label] = append(c.records[label], TrainingRecord{
		Sender:  row.Sender,
		Subject: row.Subject,
		Body:    row.Body,
		Date:    row.Date,
	})
}

// Records returns the bucket for a label. The returned slice must not be
// modified.
func (c *Corpus) Records(label Label) []TrainingRecord {
	return c.records[label]
}

// Len returns the number of categorized records across all buckets.
func (c *Corpus) Len() int {
	n := 0
	for _, recs := range c.records {
		n += len(recs)
	}
	return n
}

// Empty reports whether the corpus holds no categorized records.
func (c *Corpus) Empty() bool {
	return c == nil || c.Len() == 0
}

// Append merges another corpus into this one, keeping record order
// within each bucket and summing the diagnostic counters.
func (c *Corpus) Append(other *Corpus) {
	if other == nil {
		return
	}
	for label, recs := range other.records {
		c.records[label] = append(c.records[label], recs...)
	}
	c.total += other.total
	for label, n := range other.labelCounts {
		c.labelCounts[label] += n
	}
	for field, n := range other.missing {
		c.missing[field] += n
	}
}

// Statistics returns diagnostic counts over the raw rows this corpus was
// built from. An empty corpus yields zero counts, not an error.
func (c *Corpus) Statistics() Statistics {
	stats := Statistics{
		TotalRecords:  0,
		LabelCounts:   make(map[string]int),
		MissingValues: make(map[string]int),
	}
	if c == nil {
		return stats
	}
	stats.TotalRecords = c.total
	for label, n := range c.labelCounts {
		stats.LabelCounts[label] = n
	}
	for field, n := range c.missing {
		stats.MissingValues[field] = n
	}
	return stats
}
