package corpus

import (
	"encoding/csv"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Loader reads labeled email datasets from CSV files with the columns
// email, subject, body, date, label. Load failures never propagate as
// errors past this boundary: they are logged and reported as a false ok
// flag, leaving the caller on an untrained (default) scorer.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new dataset loader
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadCSV reads a dataset file and builds a corpus from it. Missing
// cells normalize to the empty string; short rows are padded rather than
// rejected.
func (l *Loader) LoadCSV(path string) (*Corpus, bool) {
	f, err := os.Open(path)
	if err != nil {
		l.logger.Error("Dataset path is invalid or not found",
			zap.String("path", path),
			zap.Error(err))
		return nil, false
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		l.logger.Error("Failed to read dataset header", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"email", "subject", "body", "date", "label"} {
		if _, ok := columns[required]; !ok {
			l.logger.Error("Dataset is missing a required column",
				zap.String("path", path),
				zap.String("column", required))
			return nil, false
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		l.logger.Error("Failed to read dataset rows", zap.String("path", path), zap.Error(err))
		return nil, false
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		cell := func(name string) string {
			idx := columns[name]
			if idx >= len(record) {
				return ""
			}
			return record[idx]
		}
		rows = append(rows, Row{
			Sender:  cell("email"),
			Subject: cell("subject"),
			Body:    cell("body"),
			Date:    cell("date"),
			Label:   cell("label"),
		})
	}

	c := Build(rows)
	l.logger.Info("Dataset loaded successfully",
		zap.String("path", path),
		zap.Int("records", c.Statistics().TotalRecords))
	return c, true
}
