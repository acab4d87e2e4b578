package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func trainedProfiler(t *testing.T) *Profiler {
	t.Helper()
	return NewProfiler(Build([]Row{
		{Sender: "a@scam.biz", Subject: "Lottery prize", Body: "Claim your lottery winnings", Date: "1/2/2023 10:30", Label: "spam"},
		{Sender: "dean@uni.edu", Subject: "Campus notice", Body: "Semester dates posted", Date: "3/15/2023", Label: "university notice"},
		{Sender: "friend@gmail.com", Subject: "", Body: "Dinner?", Date: "2/1/2023", Label: "ham"},
	}), zap.NewNop())
}

func TestSummaryContents(t *testing.T) {
	summary := Summary(trainedProfiler(t))

	assert.Contains(t, summary, "Email Analyzer Training Summary")
	assert.Contains(t, summary, "Total records: 3")
	assert.Contains(t, summary, "from 2023-01-02 to 2023-03-15")
	assert.Contains(t, summary, "- spam: 1 (33.3%)")
	assert.Contains(t, summary, "- university notice: 1 (33.3%)")
	assert.Contains(t, summary, "Fields with missing values: subject")
	assert.Contains(t, summary, "- lottery")
	assert.Contains(t, summary, "- campus")
}

func TestSummaryUntrained(t *testing.T) {
	summary := Summary(NewProfiler(nil, zap.NewNop()))
	assert.Contains(t, summary, "No training data loaded.")
}

func TestSummaryUnknownDateRange(t *testing.T) {
	p := NewProfiler(Build([]Row{
		{Sender: "a@scam.biz", Subject: "s", Body: "b", Date: "not-a-date", Label: "spam"},
	}), zap.NewNop())

	assert.Contains(t, Summary(p), "unknown date range")
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	require.NoError(t, WriteSummary(trainedProfiler(t), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Email Analyzer Training Summary")
}

func TestExtractKeywords(t *testing.T) {
	c := Build([]Row{
		{Subject: "Lottery lottery prize", Body: "claim claim claim cash", Label: "spam"},
	})

	report := ExtractKeywords(c, LabelSpam)

	require.NotEmpty(t, report.SubjectKeywords)
	assert.Equal(t, WordCount{Word: "lottery", Count: 2}, report.SubjectKeywords[0])
	require.NotEmpty(t, report.BodyKeywords)
	assert.Equal(t, WordCount{Word: "claim", Count: 3}, report.BodyKeywords[0])
}

func TestCommonSenderDomains(t *testing.T) {
	c := Build([]Row{
		{Sender: "a@scam.biz", Label: "spam"},
		{Sender: "b@scam.biz", Label: "spam"},
		{Sender: "c@junk.info", Label: "spam"},
	})

	domains := CommonSenderDomains(c, LabelSpam, 5)
	require.Len(t, domains, 2)
	assert.Equal(t, WordCount{Word: "scam.biz", Count: 2}, domains[0])
}
