package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeDataset(t, `email,subject,body,date,label
a@scam.biz,"Win big","Claim your lottery prize",1/2/2023 10:30,spam
dean@uni.edu,"Campus notice","Semester dates on the portal",1/3/2023,university notice
friend@gmail.com,"Hi","Dinner this weekend?",1/4/2023,ham
`)

	loader := NewLoader(zap.NewNop())
	c, ok := loader.LoadCSV(path)
	require.True(t, ok)

	assert.Equal(t, 3, c.Statistics().TotalRecords)
	assert.Len(t, c.Records(LabelSpam), 1)
	assert.Len(t, c.Records(LabelUniversityNotice), 1)
	assert.Len(t, c.Records(LabelHam), 1)
	assert.Equal(t, "a@scam.biz", c.Records(LabelSpam)[0].Sender)
	assert.Equal(t, "1/2/2023 10:30", c.Records(LabelSpam)[0].Date)
}

func TestLoadCSVHeaderCaseInsensitive(t *testing.T) {
	path := writeDataset(t, `Email, Subject ,BODY,Date,Label
a@scam.biz,s,b,1/2/2023,spam
`)

	loader := NewLoader(zap.NewNop())
	c, ok := loader.LoadCSV(path)
	require.True(t, ok)
	assert.Len(t, c.Records(LabelSpam), 1)
}

func TestLoadCSVPadsShortRows(t *testing.T) {
	path := writeDataset(t, `email,subject,body,date,label
a@scam.biz,only-subject
`)

	loader := NewLoader(zap.NewNop())
	c, ok := loader.LoadCSV(path)
	require.True(t, ok)

	stats := c.Statistics()
	assert.Equal(t, 1, stats.TotalRecords)
	// Missing cells normalize to empty, so the label is blank and the row
	// lands in no bucket.
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, stats.MissingValues["label"])
}

func TestLoadCSVMissingFile(t *testing.T) {
	loader := NewLoader(zap.NewNop())
	c, ok := loader.LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))

	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeDataset(t, `email,subject,body,date
a@scam.biz,s,b,1/2/2023
`)

	loader := NewLoader(zap.NewNop())
	_, ok := loader.LoadCSV(path)
	assert.False(t, ok)
}
