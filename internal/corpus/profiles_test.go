package corpus

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeriveKeywordProfileRanksByFrequency(t *testing.T) {
	c := Build([]Row{
		{Subject: "lottery prize", Body: "lottery lottery winner", Label: "spam"},
		{Subject: "prize inside", Body: "claim prize", Label: "spam"},
	})

	keywords := DeriveKeywordProfile(c, LabelSpam)

	// lottery x3, prize x3 but lottery was seen first; winner, inside and
	// claim once each in first-seen order.
	assert.Equal(t, []string{"lottery", "prize", "winner", "inside", "claim"}, keywords)
}

func TestDeriveKeywordProfileSkipsShortTokens(t *testing.T) {
	c := Build([]Row{
		{Subject: "win big now", Body: "the cash is yours", Label: "spam"},
	})

	keywords := DeriveKeywordProfile(c, LabelSpam)

	// Tokens of three characters or fewer never make the profile.
	assert.NotContains(t, keywords, "win")
	assert.NotContains(t, keywords, "big")
	assert.NotContains(t, keywords, "now")
	assert.NotContains(t, keywords, "the")
	assert.Contains(t, keywords, "cash")
	assert.Contains(t, keywords, "yours")
}

func TestDeriveKeywordProfileCapped(t *testing.T) {
	rows := make([]Row, 0, 60)
	for i := 0; i < 60; i++ {
		rows = append(rows, Row{
			Subject: fmt.Sprintf("keyword%03d", i),
			Label:   "spam",
		})
	}
	c := Build(rows)

	keywords := DeriveKeywordProfile(c, LabelSpam)
	assert.Len(t, keywords, 50)
}

func TestDeriveDomainProfile(t *testing.T) {
	c := Build([]Row{
		{Sender: "a@scam.biz", Label: "spam"},
		{Sender: "b@scam.biz", Label: "spam"},
		{Sender: "c@junk.info", Label: "spam"},
		{Sender: "", Label: "spam"},
		{Sender: "d@legit.com", Label: "ham"},
	})

	domains := DeriveDomainProfile(c)
	assert.Equal(t, []string{"scam.biz", "junk.info"}, domains)
}

func TestProfilerUntrained(t *testing.T) {
	p := NewProfiler(nil, zap.NewNop())

	assert.False(t, p.Trained())
	profiles := p.Profiles()
	require.NotNil(t, profiles)
	assert.Empty(t, profiles.SpamKeywords)
	assert.Empty(t, profiles.UniversityKeywords)
	assert.Empty(t, profiles.SpamDomains)
}

func TestProfilerMergeRetrains(t *testing.T) {
	p := NewProfiler(nil, zap.NewNop())
	require.False(t, p.Trained())

	merged := p.Merge(Build([]Row{
		{Sender: "a@scam.biz", Subject: "lottery winner", Body: "claim your prize", Label: "spam"},
		{Sender: "dean@uni.edu", Subject: "campus semester", Body: "library hours", Label: "university notice"},
	}))
	require.True(t, merged)
	assert.True(t, p.Trained())

	profiles := p.Profiles()
	assert.Contains(t, profiles.SpamKeywords, "lottery")
	assert.Contains(t, profiles.UniversityKeywords, "campus")
	assert.Contains(t, profiles.SpamDomains, "scam.biz")
}

func TestProfilerMergeEmptyIsNoop(t *testing.T) {
	p := NewProfiler(nil, zap.NewNop())

	assert.False(t, p.Merge(New()))
	assert.False(t, p.Merge(Build([]Row{{Sender: "x@y.com", Label: "promotional"}})))
	assert.False(t, p.Trained())
}

func TestProfilerSnapshotIsStableAcrossMerge(t *testing.T) {
	p := NewProfiler(Build([]Row{
		{Sender: "a@scam.biz", Subject: "lottery", Body: "prize", Label: "spam"},
	}), zap.NewNop())

	before := p.Profiles()
	p.Merge(Build([]Row{
		{Sender: "b@junk.info", Subject: "winner", Body: "cash", Label: "spam"},
	}))
	after := p.Profiles()

	// The old snapshot is untouched; rebuilds publish a fresh value.
	assert.NotContains(t, before.SpamKeywords, "winner")
	assert.Contains(t, after.SpamKeywords, "winner")
}

func TestProfilerConcurrentReadsDuringMerge(t *testing.T) {
	p := NewProfiler(Build([]Row{
		{Sender: "a@scam.biz", Subject: "lottery prize", Body: "claim now", Label: "spam"},
	}), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				profiles := p.Profiles()
				assert.NotNil(t, profiles)
				assert.NotNil(t, profiles.SpamKeywords)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		p.Merge(Build([]Row{
			{Sender: fmt.Sprintf("a%d@scam.biz", i), Subject: "winner", Body: "cash", Label: "spam"},
		}))
	}
	wg.Wait()
}

func TestFrequencyCounterTieBreak(t *testing.T) {
	counter := newFrequencyCounter()
	for _, v := range []string{"beta", "alpha", "beta", "gamma", "alpha", "delta"} {
		counter.Add(v)
	}

	// beta and alpha tie at 2: beta was seen first. gamma and delta tie
	// at 1 in first-seen order.
	assert.Equal(t, []string{"beta", "alpha", "gamma", "delta"}, counter.Top(10))
	assert.Equal(t, []string{"beta", "alpha"}, counter.Top(2))
}
