package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

func TestExtractIdentityPattern(t *testing.T) {
	p := New()
	got := p.Extract("My name is Alex and I work at Acme.", Hints{}, Options{})
	require.NotEmpty(t, got)
	require.Equal(t, types.MemoryTypeIdentity, got[0].MemoryType)
	assert.GreaterOrEqual(t, got[0].Confidence, 0.90)
}

func TestExtractCorrectionHasHighestImportance(t *testing.T) {
	p := New()
	candidates := p.Extract("We decided to use MySQL. Actually, it's Postgres we're using.", Hints{}, Options{})
	require.GreaterOrEqual(t, len(candidates), 2)

	var decision, correction *Candidate
	for i := range candidates {
		switch candidates[i].MemoryType {
		case types.MemoryTypeDecision:
			decision = &candidates[i]
		case types.MemoryTypeContext:
			correction = &candidates[i]
		}
	}
	require.NotNil(t, decision)
	require.NotNil(t, correction)
	assert.Greater(t, correction.Importance, decision.Importance)
}

func TestExtractDiscardsShortMatches(t *testing.T) {
	p := New()
	got := p.Extract("I like it.", Hints{}, Options{})
	assert.Empty(t, got, "a match shorter than 5 characters must be discarded")
}

func TestExtractNeverPanicsOnMalformedInput(t *testing.T) {
	p := New()
	assert.NotPanics(t, func() {
		got := p.Extract("", Hints{}, Options{})
		assert.Empty(t, got)
	})
	assert.NotPanics(t, func() {
		got := p.Extract("   \n\t  ", Hints{}, Options{})
		assert.Empty(t, got)
	})
	assert.NotPanics(t, func() {
		p.Extract(string([]byte{0xff, 0xfe, 0x00, 0x01}), Hints{}, Options{})
	})
}

func TestExtractDedupsWithinCall(t *testing.T) {
	p := New()
	got := p.Extract("Remember that we use trunk-based development. Remember that we use trunk-based development.", Hints{}, Options{})
	require.Len(t, got, 1, "the same normalized content must appear once per extraction call")
}

func TestExtractPopulatesEntities(t *testing.T) {
	p := New()
	got := p.Extract("We decided to use Postgres for the kuzu-memory project, see CONTRIBUTING.md.", Hints{}, Options{})
	require.NotEmpty(t, got)
	assert.Contains(t, got[0].Entities, "Postgres")
}

func TestExtractRespectsSkipClassifier(t *testing.T) {
	p := New()
	got := p.Extract("We decided to use Postgres.", Hints{}, Options{SkipClassifier: true})
	require.NotEmpty(t, got)
	_, hasSentiment := got[0].ExtractionMeta["sentiment"]
	assert.False(t, hasSentiment, "SkipClassifier must bypass the refining classifier pass")
}

func TestExtractClassifierNeverDropsCandidates(t *testing.T) {
	p := New()
	before := p.Extract("We decided to use Postgres.", Hints{}, Options{SkipClassifier: true})
	after := p.Extract("We decided to use Postgres.", Hints{}, Options{})
	require.Len(t, before, len(after), "the classifier pass must only refine, never drop, candidates")
}

func TestRememberDirectiveHonorsDefaultType(t *testing.T) {
	p := New()
	got := p.Extract("Always run the linter before pushing.", Hints{DefaultDirectiveType: types.MemoryTypeSemantic}, Options{})
	require.NotEmpty(t, got)
	assert.Equal(t, types.MemoryTypeSemantic, got[0].MemoryType)
}
