package extract

import (
	"regexp"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// patternGroup is a minimum-confidence-tagged regex whose first capture
// group is the memory content.
type patternGroup struct {
	name       string
	re         *regexp.Regexp
	memoryType types.MemoryType
	minConf    float64
	// isCorrection/isIdentityOrDecision feed the importance-scoring rule
	// in score.go without re-deriving the group's identity there.
	isCorrection         bool
	isIdentityOrDecision bool
}

// patternGroups is the fixed, case-insensitive pattern library. Every group
// is tried against each sentence and each match becomes its own candidate,
// so order only decides the order of a sentence's candidates; Correction is
// listed first since it overrides an earlier statement.
var patternGroups = []patternGroup{
	{
		name:         "correction",
		re:           regexp.MustCompile(`(?i)(?:^|[.!?]\s*)(?:actually,?\s+it'?s\s+|correction:\s*)(.+)`),
		memoryType:   types.MemoryTypeContext,
		minConf:      0.95,
		isCorrection: true,
	},
	{
		name:                 "identity",
		re:                   regexp.MustCompile(`(?i)\b(?:my name is|i work at|i'?m an?|i am an?)\s+(.+)`),
		memoryType:           types.MemoryTypeIdentity,
		minConf:              0.90,
		isIdentityOrDecision: true,
	},
	{
		name:       "remember_directive",
		re:         regexp.MustCompile(`(?i)\b(?:remember that|don'?t forget(?: that)?|always|never)\s+(.+)`),
		memoryType: types.MemoryTypeContext,
		minConf:    0.90,
	},
	{
		name:                 "decision",
		re:                   regexp.MustCompile(`(?i)\b(?:we decided(?: that)?|let'?s use|we'?ll go with)\s+(.+)`),
		memoryType:           types.MemoryTypeDecision,
		minConf:              0.90,
		isIdentityOrDecision: true,
	},
	{
		name:       "preference",
		re:         regexp.MustCompile(`(?i)\b(?:i prefer|i (?:don'?t )?like|please)\s+(.+)`),
		memoryType: types.MemoryTypePreference,
		minConf:    0.80,
	},
}

// minContentLen discards matches shorter than this.
const minContentLen = 5

// matchPatterns runs every pattern group against one sentence/line of text
// and returns every match found, each tagged with its source group.
func matchPatterns(text string) []patternMatch {
	var matches []patternMatch
	for _, g := range patternGroups {
		m := g.re.FindStringSubmatch(text)
		if m == nil || len(m) < 2 {
			continue
		}
		content := trimContent(m[1])
		if len(content) < minContentLen {
			continue
		}
		matches = append(matches, patternMatch{group: g, content: content})
	}
	return matches
}

type patternMatch struct {
	group   patternGroup
	content string
}

func trimContent(s string) string {
	// Drop trailing sentence terminators so content doesn't carry
	// punctuation the surrounding sentence split left behind.
	for len(s) > 0 && (s[len(s)-1] == '.' || s[len(s)-1] == '!' || s[len(s)-1] == '?') {
		s = s[:len(s)-1]
	}
	return s
}
