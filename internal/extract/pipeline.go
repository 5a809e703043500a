package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// sentenceSplit breaks free-form text into units pattern matching runs
// over: newlines, or a run of sentence terminators followed by whitespace.
// RE2 has no lookbehind, so the terminator itself is consumed;
// trimContent already strips any terminator a match would otherwise
// retain. This lets one paragraph yield more than one candidate.
var sentenceSplit = regexp.MustCompile(`\r?\n+|[.!?]+\s+`)

// Pipeline converts free-form text into memory candidates. It holds no
// mutable state and is safe for concurrent use.
type Pipeline struct{}

// New constructs an extraction Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Extract runs the pattern library and entity recognizer over text and
// returns 0..N candidates. It never raises on malformed input —
// text with no matches simply yields an empty slice.
func (p *Pipeline) Extract(text string, hints Hints, opts Options) []Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var candidates []Candidate
	seenNormalized := make(map[string]bool)

	for _, sentence := range splitSentences(text) {
		matches := matchPatterns(sentence)
		for _, m := range matches {
			normalized := normalizeContent(m.content)
			if seenNormalized[normalized] {
				continue // dedup within this extraction call, keep first occurrence
			}
			seenNormalized[normalized] = true

			memType := m.group.memoryType
			if m.group.name == "remember_directive" && hints.DefaultDirectiveType != "" {
				memType = hints.DefaultDirectiveType
			}

			entities := recognizeEntities(m.content)
			names := make([]string, len(entities))
			for i, e := range entities {
				names[i] = e.Name
			}

			candidates = append(candidates, Candidate{
				Content:     m.content,
				ContentHash: contentHash(normalized),
				MemoryType:  memType,
				Confidence:  m.group.minConf,
				Importance:  scoreImportance(m, matches),
				Entities:    names,
				ExtractionMeta: map[string]interface{}{
					"pattern_group": m.group.name,
					"source_type":   hints.SourceType,
				},
			})
		}
	}

	if !opts.SkipClassifier {
		candidates = Refine(candidates)
	}

	return candidates
}

func splitSentences(text string) []string {
	raw := sentenceSplit.Split(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeContent(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func contentHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
