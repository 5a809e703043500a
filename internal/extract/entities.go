package extract

import (
	"regexp"
	"strings"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// knownTechnologies is the closed vocabulary the technology recognizer
// matches against. Matching is case-insensitive.
var knownTechnologies = []string{
	"Python", "JavaScript", "TypeScript", "Go", "Golang", "Rust", "Java",
	"Postgres", "PostgreSQL", "MySQL", "SQLite", "Redis", "MongoDB",
	"Docker", "Kubernetes", "React", "Vue", "Django", "Flask", "gRPC",
	"GraphQL", "Kafka", "RabbitMQ", "Terraform", "AWS", "GCP", "Azure",
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "to": true, "of": true,
	"in": true, "on": true, "at": true, "for": true, "with": true, "it": true,
	"this": true, "that": true, "i": true, "we": true, "you": true,
}

var (
	projectRe = regexp.MustCompile(`(?i)\b(?:project|app|service)\s+([A-Z][\w-]*)`)
	personRe  = regexp.MustCompile(`\b([A-Z][a-z]+)\s+(?:said|thinks|wrote|asked|suggested|agreed)\b`)
	fileRe    = regexp.MustCompile(`\b[\w./-]+\.(?:go|py|js|ts|tsx|jsx|rb|rs|java|md|yaml|yml|json|toml|sql|sh)\b`)
	urlRe     = regexp.MustCompile(`\bhttps?://[^\s)]+`)
	emailRe   = regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`)
	versionRe = regexp.MustCompile(`\bv?\d+\.\d+(?:\.\d+)?\b`)
	dateRe    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

	technologyRes = buildTechnologyRes()
)

func buildTechnologyRes() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(knownTechnologies))
	for _, tech := range knownTechnologies {
		out[tech] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(tech) + `\b`)
	}
	return out
}

// entityHit is a recognized entity surface form, keyed for dedup.
type entityHit struct {
	Name       string
	EntityType types.EntityType
}

func (e entityHit) key() string {
	return strings.ToLower(e.Name) + "|" + string(e.EntityType)
}

// recognizeEntities scans text for every recognized entity class,
// deduplicating by (name_lower, entity_type).
func recognizeEntities(text string) []entityHit {
	seen := make(map[string]bool)
	var hits []entityHit

	add := func(name string, t types.EntityType) {
		name = strings.TrimSpace(name)
		if name == "" || stopwords[strings.ToLower(name)] {
			return
		}
		h := entityHit{Name: name, EntityType: t}
		if seen[h.key()] {
			return
		}
		seen[h.key()] = true
		hits = append(hits, h)
	}

	for _, m := range projectRe.FindAllStringSubmatch(text, -1) {
		add(m[1], types.EntityTypeProject)
	}
	for _, m := range personRe.FindAllStringSubmatch(text, -1) {
		add(m[1], types.EntityTypePerson)
	}
	for _, tech := range knownTechnologies {
		if technologyRes[tech].MatchString(text) {
			add(tech, types.EntityTypeTechnology)
		}
	}
	for _, m := range fileRe.FindAllString(text, -1) {
		add(m, types.EntityTypeFile)
	}
	for _, m := range urlRe.FindAllString(text, -1) {
		add(m, types.EntityTypeURL)
	}
	for _, m := range emailRe.FindAllString(text, -1) {
		add(m, types.EntityTypeEmail)
	}
	for _, m := range versionRe.FindAllString(text, -1) {
		add(m, types.EntityTypeVersion)
	}
	for _, m := range dateRe.FindAllString(text, -1) {
		add(m, types.EntityTypeDate)
	}

	return hits
}

// RecognizeEntityNames runs the entity recognizer and returns just the
// surface names, for callers (e.g. internal/recall's Entity strategy) that
// only need names to match against MENTIONS, not the full typed hit.
func RecognizeEntityNames(text string) []string {
	hits := recognizeEntities(text)
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Name
	}
	return names
}

// RecognizedEntity is the exported form of entityHit, for callers outside
// this package (internal/memory) that need the entity_type to write
// typed Entity rows and MENTIONS edges, not just the surface name.
type RecognizedEntity struct {
	Name       string
	EntityType types.EntityType
}

// RecognizeEntitiesTyped runs the entity recognizer and returns each hit's
// name and type. internal/memory calls this once per candidate content to
// recover the type information Candidate.Entities (plain strings) discards.
func RecognizeEntitiesTyped(text string) []RecognizedEntity {
	hits := recognizeEntities(text)
	out := make([]RecognizedEntity, len(hits))
	for i, h := range hits {
		out[i] = RecognizedEntity{Name: h.Name, EntityType: h.EntityType}
	}
	return out
}
