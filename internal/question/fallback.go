package question

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

//go:embed fallback_data.json
var fallbackData []byte

type bankFile struct {
	Subjects   map[string][]RawRecord `json:"subjects"`
	Supplement []RawRecord            `json:"english_supplement"`
}

// Bank holds the bundled question sets usable with zero network or cache
// availability, plus the curated supplement that is always blended into
// English results.
type Bank struct {
	sets       map[string][]Question
	supplement []Question
	subjects   []string
}

// LoadBank parses the embedded fallback dataset. Records failing
// normalization are dropped the same way source records are.
func LoadBank() (*Bank, error) {
	var file bankFile
	if err := json.Unmarshal(fallbackData, &file); err != nil {
		return nil, fmt.Errorf("parse fallback dataset: %w", err)
	}

	bank := &Bank{sets: make(map[string][]Question, len(file.Subjects))}
	for subject, raws := range file.Subjects {
		bank.sets[subject] = NormalizeBatch(raws, subject)
		bank.subjects = append(bank.subjects, subject)
	}
	sort.Strings(bank.subjects)
	bank.supplement = NormalizeBatch(file.Supplement, SupplementedSubject)
	return bank, nil
}

// Fallback returns the bundled set for a subject, resolving close aliases
// ("maths" reaches "mathematics"). Nil when no set exists.
func (b *Bank) Fallback(subject string) []Question {
	if canonical := b.CanonicalSubject(subject); canonical != "" {
		return b.sets[canonical]
	}
	return nil
}

// Supplement returns the curated set that always augments the designated
// subject; empty for every other subject.
func (b *Bank) Supplement(subject string) []Question {
	if b.CanonicalSubject(subject) == SupplementedSubject {
		return b.supplement
	}
	return nil
}

// CanonicalSubject maps a caller-supplied subject name onto a bundled
// subject key, or "" when nothing is close enough.
func (b *Bank) CanonicalSubject(subject string) string {
	needle := strings.ToLower(strings.TrimSpace(subject))
	if needle == "" {
		return ""
	}
	if _, ok := b.sets[needle]; ok {
		return needle
	}

	ranks := fuzzy.RankFindNormalizedFold(needle, b.subjects)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// Subjects lists the bundled subject keys.
func (b *Bank) Subjects() []string {
	return b.subjects
}
