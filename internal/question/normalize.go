package question

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var optionKeys = []string{"a", "b", "c", "d", "e"}

// Normalize maps one raw record onto the canonical shape. It returns false
// when the record has no usable prompt or its answer key does not point at a
// non-empty option. idx is the record's position within its batch and seeds
// the fallback id for sources that ship none; such ids are stable within a
// single resolution pass only, and the record is flagged Generated so
// downstream persistence can treat it accordingly.
func Normalize(raw RawRecord, subject string, idx int) (Question, bool) {
	prompt := strings.TrimSpace(raw.Question)
	if prompt == "" {
		return Question{}, false
	}

	options := collectOptions(raw)
	answer := strings.ToLower(strings.TrimSpace(raw.Answer))
	if options[answer] == "" {
		return Question{}, false
	}

	id := coerceString(raw.ID)
	generated := id == ""
	if generated {
		id = fmt.Sprintf("%s-%d-%s", subject, idx, uuid.NewString()[:8])
	}

	return Question{
		ID:          id,
		Subject:     subject,
		Prompt:      prompt,
		Options:     options,
		AnswerKey:   answer,
		Explanation: raw.Solution,
		ExamType:    raw.Examtype,
		ExamYear:    coerceString(raw.Examyear),
		ImageURL:    raw.Image,
		Section:     raw.Section,
		Passage:     raw.Passage,
		Generated:   generated,
	}, true
}

// NormalizeBatch folds a raw batch into canonical questions, dropping
// malformed records silently.
func NormalizeBatch(raws []RawRecord, subject string) []Question {
	out := make([]Question, 0, len(raws))
	for i, raw := range raws {
		if q, ok := Normalize(raw, subject, i); ok {
			out = append(out, q)
		}
	}
	return out
}

func collectOptions(raw RawRecord) map[string]string {
	options := make(map[string]string, len(optionKeys))
	flat := map[string]string{"a": raw.A, "b": raw.B, "c": raw.C, "d": raw.D, "e": raw.E}
	for _, key := range optionKeys {
		val := raw.Option[key]
		if val == "" {
			val = flat[key]
		}
		if strings.TrimSpace(val) != "" {
			options[key] = val
		}
	}
	return options
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		// JSON numbers decode as float64; source ids are whole numbers.
		return fmt.Sprintf("%.0f", val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
