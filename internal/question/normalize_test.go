package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNestedOptionShape(t *testing.T) {
	raw := RawRecord{
		ID:       float64(4821),
		Question: "What is the capital of France?",
		Option:   map[string]string{"a": "Paris", "b": "Lyon", "c": "Nice", "d": "Lille"},
		Answer:   "A",
		Solution: "Paris is the capital.",
		Examtype: "utme",
		Examyear: float64(2019),
	}

	q, ok := Normalize(raw, "geography", 0)
	assert.True(t, ok)
	assert.Equal(t, "4821", q.ID)
	assert.Equal(t, "geography", q.Subject)
	assert.Equal(t, "a", q.AnswerKey, "answer key must be lower-cased")
	assert.Equal(t, "Paris", q.Options["a"])
	assert.Equal(t, "2019", q.ExamYear)
}

func TestNormalizeFlatOptionShape(t *testing.T) {
	raw := RawRecord{
		ID:       "m-17",
		Question: "Simplify 2 + 2",
		A:        "3",
		B:        "4",
		C:        "5",
		D:        "6",
		Answer:   "b",
	}

	q, ok := Normalize(raw, "mathematics", 0)
	assert.True(t, ok)
	assert.Equal(t, "4", q.Options["b"])
	assert.Len(t, q.Options, 4, "absent option e must not appear")
}

func TestNormalizeRejectsMissingPrompt(t *testing.T) {
	raw := RawRecord{
		Question: "   ",
		Option:   map[string]string{"a": "x", "b": "y"},
		Answer:   "a",
	}
	_, ok := Normalize(raw, "english", 0)
	assert.False(t, ok)
}

func TestNormalizeRejectsAnswerWithoutOption(t *testing.T) {
	raw := RawRecord{
		Question: "Pick one",
		Option:   map[string]string{"a": "x", "b": "y"},
		Answer:   "e",
	}
	_, ok := Normalize(raw, "english", 0)
	assert.False(t, ok)

	raw.Answer = ""
	_, ok = Normalize(raw, "english", 0)
	assert.False(t, ok)
}

func TestNormalizeSynthesizesIDWhenAbsent(t *testing.T) {
	raw := RawRecord{
		Question: "Pick one",
		Option:   map[string]string{"a": "x", "b": "y"},
		Answer:   "a",
	}

	first, ok := Normalize(raw, "biology", 0)
	assert.True(t, ok)
	second, ok := Normalize(raw, "biology", 1)
	assert.True(t, ok)

	assert.NotEmpty(t, first.ID)
	assert.Contains(t, first.ID, "biology-0-")
	assert.NotEqual(t, first.ID, second.ID, "positional ids must differ within a pass")
	assert.True(t, first.Generated, "synthesized ids must be flagged")

	raw.ID = "b-9"
	sourced, ok := Normalize(raw, "biology", 0)
	assert.True(t, ok)
	assert.False(t, sourced.Generated)
}

func TestNormalizeBatchDropsMalformedSilently(t *testing.T) {
	raws := []RawRecord{
		{Question: "ok one", Option: map[string]string{"a": "1", "b": "2"}, Answer: "a"},
		{Question: "", Option: map[string]string{"a": "1"}, Answer: "a"},
		{Question: "ok two", Option: map[string]string{"a": "1", "b": "2"}, Answer: "B"},
	}

	batch := NormalizeBatch(raws, "physics")
	assert.Len(t, batch, 2)
	assert.Equal(t, "b", batch[1].AnswerKey)
}
