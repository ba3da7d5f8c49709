package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadBankNormalizesBundledSets(t *testing.T) {
	bank, err := LoadBank()
	assert.NoError(t, err)

	for _, subject := range bank.Subjects() {
		set := bank.Fallback(subject)
		assert.NotEmpty(t, set, "bundled subject %s must have questions", subject)
		for _, q := range set {
			assert.NotEmpty(t, q.Options[q.AnswerKey], "bundled %s has broken answer key", q.ID)
		}
	}
}

func TestBankResolvesSubjectAliases(t *testing.T) {
	bank, err := LoadBank()
	assert.NoError(t, err)

	assert.Equal(t, "mathematics", bank.CanonicalSubject("mathematics"))
	assert.Equal(t, "mathematics", bank.CanonicalSubject("maths"))
	assert.Equal(t, "english", bank.CanonicalSubject(" English "))
	assert.Equal(t, "", bank.CanonicalSubject("underwater-basket-weaving"))
	assert.Equal(t, "", bank.CanonicalSubject(""))
}

func TestBankSupplementOnlyForDesignatedSubject(t *testing.T) {
	bank, err := LoadBank()
	assert.NoError(t, err)

	assert.NotEmpty(t, bank.Supplement("english"))
	assert.Empty(t, bank.Supplement("mathematics"))
	assert.Empty(t, bank.Supplement("unknown"))
}
