package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

func TestDefaultRegistry_DescribesEverySchema(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	fallback := map[domain.SchemaID]bool{}
	for _, id := range domain.AllSchemas {
		pol, err := reg.Policy(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, pol.ID)
		assert.Positive(t, pol.MaxTokens, id)
		fallback[id] = pol.AllowFallback
	}
	assert.Equal(t, map[domain.SchemaID]bool{
		domain.SchemaCompatibilityAnalysis: false,
		domain.SchemaQuiz:                  false,
		domain.SchemaInterviewQuestions:    true,
		domain.SchemaMCQSingle:             false,
		domain.SchemaMCQBatch:              true,
		domain.SchemaSkillBatch:            false,
		domain.SchemaKeySkills:             false,
		domain.SchemaResumeSkills:          false,
		domain.SchemaSkillsOverview:        false,
	}, fallback)
}

func TestDefaultRegistry_SharedQuestionFields(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	quiz, _ := reg.Policy(domain.SchemaQuiz)
	batch, _ := reg.Policy(domain.SchemaMCQBatch)

	assert.Equal(t, quiz.Required, batch.Required)
	assert.Contains(t, quiz.RequiredPaths(), "[].category")
	assert.NotContains(t, batch.RequiredPaths(), "[].category")
}

func TestLoadRegistry_Errors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "schemas: [",
		"unknown schema": "schemas:\n  poem:\n    shape: text\n    max_tokens: 10\n",
		"unknown shape":  "schemas:\n  quiz:\n    shape: table\n    max_tokens: 10\n",
		"no max tokens":  "schemas:\n  quiz:\n    shape: array\n",
		"incomplete":     "schemas:\n  quiz:\n    shape: array\n    max_tokens: 10\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRegistry([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestRegistry_UnknownPolicy(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	_, err = reg.Policy("poem")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
