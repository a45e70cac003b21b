package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/guardian/api/schemas"
)

func TestMostRelevant(t *testing.T) {
	statements := []string{"I love rockets", "Tesla makes cars", "Rockets go to Mars"}

	assert.Equal(t, []string{"Rockets go to Mars", "I love rockets"}, MostRelevant(statements, "rockets to mars", 2))
	assert.Len(t, MostRelevant(statements, "anything", 10), 3)
	assert.Equal(t, statements, MostRelevant(statements, "no overlap", 3), "ties keep corpus order")
}

func TestGeminiScorer_ScoreContradiction(t *testing.T) {
	corpus := staticCorpus{"elonmusk": {"I will never give away crypto.", "Tesla makes cars.", "Rockets go to Mars.", "Beware of scams."}}
	gen := &fakeGenerator{reply: "```json\n{\"score\": 9.0, \"justification\": \"Directly contradicts stated policy.\"}\n```"}
	scorer := NewGeminiScorer(gen, corpus, zaptest.NewLogger(t))

	r, err := scorer.ScoreContradiction(context.Background(), "elonmusk", "I am giving away crypto today")
	require.NoError(t, err)

	assert.Equal(t, schemas.ContradictionResult{Score: 9.0, Justification: "Directly contradicts stated policy."}, r)
	assert.Contains(t, gen.system, "Respond ONLY with JSON")
	assert.Contains(t, gen.prompt, `"I am giving away crypto today"`)
	assert.Contains(t, gen.prompt, `- "I will never give away crypto."`)
	assert.NotContains(t, gen.prompt, "Beware of scams", "only the three most relevant statements are sent")
}

func TestGeminiScorer_Errors(t *testing.T) {
	corpus := staticCorpus{"elonmusk": {"Statement."}}
	ctx := context.Background()

	t.Run("missing corpus", func(t *testing.T) {
		_, err := NewGeminiScorer(&fakeGenerator{}, corpus, zaptest.NewLogger(t)).ScoreContradiction(ctx, "nobody", "x")
		assert.True(t, schemas.IsInputError(err))
	})

	t.Run("generator failure", func(t *testing.T) {
		_, err := NewGeminiScorer(&fakeGenerator{err: errors.New("quota exceeded")}, corpus, zaptest.NewLogger(t)).ScoreContradiction(ctx, "elonmusk", "x")
		require.Error(t, err)
		assert.False(t, schemas.IsInputError(err))
	})

	t.Run("unparseable reply", func(t *testing.T) {
		_, err := NewGeminiScorer(&fakeGenerator{reply: "no idea"}, corpus, zaptest.NewLogger(t)).ScoreContradiction(ctx, "elonmusk", "x")
		assert.ErrorContains(t, err, "failed to parse the analysis")
	})

	t.Run("out of range score is clamped", func(t *testing.T) {
		r, err := NewGeminiScorer(&fakeGenerator{reply: `{"score": 42}`}, corpus, zaptest.NewLogger(t)).ScoreContradiction(ctx, "elonmusk", "x")
		require.NoError(t, err)
		assert.Equal(t, 10.0, r.Score)
	})
}
