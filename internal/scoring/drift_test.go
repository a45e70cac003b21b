package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/guardian/api/schemas"
)

func TestComputeFingerprint(t *testing.T) {
	fp := ComputeFingerprint("I love rockets. Mars is next!")
	assert.InDelta(t, 3.0, fp.AvgSentenceLength, 1e-9)
	assert.InDelta(t, 22.0/6.0, fp.AvgWordLength, 1e-9)

	assert.Equal(t, Fingerprint{}, ComputeFingerprint("?!..."))
	assert.Equal(t, Fingerprint{}, ComputeFingerprint(""))
}

func TestStyleDriftScorer(t *testing.T) {
	corpus := staticCorpus{"elonmusk": {"I love rockets.", "Mars is next."}}
	scorer := NewStyleDriftScorer(corpus)
	ctx := context.Background()

	t.Run("identical style", func(t *testing.T) {
		r, err := scorer.ScoreDrift(ctx, "elonmusk", "I love rockets. Mars is next.")
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.DriftScore)
	})

	t.Run("different style", func(t *testing.T) {
		r, err := scorer.ScoreDrift(ctx, "elonmusk", "Rockets are great.")
		require.NoError(t, err)
		assert.Equal(t, 18.18, r.DriftScore)
	})

	t.Run("empty text is maximal drift", func(t *testing.T) {
		r, err := scorer.ScoreDrift(ctx, "elonmusk", "")
		require.NoError(t, err)
		assert.Equal(t, 100.0, r.DriftScore)
	})

	t.Run("unknown subject is an input error", func(t *testing.T) {
		_, err := scorer.ScoreDrift(ctx, "nobody", "hello")
		require.Error(t, err)
		assert.True(t, schemas.IsInputError(err))
		assert.Contains(t, err.Error(), "reference corpus for nobody not found")
	})

	t.Run("unusable reference is an input error", func(t *testing.T) {
		_, err := NewStyleDriftScorer(staticCorpus{"x": {"..."}}).ScoreDrift(ctx, "x", "hello")
		assert.True(t, schemas.IsInputError(err))
	})
}
