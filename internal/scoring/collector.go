package scoring

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/guardian/api/schemas"
)

// Collection is the gathered signal bundle for one content item.
type Collection struct {
	Analysis schemas.AnalysisResult
	Media    []schemas.MediaAnalysis
}

// Collector gathers contradiction and drift signals concurrently. Media text
// is re-submitted to the contradiction scorer and the highest score wins.
type Collector struct {
	contradiction schemas.ContradictionScorer
	drift         schemas.DriftScorer
	media         schemas.MediaAnalyzer
	concurrency   int
	logger        *zap.Logger
}

// NewCollector builds a collector. media may be nil.
func NewCollector(c schemas.ContradictionScorer, d schemas.DriftScorer, media schemas.MediaAnalyzer, logger *zap.Logger) *Collector {
	return &Collector{
		contradiction: c,
		drift:         d,
		media:         media,
		concurrency:   4,
		logger:        logger.Named("collector"),
	}
}

// Collect scores text and every media item. Scorer errors abort the
// collection; media analyzer failures are logged and skipped.
func (c *Collector) Collect(ctx context.Context, subjectID, text string, mediaURLs []string) (Collection, error) {
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	var (
		mu       sync.Mutex
		best     schemas.ContradictionResult
		haveBest bool
		drift    schemas.DriftResult
		media    = make([]schemas.MediaAnalysis, len(mediaURLs))
	)
	consider := func(r schemas.ContradictionResult) {
		mu.Lock()
		defer mu.Unlock()
		if !haveBest || r.Score > best.Score {
			best, haveBest = r, true
		}
	}

	g.Go(func() error {
		r, err := c.contradiction.ScoreContradiction(groupCtx, subjectID, text)
		if err != nil {
			return err
		}
		consider(r)
		return nil
	})
	g.Go(func() error {
		r, err := c.drift.ScoreDrift(groupCtx, subjectID, text)
		if err != nil {
			return err
		}
		drift = r
		return nil
	})

	if c.media != nil {
		for i, url := range mediaURLs {
			g.Go(func() error {
				m, err := c.media.AnalyzeMedia(groupCtx, url)
				if err != nil {
					c.logger.Warn("Media analysis failed; skipping item.", zap.String("media_url", url), zap.Error(err))
					return nil
				}
				media[i] = m
				for _, extracted := range []string{m.OCRText, m.Transcript} {
					if extracted == "" {
						continue
					}
					r, err := c.contradiction.ScoreContradiction(groupCtx, subjectID, extracted)
					if err != nil {
						return fmt.Errorf("scoring media text from %s: %w", url, err)
					}
					consider(r)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return Collection{}, err
	}

	return Collection{
		Analysis: schemas.AnalysisResult{
			ContradictionScore: best.Score,
			DriftScore:         drift.DriftScore,
			Justification:      best.Justification,
		},
		Media: media,
	}, nil
}
