package scoring

import (
	"context"
	"errors"
	"sync"

	"github.com/xkilldash9x/guardian/api/schemas"
)

type staticCorpus map[string][]string

func (c staticCorpus) Statements(subject string) []string { return c[subject] }

type fakeGenerator struct {
	reply  string
	err    error
	system string
	prompt string
}

func (g *fakeGenerator) GenerateJSON(_ context.Context, system, prompt string) (string, error) {
	g.system, g.prompt = system, prompt
	return g.reply, g.err
}

// scriptedScorer returns a score keyed by the text it receives.
type scriptedScorer struct {
	mu     sync.Mutex
	scores map[string]schemas.ContradictionResult
	err    error
	seen   []string
}

func (s *scriptedScorer) ScoreContradiction(_ context.Context, _, text string) (schemas.ContradictionResult, error) {
	s.mu.Lock()
	s.seen = append(s.seen, text)
	s.mu.Unlock()
	if s.err != nil {
		return schemas.ContradictionResult{}, s.err
	}
	return s.scores[text], nil
}

type fixedDrift struct {
	score float64
	err   error
}

func (d fixedDrift) ScoreDrift(context.Context, string, string) (schemas.DriftResult, error) {
	return schemas.DriftResult{DriftScore: d.score}, d.err
}

type mapMedia map[string]schemas.MediaAnalysis

func (m mapMedia) AnalyzeMedia(_ context.Context, url string) (schemas.MediaAnalysis, error) {
	a, ok := m[url]
	if !ok {
		return schemas.MediaAnalysis{}, errors.New("fetch failed")
	}
	return a, nil
}
