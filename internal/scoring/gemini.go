package scoring

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"text/template"

	"go.uber.org/zap"

	"github.com/xkilldash9x/guardian/api/schemas"
	"github.com/xkilldash9x/guardian/internal/llmclient"
	"github.com/xkilldash9x/guardian/internal/llmutil"
)

// groundTruthSize is how many reference statements go into each prompt.
const groundTruthSize = 3

const dissonanceSystemPrompt = `You analyze cognitive dissonance between an external claim and a public figure's record.
Score from 1.0 (no dissonance) to 10.0 (direct contradiction) with a one-sentence justification.
Respond ONLY with JSON: {"score": <float>, "justification": "<text>"}`

var dissonancePrompt = template.Must(template.New("dissonance").Parse(`EXTERNAL CLAIM:
{{printf "%q" .Claim}}

GROUND TRUTH (subject's past statements):
{{range .Statements}}- {{printf "%q" .}}
{{end}}`))

type dissonanceVerdict struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// GeminiScorer scores contradiction with an LLM grounded on the subject's
// most relevant reference statements.
type GeminiScorer struct {
	gen    llmclient.Generator
	corpus Corpus
	logger *zap.Logger
}

// NewGeminiScorer builds a contradiction scorer.
func NewGeminiScorer(gen llmclient.Generator, corpus Corpus, logger *zap.Logger) *GeminiScorer {
	return &GeminiScorer{gen: gen, corpus: corpus, logger: logger.Named("scoring.gemini")}
}

// ScoreContradiction implements schemas.ContradictionScorer.
func (s *GeminiScorer) ScoreContradiction(ctx context.Context, subjectID, text string) (schemas.ContradictionResult, error) {
	statements := s.corpus.Statements(subjectID)
	if len(statements) == 0 {
		return schemas.ContradictionResult{}, schemas.NewInputError("contradiction scorer",
			fmt.Sprintf("reference corpus for %s not found", subjectID))
	}

	var prompt bytes.Buffer
	err := dissonancePrompt.Execute(&prompt, struct {
		Claim      string
		Statements []string
	}{text, MostRelevant(statements, text, groundTruthSize)})
	if err != nil {
		return schemas.ContradictionResult{}, fmt.Errorf("failed to build dissonance prompt: %w", err)
	}

	reply, err := s.gen.GenerateJSON(ctx, dissonanceSystemPrompt, prompt.String())
	if err != nil {
		return schemas.ContradictionResult{}, err
	}
	verdict, err := llmutil.ParseJSONResponse[dissonanceVerdict](reply)
	if err != nil {
		s.logger.Warn("Unparseable dissonance verdict.", zap.Error(err))
		return schemas.ContradictionResult{}, fmt.Errorf("failed to parse the analysis from the model: %w", err)
	}

	s.logger.Debug("Dissonance scored.", zap.String("subject", subjectID), zap.Float64("score", verdict.Score))
	return schemas.ContradictionResult{
		Score:         clampTo(verdict.Score, 10),
		Justification: verdict.Justification,
	}, nil
}

// MostRelevant returns up to n statements ranked by word overlap with text.
// Ties keep corpus order.
func MostRelevant(statements []string, text string, n int) []string {
	query := wordSet(text)
	type ranked struct {
		idx     int
		overlap int
	}
	ranks := make([]ranked, len(statements))
	for i, s := range statements {
		overlap := 0
		for w := range wordSet(s) {
			if _, ok := query[w]; ok {
				overlap++
			}
		}
		ranks[i] = ranked{idx: i, overlap: overlap}
	}
	sort.SliceStable(ranks, func(a, b int) bool { return ranks[a].overlap > ranks[b].overlap })

	if n > len(ranks) {
		n = len(ranks)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = statements[ranks[i].idx]
	}
	return out
}
