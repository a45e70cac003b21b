package scoring

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/xkilldash9x/guardian/api/schemas"
)

var (
	wordRegex        = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’]\p{L}+)?`)
	sentenceEndRegex = regexp.MustCompile(`[.!?]+`)
)

const emptyReferenceReason = "could not generate a valid fingerprint for the subject"

// Fingerprint is a coarse stylometric profile of a text.
type Fingerprint struct {
	AvgSentenceLength float64
	AvgWordLength     float64
}

// ComputeFingerprint measures words per sentence and runes per word.
// Punctuation is not counted as words.
func ComputeFingerprint(text string) Fingerprint {
	words := wordRegex.FindAllString(text, -1)
	sentences := 0
	for _, s := range sentenceEndRegex.Split(text, -1) {
		if wordRegex.MatchString(s) {
			sentences++
		}
	}
	if len(words) == 0 || sentences == 0 {
		return Fingerprint{}
	}

	letters := 0
	for _, w := range words {
		letters += len([]rune(w))
	}
	return Fingerprint{
		AvgSentenceLength: float64(len(words)) / float64(sentences),
		AvgWordLength:     float64(letters) / float64(len(words)),
	}
}

// StyleDriftScorer computes drift locally against the corpus.
type StyleDriftScorer struct {
	corpus Corpus
}

// NewStyleDriftScorer builds a drift scorer over corpus.
func NewStyleDriftScorer(corpus Corpus) *StyleDriftScorer {
	return &StyleDriftScorer{corpus: corpus}
}

// ScoreDrift implements schemas.DriftScorer. The score is the mean relative
// deviation of sentence and word length, as a percentage capped at 100.
func (s *StyleDriftScorer) ScoreDrift(_ context.Context, subjectID, text string) (schemas.DriftResult, error) {
	statements := s.corpus.Statements(subjectID)
	if len(statements) == 0 {
		return schemas.DriftResult{}, schemas.NewInputError("drift scorer",
			fmt.Sprintf("reference corpus for %s not found", subjectID))
	}

	truth := ComputeFingerprint(strings.Join(statements, " "))
	if truth.AvgSentenceLength == 0 {
		return schemas.DriftResult{}, schemas.NewInputError("drift scorer", emptyReferenceReason)
	}
	suspect := ComputeFingerprint(text)

	sentDrift := math.Abs(truth.AvgSentenceLength-suspect.AvgSentenceLength) / truth.AvgSentenceLength
	wordDrift := math.Abs(truth.AvgWordLength-suspect.AvgWordLength) / truth.AvgWordLength
	drift := math.Round((sentDrift+wordDrift)*50*100) / 100

	return schemas.DriftResult{DriftScore: clampTo(drift, 100)}, nil
}

func wordSet(text string) map[string]struct{} {
	words := wordRegex.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
