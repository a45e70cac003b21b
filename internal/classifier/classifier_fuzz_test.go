package classifier

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
)

type fuzzInput struct {
	Contradiction float64
	Drift         float64
	Impersonation float64
	Content       string
}

// FuzzClassify checks the score range and determinism over arbitrary inputs.
func FuzzClassify(f *testing.F) {
	f.Add([]byte("bomb threat"))
	f.Fuzz(func(t *testing.T, data []byte) {
		in := fuzzInput{}
		if err := fuzz.NewConsumer(data).GenerateStruct(&in); err != nil {
			return
		}

		got := ClassifyScores(in.Contradiction, in.Drift, in.Impersonation, in.Content)
		if got.Score < 0 || got.Score > 10 {
			t.Fatalf("score %v out of range for %+v", got.Score, in)
		}
		if !got.Level.Valid() {
			t.Fatalf("invalid level %q", got.Level)
		}
		if again := ClassifyScores(in.Contradiction, in.Drift, in.Impersonation, in.Content); again != got {
			t.Fatalf("non-deterministic classification: %+v vs %+v", got, again)
		}
	})
}
