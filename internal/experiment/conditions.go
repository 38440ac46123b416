package experiment

import (
	"math/rand"
	"slices"
)

type IndicationMethod string

const (
	Click IndicationMethod = "click"
	Key   IndicationMethod = "barspace"
)

func (m IndicationMethod) Valid() bool { return m == Click || m == Key }

type FeedbackMode string

const (
	FeedbackNone  FeedbackMode = "none"
	FeedbackGreen FeedbackMode = "green"
)

func (f FeedbackMode) Valid() bool { return f == FeedbackNone || f == FeedbackGreen }

// FeedbackVariants lists the buffer radii crossed with one feedback mode.
type FeedbackVariants struct {
	Mode    FeedbackMode
	Buffers []float64
}

type Condition struct {
	Indication   IndicationMethod `json:"indication"`
	FeedbackMode FeedbackMode     `json:"feedbackMode"`
	Buffer       float64          `json:"buffer"`
}

type Block struct {
	A         float64   `json:"A"`
	W         float64   `json:"W"`
	Condition Condition `json:"condition"`
}

// ConditionCount is the length of a participant's condition sequence.
func ConditionCount(methods []IndicationMethod, feedbacks []FeedbackVariants) int {
	n := 0
	for _, f := range feedbacks {
		n += len(f.Buffers)
	}
	return n * len(methods)
}

// GenerateConditions shuffles the indication methods, crosses them with every
// feedback mode and buffer, then rotates the list by orderIndex.
//
// The rotation only balances which condition comes first across participants.
// It is not a Latin square: adjacent pairs are not balanced.
func GenerateConditions(methods []IndicationMethod, feedbacks []FeedbackVariants, orderIndex int, rng *rand.Rand) []Condition {
	var conds []Condition
	for _, m := range shuffle(rng, methods) {
		for _, f := range feedbacks {
			for _, buf := range f.Buffers {
				conds = append(conds, Condition{Indication: m, FeedbackMode: f.Mode, Buffer: buf})
			}
		}
	}
	return Rotate(conds, orderIndex)
}

// Rotate returns out with out[i] == in[(i+offset) mod len(in)].
func Rotate[T any](in []T, offset int) []T {
	n := len(in)
	out := make([]T, n)
	if n == 0 {
		return out
	}
	offset = ((offset % n) + n) % n
	for i := range out {
		out[i] = in[(i+offset)%n]
	}
	return out
}

// GenerateBlocks crosses amplitudes and widths for one condition and shuffles the result.
func GenerateBlocks(cond Condition, amplitudes, widths []float64, rng *rand.Rand) []Block {
	blocks := make([]Block, 0, len(amplitudes)*len(widths))
	for _, a := range amplitudes {
		for _, w := range widths {
			blocks = append(blocks, Block{A: a, W: w, Condition: cond})
		}
	}
	return shuffle(rng, blocks)
}

// shuffle orders a copy of in by independent random sort keys.
func shuffle[T any](rng *rand.Rand, in []T) []T {
	type keyed struct {
		v   T
		key float64
	}
	ks := make([]keyed, len(in))
	for i, v := range in {
		ks[i] = keyed{v: v, key: rng.Float64()}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})

	out := make([]T, len(in))
	for i, k := range ks {
		out[i] = k.v
	}
	return out
}
