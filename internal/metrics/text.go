package metrics

import "strings"

// wordErrorRate is the total token edit distance over total reference
// tokens, summed line-wise.
type wordErrorRate struct{}

func (wordErrorRate) Name() string    { return "wer" }
func (wordErrorRate) Sorting() string { return SortDescending }

func (wordErrorRate) Info() Info {
	return Info{
		Name:       "word error rate",
		Link:       "https://en.wikipedia.org/wiki/Word_error_rate",
		Sorting:    SortDescending,
		Parameters: nil,
	}
}

func (wordErrorRate) Calculate(expected, out []string, params Params) (float64, error) {
	if err := checkLengths(expected, out); err != nil {
		return 0, err
	}

	var edits, refWords float64
	for i := range expected {
		ref := strings.Fields(expected[i])
		hyp := strings.Fields(out[i])
		edits += float64(levenshtein(ref, hyp))
		refWords += float64(len(ref))
	}
	if refWords == 0 {
		return 0, ErrEmptyInput
	}
	return edits / refWords, nil
}

// levenshtein computes the edit distance between two token sequences.
func levenshtein(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
