package metrics

import (
	"fmt"
	"math"
	"sort"
)

// confusion holds per-class counts for a pair of label sequences.
type confusion struct {
	labels []string         // sorted distinct labels
	index  map[string]int   // label -> matrix index
	counts [][]float64      // counts[true][pred]
	total  float64          // number of samples
}

func newConfusion(expected, out []string) *confusion {
	seen := map[string]bool{}
	for _, l := range expected {
		seen[l] = true
	}
	for _, l := range out {
		seen[l] = true
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	counts := make([][]float64, len(labels))
	for i := range counts {
		counts[i] = make([]float64, len(labels))
	}
	for i := range expected {
		counts[index[expected[i]]][index[out[i]]]++
	}

	return &confusion{
		labels: labels,
		index:  index,
		counts: counts,
		total:  float64(len(expected)),
	}
}

// trueCount returns how many samples carry the i-th label in expected.
func (c *confusion) trueCount(i int) float64 {
	var n float64
	for j := range c.labels {
		n += c.counts[i][j]
	}
	return n
}

// predCount returns how many samples carry the i-th label in out.
func (c *confusion) predCount(i int) float64 {
	var n float64
	for j := range c.labels {
		n += c.counts[j][i]
	}
	return n
}

// binaryCounts returns tp/fp/fn for a single positive label.
func binaryCounts(expected, out []string, posLabel string) (tp, fp, fn float64) {
	for i := range expected {
		expPos := expected[i] == posLabel
		outPos := out[i] == posLabel
		switch {
		case expPos && outPos:
			tp++
		case !expPos && outPos:
			fp++
		case expPos && !outPos:
			fn++
		}
	}
	return tp, fp, fn
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// prfKind selects which of precision/recall/f1 prfScore computes.
type prfKind int

const (
	kindPrecision prfKind = iota
	kindRecall
	kindFBeta
)

func prfFromCounts(kind prfKind, beta, tp, fp, fn float64) float64 {
	switch kind {
	case kindPrecision:
		return safeDiv(tp, tp+fp)
	case kindRecall:
		return safeDiv(tp, tp+fn)
	default:
		p := safeDiv(tp, tp+fp)
		r := safeDiv(tp, tp+fn)
		b2 := beta * beta
		return safeDiv((1+b2)*p*r, b2*p+r)
	}
}

// prfScore computes precision, recall or F-beta with binary, micro or
// macro averaging over the raw label lines. F1 is F-beta with beta 1.
func prfScore(kind prfKind, beta float64, expected, out []string, params Params) (float64, error) {
	if err := checkLengths(expected, out); err != nil {
		return 0, err
	}
	expected, out = trimAll(expected), trimAll(out)

	average, err := stringParam(params, "average", "binary")
	if err != nil {
		return 0, err
	}
	posLabel, err := stringParam(params, "pos_label", "1")
	if err != nil {
		return 0, err
	}

	switch average {
	case "binary":
		tp, fp, fn := binaryCounts(expected, out, posLabel)
		return prfFromCounts(kind, beta, tp, fp, fn), nil

	case "micro":
		var tp, fp, fn float64
		c := newConfusion(expected, out)
		for i := range c.labels {
			classTP := c.counts[i][i]
			tp += classTP
			fp += c.predCount(i) - classTP
			fn += c.trueCount(i) - classTP
		}
		return prfFromCounts(kind, beta, tp, fp, fn), nil

	case "macro":
		c := newConfusion(expected, out)
		var sum float64
		for i := range c.labels {
			classTP := c.counts[i][i]
			fp := c.predCount(i) - classTP
			fn := c.trueCount(i) - classTP
			sum += prfFromCounts(kind, beta, classTP, fp, fn)
		}
		return sum / float64(len(c.labels)), nil

	default:
		return 0, fmt.Errorf("parameter \"average\" must be 'binary', 'micro' or 'macro', got %q", average)
	}
}

var prfParams = []ParamInfo{
	{Name: "average", DataType: "string", DefaultValue: "binary"},
	{Name: "pos_label", DataType: "string", DefaultValue: "1"},
}

// accuracy is the fraction (or count) of exactly matching lines.
type accuracy struct{}

func (accuracy) Name() string    { return "accuracy" }
func (accuracy) Sorting() string { return SortAscending }

func (accuracy) Info() Info {
	return Info{
		Name:    "accuracy",
		Link:    "https://en.wikipedia.org/wiki/Accuracy_and_precision#In_classification",
		Sorting: SortAscending,
		Parameters: []ParamInfo{
			{Name: "normalize", DataType: "bool", DefaultValue: "true"},
		},
	}
}

func (accuracy) Calculate(expected, out []string, params Params) (float64, error) {
	if err := checkLengths(expected, out); err != nil {
		return 0, err
	}
	normalize, err := boolParam(params, "normalize", true)
	if err != nil {
		return 0, err
	}

	expected, out = trimAll(expected), trimAll(out)
	var correct float64
	for i := range expected {
		if expected[i] == out[i] {
			correct++
		}
	}
	if normalize {
		return correct / float64(len(expected)), nil
	}
	return correct, nil
}

// balancedAccuracy is the mean of per-class recall.
type balancedAccuracy struct{}

func (balancedAccuracy) Name() string    { return "balanced_accuracy" }
func (balancedAccuracy) Sorting() string { return SortAscending }

func (balancedAccuracy) Info() Info {
	return Info{
		Name:    "balanced accuracy",
		Link:    "https://en.wikipedia.org/wiki/Precision_and_recall#Imbalanced_data",
		Sorting: SortAscending,
		Parameters: []ParamInfo{
			{Name: "adjusted", DataType: "bool", DefaultValue: "false"},
		},
	}
}

func (balancedAccuracy) Calculate(expected, out []string, params Params) (float64, error) {
	if err := checkLengths(expected, out); err != nil {
		return 0, err
	}
	adjusted, err := boolParam(params, "adjusted", false)
	if err != nil {
		return 0, err
	}

	c := newConfusion(trimAll(expected), trimAll(out))

	var recallSum float64
	var classes float64
	for i := range c.labels {
		support := c.trueCount(i)
		if support == 0 {
			continue
		}
		recallSum += c.counts[i][i] / support
		classes++
	}
	if classes == 0 {
		return 0, ErrEmptyInput
	}

	score := recallSum / classes
	if adjusted {
		chance := 1 / classes
		score = (score - chance) / (1 - chance)
	}
	return score, nil
}

// precision is the positive predictive value.
type precision struct{}

func (precision) Name() string    { return "precision" }
func (precision) Sorting() string { return SortAscending }

func (precision) Info() Info {
	return Info{
		Name:       "precision",
		Link:       "https://en.wikipedia.org/wiki/Precision_and_recall",
		Sorting:    SortAscending,
		Parameters: prfParams,
	}
}

func (precision) Calculate(expected, out []string, params Params) (float64, error) {
	return prfScore(kindPrecision, 1, expected, out, params)
}

// recall is the true positive rate.
type recall struct{}

func (recall) Name() string    { return "recall" }
func (recall) Sorting() string { return SortAscending }

func (recall) Info() Info {
	return Info{
		Name:       "recall",
		Link:       "https://en.wikipedia.org/wiki/Precision_and_recall",
		Sorting:    SortAscending,
		Parameters: prfParams,
	}
}

func (recall) Calculate(expected, out []string, params Params) (float64, error) {
	return prfScore(kindRecall, 1, expected, out, params)
}

// f1 is the harmonic mean of precision and recall.
type f1 struct{}

func (f1) Name() string    { return "f1" }
func (f1) Sorting() string { return SortAscending }

func (f1) Info() Info {
	return Info{
		Name:       "f1 score",
		Link:       "https://en.wikipedia.org/wiki/F-score",
		Sorting:    SortAscending,
		Parameters: prfParams,
	}
}

func (f1) Calculate(expected, out []string, params Params) (float64, error) {
	return prfScore(kindFBeta, 1, expected, out, params)
}

// fbetaScore weights recall beta times as much as precision.
type fbetaScore struct{}

func (fbetaScore) Name() string    { return "fbeta_score" }
func (fbetaScore) Sorting() string { return SortAscending }

func (fbetaScore) Info() Info {
	params := append([]ParamInfo{
		{Name: "beta", DataType: "float", DefaultValue: "1"},
	}, prfParams...)
	return Info{
		Name:       "F-beta score",
		Link:       "https://en.wikipedia.org/wiki/F-score",
		Sorting:    SortAscending,
		Parameters: params,
	}
}

func (fbetaScore) Calculate(expected, out []string, params Params) (float64, error) {
	beta, err := floatParam(params, "beta", 1)
	if err != nil {
		return 0, err
	}
	if beta < 0 {
		return 0, fmt.Errorf("parameter \"beta\" must be non-negative, got %v", beta)
	}
	return prfScore(kindFBeta, beta, expected, out, params)
}

// hammingLoss is the fraction of labels predicted incorrectly.
type hammingLoss struct{}

func (hammingLoss) Name() string    { return "hamming_loss" }
func (hammingLoss) Sorting() string { return SortDescending }

func (hammingLoss) Info() Info {
	return Info{
		Name:       "Hamming loss",
		Link:       "https://en.wikipedia.org/wiki/Hamming_distance",
		Sorting:    SortDescending,
		Parameters: nil,
	}
}

func (hammingLoss) Calculate(expected, out []string, params Params) (float64, error) {
	if err := checkLengths(expected, out); err != nil {
		return 0, err
	}
	expected, out = trimAll(expected), trimAll(out)

	var wrong float64
	for i := range expected {
		if expected[i] != out[i] {
			wrong++
		}
	}
	return wrong / float64(len(expected)), nil
}

// cohenKappa measures inter-rater agreement corrected for chance.
type cohenKappa struct{}

func (cohenKappa) Name() string    { return "cohen_kappa" }
func (cohenKappa) Sorting() string { return SortAscending }

func (cohenKappa) Info() Info {
	return Info{
		Name:    "Cohen kappa",
		Link:    "https://en.wikipedia.org/wiki/Cohen%27s_kappa",
		Sorting: SortAscending,
		Parameters: []ParamInfo{
			{Name: "weights", DataType: "string", DefaultValue: ""},
		},
	}
}

func (cohenKappa) Calculate(expected, out []string, params Params) (float64, error) {
	if err := checkLengths(expected, out); err != nil {
		return 0, err
	}
	weights, err := stringParam(params, "weights", "")
	if err != nil {
		return 0, err
	}
	if weights != "" && weights != "linear" && weights != "quadratic" {
		return 0, fmt.Errorf("parameter \"weights\" must be '', 'linear' or 'quadratic', got %q", weights)
	}

	c := newConfusion(trimAll(expected), trimAll(out))
	n := len(c.labels)

	// Weight matrix: identity complement for unweighted, |i-j| for linear,
	// (i-j)^2 for quadratic.
	weight := func(i, j int) float64 {
		d := float64(i - j)
		switch weights {
		case "linear":
			return math.Abs(d)
		case "quadratic":
			return d * d
		default:
			if i == j {
				return 0
			}
			return 1
		}
	}

	var observed, chance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w := weight(i, j)
			observed += w * c.counts[i][j]
			chance += w * c.trueCount(i) * c.predCount(j) / c.total
		}
	}
	if chance == 0 {
		return 0, nil
	}
	return 1 - observed/chance, nil
}

// matthewsCorrelation is the multiclass Matthews correlation coefficient.
type matthewsCorrelation struct{}

func (matthewsCorrelation) Name() string    { return "matthews_correlation" }
func (matthewsCorrelation) Sorting() string { return SortAscending }

func (matthewsCorrelation) Info() Info {
	return Info{
		Name:       "Matthews correlation coefficient",
		Link:       "https://en.wikipedia.org/wiki/Phi_coefficient",
		Sorting:    SortAscending,
		Parameters: nil,
	}
}

func (matthewsCorrelation) Calculate(expected, out []string, params Params) (float64, error) {
	if err := checkLengths(expected, out); err != nil {
		return 0, err
	}

	c := newConfusion(trimAll(expected), trimAll(out))
	s := c.total

	var trace, pt, pp, tt float64
	for i := range c.labels {
		trace += c.counts[i][i]
		t := c.trueCount(i)
		p := c.predCount(i)
		pt += p * t
		pp += p * p
		tt += t * t
	}

	num := trace*s - pt
	den := math.Sqrt(s*s-pp) * math.Sqrt(s*s-tt)
	if den == 0 {
		return 0, nil
	}
	return num / den, nil
}

// logLoss is binary cross-entropy between 0/1 labels and probabilities.
type logLoss struct{}

func (logLoss) Name() string    { return "log_loss" }
func (logLoss) Sorting() string { return SortDescending }

func (logLoss) Info() Info {
	return Info{
		Name:    "log loss",
		Link:    "https://en.wikipedia.org/wiki/Cross-entropy",
		Sorting: SortDescending,
		Parameters: []ParamInfo{
			{Name: "eps", DataType: "float", DefaultValue: "1e-15"},
		},
	}
}

func (logLoss) Calculate(expected, out []string, params Params) (float64, error) {
	if err := checkLengths(expected, out); err != nil {
		return 0, err
	}
	eps, err := floatParam(params, "eps", 1e-15)
	if err != nil {
		return 0, err
	}

	labels, err := parseFloats(expected)
	if err != nil {
		return 0, fmt.Errorf("expected file: %w", err)
	}
	probs, err := parseFloats(out)
	if err != nil {
		return 0, fmt.Errorf("output file: %w", err)
	}

	var sum float64
	for i, y := range labels {
		p := math.Min(math.Max(probs[i], eps), 1-eps)
		sum += y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return -sum / float64(len(labels)), nil
}
