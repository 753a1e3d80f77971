package metrics

import (
	"fmt"
	"math"
	"sort"
)

func regressionValues(expected, out []string) (exp, got []float64, err error) {
	if err := checkLengths(expected, out); err != nil {
		return nil, nil, err
	}
	exp, err = parseFloats(expected)
	if err != nil {
		return nil, nil, fmt.Errorf("expected file: %w", err)
	}
	got, err = parseFloats(out)
	if err != nil {
		return nil, nil, fmt.Errorf("output file: %w", err)
	}
	return exp, got, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// meanAbsoluteError averages absolute residuals.
type meanAbsoluteError struct{}

func (meanAbsoluteError) Name() string    { return "mae" }
func (meanAbsoluteError) Sorting() string { return SortDescending }

func (meanAbsoluteError) Info() Info {
	return Info{
		Name:       "mean absolute error",
		Link:       "https://en.wikipedia.org/wiki/Mean_absolute_error",
		Sorting:    SortDescending,
		Parameters: nil,
	}
}

func (meanAbsoluteError) Calculate(expected, out []string, params Params) (float64, error) {
	exp, got, err := regressionValues(expected, out)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range exp {
		sum += math.Abs(exp[i] - got[i])
	}
	return sum / float64(len(exp)), nil
}

// meanSquaredError averages squared residuals.
type meanSquaredError struct{}

func (meanSquaredError) Name() string    { return "mse" }
func (meanSquaredError) Sorting() string { return SortDescending }

func (meanSquaredError) Info() Info {
	return Info{
		Name:       "mean squared error",
		Link:       "https://en.wikipedia.org/wiki/Mean_squared_error",
		Sorting:    SortDescending,
		Parameters: nil,
	}
}

func (meanSquaredError) Calculate(expected, out []string, params Params) (float64, error) {
	exp, got, err := regressionValues(expected, out)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range exp {
		d := exp[i] - got[i]
		sum += d * d
	}
	return sum / float64(len(exp)), nil
}

// rootMeanSquaredError is the square root of MSE.
type rootMeanSquaredError struct{}

func (rootMeanSquaredError) Name() string    { return "rmse" }
func (rootMeanSquaredError) Sorting() string { return SortDescending }

func (rootMeanSquaredError) Info() Info {
	return Info{
		Name:       "root mean squared error",
		Link:       "https://en.wikipedia.org/wiki/Root_mean_square_deviation",
		Sorting:    SortDescending,
		Parameters: nil,
	}
}

func (rootMeanSquaredError) Calculate(expected, out []string, params Params) (float64, error) {
	mse, err := meanSquaredError{}.Calculate(expected, out, params)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// explainedVariance measures the proportion of target variance the
// predictions account for.
type explainedVariance struct{}

func (explainedVariance) Name() string    { return "explained_variance" }
func (explainedVariance) Sorting() string { return SortAscending }

func (explainedVariance) Info() Info {
	return Info{
		Name:       "explained variance",
		Link:       "https://en.wikipedia.org/wiki/Explained_variation",
		Sorting:    SortAscending,
		Parameters: nil,
	}
}

func (explainedVariance) Calculate(expected, out []string, params Params) (float64, error) {
	exp, got, err := regressionValues(expected, out)
	if err != nil {
		return 0, err
	}

	residuals := make([]float64, len(exp))
	for i := range exp {
		residuals[i] = exp[i] - got[i]
	}

	expVar := variance(exp)
	if expVar == 0 {
		return 0, nil
	}
	return 1 - variance(residuals)/expVar, nil
}

// rSquared is the coefficient of determination. Unlike explained
// variance it penalizes a constant offset in the predictions.
type rSquared struct{}

func (rSquared) Name() string    { return "r2" }
func (rSquared) Sorting() string { return SortAscending }

func (rSquared) Info() Info {
	return Info{
		Name:       "R squared",
		Link:       "https://en.wikipedia.org/wiki/Coefficient_of_determination",
		Sorting:    SortAscending,
		Parameters: nil,
	}
}

func (rSquared) Calculate(expected, out []string, params Params) (float64, error) {
	exp, got, err := regressionValues(expected, out)
	if err != nil {
		return 0, err
	}

	m := mean(exp)
	var ssRes, ssTot float64
	for i := range exp {
		r := exp[i] - got[i]
		ssRes += r * r
		d := exp[i] - m
		ssTot += d * d
	}
	if ssTot == 0 {
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// medianAbsoluteError is the median of absolute residuals, robust to
// outliers.
type medianAbsoluteError struct{}

func (medianAbsoluteError) Name() string    { return "median_absolute_error" }
func (medianAbsoluteError) Sorting() string { return SortDescending }

func (medianAbsoluteError) Info() Info {
	return Info{
		Name:       "median absolute error",
		Link:       "https://en.wikipedia.org/wiki/Median_absolute_deviation",
		Sorting:    SortDescending,
		Parameters: nil,
	}
}

func (medianAbsoluteError) Calculate(expected, out []string, params Params) (float64, error) {
	exp, got, err := regressionValues(expected, out)
	if err != nil {
		return 0, err
	}

	residuals := make([]float64, len(exp))
	for i := range exp {
		residuals[i] = math.Abs(exp[i] - got[i])
	}
	sort.Float64s(residuals)

	n := len(residuals)
	if n%2 == 1 {
		return residuals[n/2], nil
	}
	return (residuals[n/2-1] + residuals[n/2]) / 2, nil
}
