// Package metrics implements the evaluation metric registry.
//
// A metric scores a submission's output lines against a challenge's
// expected lines. Numeric metrics parse lines as floats; label metrics
// compare lines (or whitespace-separated tokens) as strings. Every metric
// declares a sorting direction so leaderboards know whether a higher or
// lower score wins.
//
// Metrics accept parameters as a JSON object decoded into a Params map.
// Unknown parameter names are rejected, so a challenge cannot be created
// with a misconfigured test.
package metrics
