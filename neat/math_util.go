package neat

import "gonum.org/v1/gonum/stat"

// meanOf reports the mean of values, or 0.0 for an empty slice (stat.Mean
// panics on empty input, which every call site here treats as "no data
// yet" rather than a programming error).
func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return stat.Mean(values, nil)
}

// stdevOf reports the sample standard deviation of values, or 0.0 when
// fewer than two samples exist (stat.StdDev is undefined below that).
func stdevOf(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	return stat.StdDev(values, nil)
}
