// Package stats holds the closed-form statistics used by the analytics and
// net worth engines. Inputs are plain float64 samples; rounding goes through
// decimal so 2-dp results do not carry binary noise.
package stats

import (
	"math"

	"github.com/govalues/decimal"
)

// Sum adds the samples.
func Sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return Sum(xs) / float64(len(xs))
}

// SampleStdDev divides by n-1 and returns 0 when n < 2.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// PopulationStdDev divides by n and returns 0 for an empty slice.
func PopulationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Max returns the largest sample, 0 for an empty slice.
func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// Min returns the smallest sample, 0 for an empty slice.
func Min(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// PercentChange returns (to-from)/from*100, 0 when from is 0.
func PercentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

// Round rounds to the given number of decimal places (ties to even).
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	d, err := decimal.NewFromFloat64(x)
	if err != nil {
		p := math.Pow(10, float64(places))
		return math.Round(x*p) / p
	}
	f, _ := d.Round(places).Float64()
	return f
}

// Round2 is Round(x, 2).
func Round2(x float64) float64 { return Round(x, 2) }

// Float converts a decimal to float64 for statistics.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
