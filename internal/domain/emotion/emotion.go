// Package emotion defines the five-dimensional pet emotion vector and the
// normalizer every provider result passes through.
package emotion

import (
	"math"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimals kept in a normalized vector.
const Precision = 3

// Tolerance bounds how far the sum of a normalized vector may drift from 1.0
// because of per-component rounding.
const Tolerance = 0.005

// Names lists the emotions in their canonical order.
var Names = [5]string{"happiness", "sadness", "anxiety", "sleepiness", "curiosity"}

// Scores is a pet emotion vector. Values are independent and carry no unit
// until Normalize turns them into a distribution.
type Scores struct {
	Happiness  float64 `json:"happiness"`
	Sadness    float64 `json:"sadness"`
	Anxiety    float64 `json:"anxiety"`
	Sleepiness float64 `json:"sleepiness"`
	Curiosity  float64 `json:"curiosity"`
}

// Uniform returns the vector with every emotion at 0.2.
func Uniform() Scores {
	return Scores{Happiness: 0.2, Sadness: 0.2, Anxiety: 0.2, Sleepiness: 0.2, Curiosity: 0.2}
}

// FromSlice builds a Scores from five values in canonical order. Extra values are ignored.
func FromSlice(v []float64) Scores {
	var a [5]float64
	copy(a[:], v)
	return Scores{Happiness: a[0], Sadness: a[1], Anxiety: a[2], Sleepiness: a[3], Curiosity: a[4]}
}

// Values returns the vector in canonical order.
func (s Scores) Values() [5]float64 {
	return [5]float64{s.Happiness, s.Sadness, s.Anxiety, s.Sleepiness, s.Curiosity}
}

// Sum adds all five values.
func (s Scores) Sum() float64 {
	var sum float64
	for _, v := range s.Values() {
		sum += v
	}
	return sum
}

// Valid reports whether s is a normalized distribution: non-negative,
// rounded to Precision decimals and summing to 1 within Tolerance.
func (s Scores) Valid() bool {
	for _, v := range s.Values() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		if Round(v) != v {
			return false
		}
	}
	return math.Abs(s.Sum()-1) <= Tolerance
}

// Dominant returns the name of the highest-scoring emotion. Ties keep the earlier name.
func (s Scores) Dominant() string {
	best, idx := -1.0, 0
	for i, v := range s.Values() {
		if v > best {
			best, idx = v, i
		}
	}
	return Names[idx]
}

// Normalize turns a raw vector into a distribution. Negative, NaN and infinite
// components count as 0. Each component is divided by the sum and rounded
// half away from zero to Precision decimals. An all-zero input has no
// meaningful distribution and yields ErrNoSignal.
func Normalize(raw Scores) (Scores, error) {
	vals := raw.Values()
	var sum float64
	for i, v := range vals {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			vals[i] = 0
			continue
		}
		sum += v
	}
	if sum == 0 {
		return Scores{}, ErrNoSignal
	}

	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = Round(v / sum)
	}
	return FromSlice(out), nil
}

// Round rounds v half away from zero to Precision decimals.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(Precision).InexactFloat64()
}
