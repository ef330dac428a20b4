package subset

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// TrimmedMean is the mean of the values within one sample standard
// deviation of the mean.  A single value is its own mean.
func TrimmedMean(xs []float64) float64 {
	switch len(xs) {
	case 0:
		return math.NaN()
	case 1:
		return xs[0]
	}
	mean := stat.Mean(xs, nil)
	sd := stat.StdDev(xs, nil)

	kept := make([]float64, 0, len(xs))
	for _, x := range xs {
		if math.Abs(x-mean) <= sd {
			kept = append(kept, x)
		}
	}
	if len(kept) == 0 {
		return mean
	}
	return stat.Mean(kept, nil)
}

// StudentReferenceIndex guesses how much an article is used for
// school work from its monthly views, oldest month first, with the
// last month being a March.
//
// The three most recent months are dropped.  Going back a year at a
// time, the trimmed mean of March, April, October and November is
// divided by the mean of June and July.  The result is the trimmed
// mean of the yearly ratios, or 1 if there is no complete year or any
// year has no summer views.
func StudentReferenceIndex(views []int64) float64 {
	back := slices.Clone(views)
	slices.Reverse(back)
	if len(back) <= 3 {
		return 1
	}
	back = back[3:]

	var ratios []float64
	for ; len(back) >= 12; back = back[12:] {
		school := TrimmedMean([]float64{
			float64(back[1]), float64(back[2]), float64(back[8]), float64(back[9]),
		})
		summer := float64(back[5]+back[6]) / 2
		if summer == 0 {
			return 1
		}
		ratios = append(ratios, school/summer)
	}
	if len(ratios) == 0 {
		return 1
	}
	return TrimmedMean(ratios)
}
