// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package abtest

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrInsufficientVariants is returned when the counts do not contain
	// exactly two variants with data.
	ErrInsufficientVariants = errors.New("analysis requires exactly two variants")

	// ErrZeroStandardError is returned when the pooled standard error is
	// zero (no exposures, or conversion rates pinned at 0 or 1 on both
	// sides), which makes the z statistic undefined.
	ErrZeroStandardError = errors.New("standard error is zero")
)

// Options configures an analysis run.
type Options struct {
	// ConfidenceLevel for the interval and the significance decision,
	// e.g. 0.95. Zero means 0.95.
	ConfidenceLevel float64
	// Control names the variant to treat as A. When empty or absent from
	// the counts, variants are taken in lexicographic order.
	Control string
}

// VariantStats is one arm's aggregate numbers.
type VariantStats struct {
	Variant     string
	Exposures   int
	Conversions int
	// Rate is conversions/exposures, 0 when there are no exposures.
	Rate float64
}

// Report is the outcome of a two-proportion z-test over the counts.
// A is the control arm, B the treatment arm. Difference and the
// confidence interval are B minus A in absolute rate.
type Report struct {
	A VariantStats
	B VariantStats

	Difference     float64
	RelativeChange float64 // (B-A)/A, NaN-free: 0 when A has rate 0
	ZScore         float64
	PValue         float64
	EffectSize     float64 // Cohen's h

	ConfidenceLevel float64
	CILower         float64
	CIUpper         float64
	Significant     bool
}

// Analyze runs a pooled two-proportion z-test over aggregate counts.
// Pure function: no storage, no clock. The p-value is two-tailed.
func Analyze(counts Counts, opts Options) (Report, error) {
	if len(counts) != 2 {
		return Report{}, ErrInsufficientVariants
	}
	conf := opts.ConfidenceLevel
	if conf == 0 {
		conf = 0.95
	}
	if conf <= 0 || conf >= 1 {
		return Report{}, errors.New("confidence level must be in (0, 1)")
	}

	labels := make([]string, 0, 2)
	for v := range counts {
		labels = append(labels, v)
	}
	sort.Strings(labels)
	if opts.Control != "" && labels[1] == opts.Control {
		labels[0], labels[1] = labels[1], labels[0]
	}

	a := newVariantStats(labels[0], counts[labels[0]])
	b := newVariantStats(labels[1], counts[labels[1]])
	if a.Exposures == 0 || b.Exposures == 0 {
		return Report{}, ErrZeroStandardError
	}

	nA, nB := float64(a.Exposures), float64(b.Exposures)
	pooled := float64(a.Conversions+b.Conversions) / (nA + nB)
	sePooled := math.Sqrt(pooled * (1 - pooled) * (1/nA + 1/nB))
	if sePooled == 0 {
		return Report{}, ErrZeroStandardError
	}

	diff := b.Rate - a.Rate
	z := diff / sePooled
	pValue := 2 * (1 - normCDF(math.Abs(z)))

	// CI uses the unpooled standard error.
	seDiff := math.Sqrt(a.Rate*(1-a.Rate)/nA + b.Rate*(1-b.Rate)/nB)
	zCrit := zCritical(conf)

	rel := 0.0
	if a.Rate > 0 {
		rel = diff / a.Rate
	}

	return Report{
		A:               a,
		B:               b,
		Difference:      diff,
		RelativeChange:  rel,
		ZScore:          z,
		PValue:          pValue,
		EffectSize:      cohensH(a.Rate, b.Rate),
		ConfidenceLevel: conf,
		CILower:         diff - zCrit*seDiff,
		CIUpper:         diff + zCrit*seDiff,
		Significant:     pValue < 1-conf,
	}, nil
}

// RelativeChange returns the relative rate change of to against from,
// e.g. RelativeChange(0.30, 0.20) = -1/3. Zero when from is zero.
func RelativeChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from
}

func newVariantStats(label string, vc VariantCounts) VariantStats {
	s := VariantStats{
		Variant:     label,
		Exposures:   vc.Exposures,
		Conversions: vc.Conversions,
	}
	if vc.Exposures > 0 {
		s.Rate = float64(vc.Conversions) / float64(vc.Exposures)
	}
	return s
}

// normCDF is the standard normal CDF Φ.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// cohensH is the effect size for two proportions.
func cohensH(pA, pB float64) float64 {
	return 2 * (math.Asin(math.Sqrt(pB)) - math.Asin(math.Sqrt(pA)))
}

// zCritical returns the two-tailed critical value for the given
// confidence level. The common levels are table lookups; anything else
// falls through to the Abramowitz-Stegun 26.2.23 rational approximation
// of the normal quantile (error below 4.5e-4, plenty for a report).
func zCritical(conf float64) float64 {
	switch conf {
	case 0.90:
		return 1.64485
	case 0.95:
		return 1.95996
	case 0.99:
		return 2.57583
	}
	return normQuantile((1 + conf) / 2)
}

// normQuantile approximates the standard normal quantile for q in (0.5, 1).
func normQuantile(q float64) float64 {
	p := 1 - q
	t := math.Sqrt(-2 * math.Log(p))
	num := 2.515517 + t*(0.802853+t*0.010328)
	den := 1 + t*(1.432788+t*(0.189269+t*0.001308))
	return t - num/den
}
