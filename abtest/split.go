// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package abtest

import "sort"

// Traffic split bounds. With a 50/50 coin, exposure shares outside this
// band at any realistic sample size point at an instrumentation bug
// (dropped exposures on one arm, caching, a biased classifier), not luck.
const (
	splitLowerBound = 0.40
	splitUpperBound = 0.60
)

// VariantShare is one variant's slice of total exposures.
type VariantShare struct {
	Variant   string
	Exposures int
	Share     float64
	Flagged   bool
}

// SplitCheck is the outcome of a sample-ratio-mismatch check.
type SplitCheck struct {
	TotalExposures int
	Shares         []VariantShare
	Balanced       bool
}

// CheckTrafficSplit flags variants whose exposure share falls outside
// [40%, 60%] of the total. Only meaningful with exactly two variants;
// with any other number (or zero exposures) it reports balanced=true
// and no flags, leaving the judgment to the analyzer's variant check.
func CheckTrafficSplit(counts Counts) SplitCheck {
	labels := make([]string, 0, len(counts))
	total := 0
	for v, vc := range counts {
		labels = append(labels, v)
		total += vc.Exposures
	}
	sort.Strings(labels)

	check := SplitCheck{TotalExposures: total, Balanced: true}
	for _, v := range labels {
		share := VariantShare{
			Variant:   v,
			Exposures: counts[v].Exposures,
		}
		if total > 0 {
			share.Share = float64(share.Exposures) / float64(total)
		}
		if len(counts) == 2 && total > 0 {
			share.Flagged = share.Share < splitLowerBound || share.Share > splitUpperBound
			if share.Flagged {
				check.Balanced = false
			}
		}
		check.Shares = append(check.Shares, share)
	}
	return check
}
