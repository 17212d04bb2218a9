// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package abtest

// Event types recorded in the experiment log.
const (
	EventExposure   = "exposure"
	EventConversion = "conversion"
)

// Exposure policies. Under on-view an eligible page view logs the exposure;
// under on-click the view only assigns and the first conversion backfills it.
const (
	PolicyOnView  = "on-view"
	PolicyOnClick = "on-click"
)

// Experiment describes one running two-variant test. VariantA is the
// control, VariantB the treatment. Endpoint is the page path the
// experiment lives on, recorded with every event so the same experiment
// name could later run on another surface without mixing data.
type Experiment struct {
	Name     string
	Endpoint string
	VariantA string
	VariantB string
}

// Variants returns the two variant labels in control-first order.
func (e Experiment) Variants() [2]string {
	return [2]string{e.VariantA, e.VariantB}
}

// ValidVariant reports whether label is one of this experiment's variants.
func (e Experiment) ValidVariant(label string) bool {
	return label == e.VariantA || label == e.VariantB
}
