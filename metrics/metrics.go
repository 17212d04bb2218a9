// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExposuresTotal counts exposure events actually written, by variant.
	ExposuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidepost_ab_exposures_total",
		Help: "Exposure events recorded, by variant.",
	}, []string{"variant"})

	// ConversionsTotal counts conversion events written, by variant.
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidepost_ab_conversions_total",
		Help: "Conversion events recorded, by variant.",
	}, []string{"variant"})

	// IneligibleRequestsTotal counts experiment page views the classifier
	// excluded from exposure counting.
	IneligibleRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guidepost_ab_ineligible_requests_total",
		Help: "Experiment page views classified as non-human or non-navigation.",
	})

	// StorageErrorsTotal counts swallowed storage failures in the event
	// path, by operation.
	StorageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidepost_ab_storage_errors_total",
		Help: "Storage failures in the experiment event path, by operation.",
	}, []string{"op"})

	// HTTPRequestsTotal counts requests by route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidepost_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"route", "status"})
)
