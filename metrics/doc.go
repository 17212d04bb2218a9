// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics defines the Prometheus instrumentation for the server.

All collectors are registered with the default registry via promauto and
exposed on GET /metrics through promhttp. Counters only; the experiment's
real numbers live in the event log, these exist for operational alerting
(a stuck exposure counter or a climbing storage error rate is visible
before anyone runs a report).
*/
package metrics
