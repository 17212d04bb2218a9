// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package abtest implements the two-armed experiment subsystem: request
classification, sticky variant assignment, exposure/conversion logging,
aggregation, and offline statistical analysis.

# Classifier

IsEligibleNavigation decides whether a request counts as a human
top-level navigation. It gates exposure counting only; every visitor
still gets a variant and a page. The check fails closed on empty or
unrecognized user agents and consults Sec-Fetch metadata when present.

# Assignment

Engine.GetOrAssign returns the session's sticky variant, flipping an
unbiased coin on first contact. Persistence is insert-if-absent plus a
re-read, so concurrent first requests converge on one stored winner.
Engine.Force pins a variant for QA and marks the assignment forced.

# Events

Recorder writes the event stream. Exposures are deduplicated to at most
one per (experiment, endpoint, session) by a partial unique index; the
insert itself is the atomic check. Conversions are never deduplicated,
and the first conversion backfills a missing exposure so a click always
implies an exposure. Storage failures drop the event (logged and counted
in metrics) rather than failing the visitor's request.

# Aggregation and analysis

Log.CountByVariantKind produces per-variant exposure/conversion counts
in a single grouped query. Analyze runs a pooled two-proportion z-test
over those counts: two-tailed p-value, confidence interval from the
unpooled standard error, Cohen's h effect size. CheckTrafficSplit flags
sample-ratio mismatch when either arm's exposure share leaves [40%, 60%].

# Maintenance

Log.PurgeSuspectedBots deletes events from sessions the classifier
missed, by probe prefix, implausibly short session ids, and one-minute
event bursts. Dry-run mode previews the counts without deleting.
*/
package abtest
