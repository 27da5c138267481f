/*
Package metrics exports Prometheus instrumentation for deckhand.

Collectors cover the three things a watchstander cares about: how many
loggers are in each state, how often pipelines restart or fail for
good, and how long reconciliation cycles take. The supervisor updates
the gauges on every status scan; counters are bumped at the point of
action.

Expose the endpoint with the standard handler:

	http.Handle("/metrics", metrics.Handler())

The Timer helper pairs with the duration histograms:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconcileDuration)
*/
package metrics
