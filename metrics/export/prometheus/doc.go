// Package prometheus provides Prometheus collectors for scoregate metrics.
//
// [NewPrometheusExporter] accepts a [scoregate.Engine] and exposes an [http.Handler]
// that renders all scoregate counters and histograms in Prometheus text exposition
// format. Counter names are prefixed scoregate_*_total; the single histogram is
// scoregate_commit_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
