// Package metrics provides observability hooks for the companion engine.
//
// Components receive a Recorder through options and default to NoopRecorder:
//
//	engine := lifecycle.New(cells, tuning, timers, lifecycle.WithRecorder(recorder))
//
// `companion run` constructs a PrometheusRecorder on a private registry and,
// when monitoring is enabled, serves it via HTTPHandler.
package metrics
