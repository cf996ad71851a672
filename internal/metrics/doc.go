// Package metrics records build metrics for the phase engine.
//
// Components receive a Recorder through dependency injection and default to NoopRecorder,
// so metrics collection needs no nil checks at call sites:
//
//	eng := engine.New(settings, proc)               // NoopRecorder
//	eng.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A build is a short-lived process, so the Prometheus implementation is not scraped over
// HTTP. WriteTextfile dumps the registry in the text exposition format, ready for the node
// exporter's textfile collector.
package metrics
