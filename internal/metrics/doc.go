// Package metrics provides build metrics for pydevdocs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	type Builder struct {
//	    recorder metrics.Recorder
//	}
//
// PrometheusRecorder registers its collectors on a private registry. One-shot
// builds write the registry as a node exporter textfile with WriteTextfile;
// long-running watch sessions can serve it with HTTPHandler.
package metrics
