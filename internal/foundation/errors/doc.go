// Package errors provides the classified error primitives used across pydevdocs.
//
// A ClassifiedError carries a category (config, scan, render, ...), a
// severity, an optional remediation hint and a free-form context map. Packages wrap their
// low-level errors with fmt.Errorf internally and classify at their public
// boundary; the CLI adapter turns categories into exit codes.
//
// Example usage:
//
//	err := errors.ScanError("parse failed").
//		WithContext("file", path).
//		WithCause(parseErr).
//		Build()
package errors
