// Package build is the documentation build pipeline.
//
// A build takes one or more entity trees, renders one page per module or
// package in parallel, writes pages whose content changed and finishes with
// an index page and a build report. Problems with individual entities degrade
// the affected blocks and are recorded as report issues; only failures to
// write output or cancellation fail a build.
package build
