package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pydevdocs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	gatherer          prom.Gatherer
	stageDuration     *prom.HistogramVec
	buildDuration     prom.Histogram
	stageResults      *prom.CounterVec
	buildOutcome      *prom.CounterVec
	classCategories   *prom.CounterVec
	templateRenders   *prom.CounterVec
	pageResults       *prom.CounterVec
	issues            *prom.CounterVec
	renderConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{gatherer: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.classCategories = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "classes_total",
		Help:      "Classified classes by category",
	}, []string{"category"})
	pr.templateRenders = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "template_renders_total",
		Help:      "Template executions by template and whether the generic fallback was used",
	}, []string{"template", "fallback"})
	pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "pages_total",
		Help:      "Output pages by result",
	}, []string{"result"})
	pr.issues = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "issues_total",
		Help:      "Build issues by code",
	}, []string{"code"})
	pr.renderConcurrency = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "render_concurrency",
		Help:      "Render workers used by the last build",
	})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.classCategories, pr.templateRenders, pr.pageResults, pr.issues, pr.renderConcurrency)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncClassCategory(category string) {
	if p == nil {
		return
	}
	p.classCategories.WithLabelValues(category).Inc()
}

func (p *PrometheusRecorder) IncTemplateRender(template string, fallback bool) {
	if p == nil {
		return
	}
	p.templateRenders.WithLabelValues(template, strconv.FormatBool(fallback)).Inc()
}

func (p *PrometheusRecorder) IncPageResult(result PageResult) {
	if p == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncIssue(code string) {
	if p == nil {
		return
	}
	p.issues.WithLabelValues(code).Inc()
}

func (p *PrometheusRecorder) SetRenderConcurrency(n int) {
	if p == nil {
		return
	}
	p.renderConcurrency.Set(float64(n))
}

// Gatherer exposes the registry the recorder writes to.
func (p *PrometheusRecorder) Gatherer() prom.Gatherer { return p.gatherer }

// WriteTextfile writes the current metrics in the text exposition format,
// for collection by the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
