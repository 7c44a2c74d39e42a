package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.IncClassCategory("enum")
	pr.IncClassCategory("enum")
	pr.IncTemplateRender("class.rst", true)
	pr.IncPageResult(PageWritten)
	pr.IncIssue("MISSING_TEMPLATE")
	pr.SetRenderConcurrency(4)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	body := scrape(t, pr)
	assert.Contains(t, body, `pydevdocs_classes_total{category="enum"} 2`)
	assert.Contains(t, body, `pydevdocs_template_renders_total{fallback="true",template="class.rst"} 1`)
	assert.Contains(t, body, `pydevdocs_render_concurrency 4`)
}

func scrape(t *testing.T, pr *PrometheusRecorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	HTTPHandler(pr.Gatherer()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncIssue("RENDER_FAILURE")
		pr.ObserveBuildDuration(time.Second)
	})
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncPageResult(PageUnchanged)

	path := filepath.Join(t.TempDir(), "metrics", "pydevdocs.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pydevdocs_pages_total{result="unchanged"} 1`)
}

func TestHTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome("warning")

	assert.True(t, strings.Contains(scrape(t, pr), `pydevdocs_build_outcomes_total{outcome="warning"} 1`))
}
