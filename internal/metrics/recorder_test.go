package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// testRecorder counts calls; it doubles as a reference for custom recorders.
type testRecorder struct {
	mu            sync.Mutex
	stageResults  map[string]map[ResultLabel]int
	buildOutcomes map[string]int
	pages         map[PageResult]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageResults:  map[string]map[ResultLabel]int{},
		buildOutcomes: map[string]int{},
		pages:         map[PageResult]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(string, time.Duration) {}
func (t *testRecorder) ObserveBuildDuration(time.Duration)         {}
func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) IncBuildOutcome(outcome string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buildOutcomes[outcome]++
}
func (t *testRecorder) IncClassCategory(string)        {}
func (t *testRecorder) IncTemplateRender(string, bool) {}
func (t *testRecorder) IncPageResult(r PageResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pages[r]++
}
func (t *testRecorder) IncIssue(string)          {}
func (t *testRecorder) SetRenderConcurrency(int) {}

func TestRecorderImplementations(t *testing.T) {
	var recorders = []Recorder{NoopRecorder{}, newTestRecorder(), NewPrometheusRecorder(nil)}
	for _, r := range recorders {
		r.IncStageResult("write", ResultWarning)
		r.IncBuildOutcome("warning")
		r.IncPageResult(PageWritten)
	}

	tr := recorders[1].(*testRecorder)
	assert.Equal(t, 1, tr.stageResults["write"][ResultWarning])
	assert.Equal(t, 1, tr.buildOutcomes["warning"])
	assert.Equal(t, 1, tr.pages[PageWritten])
}
