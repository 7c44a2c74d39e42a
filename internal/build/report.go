package build

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Report file names written into the output directory.
const (
	ReportJSONFile = "build-report.json"
	ReportTextFile = "build-report.txt"
)

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// IssueCode enumerates machine-parseable issue identifiers. Codes are a
// stable contract: append only.
type IssueCode string

const (
	IssueMissingTemplate IssueCode = "MISSING_TEMPLATE"
	IssueMalformedEntity IssueCode = "MALFORMED_ENTITY"
	IssueRenderFailure   IssueCode = "RENDER_FAILURE"
	IssueDuplicatePage   IssueCode = "DUPLICATE_PAGE"
	IssueNoEntities      IssueCode = "NO_ENTITIES"
	IssueStateFailure    IssueCode = "STATE_FAILURE"
	IssueWriteFailure    IssueCode = "WRITE_FAILURE"
	IssueCanceled        IssueCode = "BUILD_CANCELED"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one structured problem encountered during a build.
type Issue struct {
	Code     IssueCode     `json:"code"`
	Severity IssueSeverity `json:"severity"`
	Entity   string        `json:"entity,omitempty"`
	Page     string        `json:"page,omitempty"`
	Message  string        `json:"message"`
}

// Report captures what a build did.
type Report struct {
	SchemaVersion int       `json:"schema_version"`
	BuildID       string    `json:"build_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`

	// Entities counts documented entities by kind; Categories counts classes
	// by category.
	Entities   map[string]int `json:"entities"`
	Categories map[string]int `json:"categories"`
	// Templates counts template executions by template name.
	Templates map[string]int `json:"templates"`

	Pages          int `json:"pages"`
	RenderedPages  int `json:"rendered_pages"`
	UnchangedPages int `json:"unchanged_pages"`
	PrunedPages    int `json:"pruned_pages"`
	// FailedPages counts pages that rendered but could not be written.
	FailedPages int `json:"failed_pages,omitempty"`
	Fallbacks   int `json:"fallbacks"`
	// DegradedEntities lists qualified ids that were skipped or rendered as
	// a placeholder, sorted.
	DegradedEntities []string `json:"degraded_entities"`

	StageDurations map[string]time.Duration `json:"stage_durations"`
	Issues         []Issue                  `json:"issues"`
	Outcome        Outcome                  `json:"outcome"`
	Error          string                   `json:"error,omitempty"`
	DryRun         bool                     `json:"dry_run,omitempty"`
}

func newReport(buildID string) *Report {
	return &Report{
		SchemaVersion:    1,
		BuildID:          buildID,
		Start:            time.Now(),
		Entities:         map[string]int{},
		Categories:       map[string]int{},
		Templates:        map[string]int{},
		StageDurations:   map[string]time.Duration{},
		Issues:           []Issue{},
		DegradedEntities: []string{},
	}
}

// AddIssue appends an issue.
func (r *Report) AddIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// IssueCount returns the number of issues with the given code.
func (r *Report) IssueCount(code IssueCode) int {
	n := 0
	for _, i := range r.Issues {
		if i.Code == code {
			n++
		}
	}
	return n
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	entities := 0
	for _, n := range r.Entities {
		entities += n
	}
	return fmt.Sprintf("build=%s entities=%d pages=%d rendered=%d unchanged=%d pruned=%d fallbacks=%d degraded=%d issues=%d duration=%s outcome=%s",
		r.BuildID, entities, r.Pages, r.RenderedPages, r.UnchangedPages, r.PrunedPages, r.Fallbacks,
		len(r.DegradedEntities), len(r.Issues), r.End.Sub(r.Start).Truncate(time.Millisecond), r.Outcome)
}

// finish stamps the end time, sorts the degraded list and derives the outcome.
func (r *Report) finish(err error) {
	r.End = time.Now()
	sort.Strings(r.DegradedEntities)
	r.DegradedEntities = compactSorted(r.DegradedEntities)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.Outcome = OutcomeCanceled
		r.Error = err.Error()
		r.AddIssue(Issue{Code: IssueCanceled, Severity: SeverityError, Message: err.Error()})
	case err != nil:
		r.Outcome = OutcomeFailed
		r.Error = err.Error()
	case len(r.Issues) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

func compactSorted(s []string) []string {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// JSON returns the indented JSON form of the report.
func (r *Report) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report json: %w", err)
	}
	return b, nil
}

// Persist writes the report atomically into root as build-report.json and
// build-report.txt.
func (r *Report) Persist(root string) error {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := r.JSON()
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(filepath.Join(root, ReportJSONFile), jb); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	var txt strings.Builder
	txt.WriteString(r.Summary())
	txt.WriteByte('\n')
	for _, i := range r.Issues {
		fmt.Fprintf(&txt, "%s %s", i.Severity, i.Code)
		if i.Entity != "" {
			fmt.Fprintf(&txt, " %s", i.Entity)
		}
		fmt.Fprintf(&txt, ": %s\n", i.Message)
	}
	if err := WriteFileAtomic(filepath.Join(root, ReportTextFile), []byte(txt.String())); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}
