package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/pydevdocs/internal/templates"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, warnings, err := Parse([]byte(`
version: "1.0"
sources:
  - path: ./src/shop
`))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, DefaultTitle, cfg.Project.Title)
	assert.Equal(t, "shop", cfg.Sources[0].Name)
	assert.Equal(t, DefaultOutputDirectory, cfg.Output.Directory)
	assert.Equal(t, templates.DefaultPagePattern, cfg.Output.PagePattern)
	assert.Equal(t, DefaultStatePath, cfg.State.Path)
	assert.Equal(t, classify.MatchExact, cfg.Render.MatchMode)
	assert.Equal(t, 120, cfg.Render.TruncateLength)
	assert.True(t, cfg.Render.CollapsibleEnabled())
	assert.False(t, cfg.Render.Diagrams)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.DebounceDuration())
}

func TestParseFullDocument(t *testing.T) {
	t.Setenv("PYDEVDOCS_TEST_OUT", "/tmp/api")
	cfg, warnings, err := Parse([]byte(`
version: "1.0"
project: {name: Shop, title: Shop API, description: Everything for sale.}
sources:
  - name: core
    path: ./packages/core/src
    exclude: [tests]
  - name: plugins
    dump: ./plugins.yaml
output: {directory: "${PYDEVDOCS_TEST_OUT}", clean: true, page_pattern: "{{ .QualifiedID }}.rst"}
render:
  diagrams: true
  collapsible: false
  match_mode: Fuzzy
  truncate_length: 80
  workers: 8
templates: {directory: ./doc-templates}
state: {path: state.db}
logging: {level: DEBUG, format: json}
metrics: {textfile: metrics.prom, listen: ":9102"}
watch: {debounce: 1s}
`))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "render.match_mode")

	assert.Equal(t, "Shop API", cfg.Project.Title)
	assert.Equal(t, "Everything for sale.", cfg.Project.Description)
	assert.Equal(t, []string{"tests"}, cfg.Sources[0].Exclude)
	assert.Equal(t, "./plugins.yaml", cfg.Sources[1].Dump)
	assert.Equal(t, "/tmp/api", cfg.Output.Directory)
	assert.True(t, cfg.Output.Clean)
	assert.True(t, cfg.Render.Diagrams)
	assert.False(t, cfg.Render.CollapsibleEnabled())
	assert.Equal(t, classify.MatchSubstring, cfg.Render.MatchMode)
	assert.Equal(t, 80, cfg.Render.TruncateLength)
	assert.Equal(t, 8, cfg.Render.Workers)
	assert.Equal(t, "./doc-templates", cfg.Templates.Directory)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, ":9102", cfg.Metrics.Listen)
	assert.Equal(t, time.Second, cfg.Watch.DebounceDuration())
}

func TestParseNormalizationWarnings(t *testing.T) {
	cfg, warnings, err := Parse([]byte(`
version: "1.0"
sources: [{path: src}]
render: {match_mode: regex, truncate_length: -4, workers: -1}
logging: {level: loud, format: xml}
`))
	require.NoError(t, err)
	assert.Len(t, warnings, 5)
	assert.Equal(t, classify.MatchExact, cfg.Render.MatchMode)
	assert.Equal(t, 120, cfg.Render.TruncateLength)
	assert.Zero(t, cfg.Render.Workers)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"version", `version: "2.0"`, "unsupported configuration version"},
		{"no sources", `version: "1.0"`, "at least one source"},
		{"empty source", "version: \"1.0\"\nsources: [{name: x}]", "one of path or dump"},
		{"both", "version: \"1.0\"\nsources: [{path: a, dump: b.json}]", "mutually exclusive"},
		{"duplicate", "version: \"1.0\"\nsources: [{path: a/core}, {path: b/core}]", "duplicate source name: core"},
		{"pattern", "version: \"1.0\"\nsources: [{path: a}]\noutput: {page_pattern: \"{{ .Dir \"}", "output.page_pattern"},
		{"workers", "version: \"1.0\"\nsources: [{path: a}]\nrender: {workers: 1000}", "render.workers"},
		{"debounce", "version: \"1.0\"\nsources: [{path: a}]\nwatch: {debounce: soon}", "watch.debounce"},
		{"negative debounce", "version: \"1.0\"\nsources: [{path: a}]\nwatch: {debounce: -1s}", "must be positive"},
		{"yaml", "version: [", "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("missing.yaml")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	require.NoError(t, os.WriteFile(".env", []byte("PYDEVDOCS_TEST_SRC=from-env-file\n"), 0o600))
	require.NoError(t, os.WriteFile(DefaultFile, []byte("version: \"1.0\"\nsources: [{path: \"${PYDEVDOCS_TEST_SRC}\"}]\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PYDEVDOCS_TEST_SRC") })

	cfg, err := Load(DefaultFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env-file", cfg.Sources[0].Path)

	require.NoError(t, os.WriteFile(DefaultFile, []byte("version: \"1.0\"\n"), 0o600))
	_, err = Load(DefaultFile)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestEnvFileDoesNotOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PYDEVDOCS_TEST_KEEP", "process")
	require.NoError(t, os.WriteFile(".env", []byte("PYDEVDOCS_TEST_KEEP=file\n"), 0o600))

	require.NoError(t, loadEnvFile())
	assert.Equal(t, "process", os.Getenv("PYDEVDOCS_TEST_KEEP"))
}

func TestInitWritesLoadableExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", DefaultFile)
	require.NoError(t, Init(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, warnings, err := Parse(data)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, Example().Sources, cfg.Sources)
	assert.Equal(t, 4, cfg.Render.Workers)

	err = Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	require.NoError(t, Init(path, true))
}

func TestLogLevelSlog(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.Slog().String())
	assert.Equal(t, "WARN", NormalizeLogLevel("warning").Slog().String())
	assert.Equal(t, "INFO", LogLevel("").Slog().String())
}
