package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Entity", KeyEntity, "pkg.mod.Cls", Entity("pkg.mod.Cls")},
		{"Kind", KeyKind, "class", Kind("class")},
		{"Category", KeyCategory, "enum", Category("enum")},
		{"Template", KeyTemplate, "class/enum", Template("class/enum")},
		{"Target", KeyTarget, "enum", Target("enum")},
		{"Page", KeyPage, "pkg/mod/index.rst", Page("pkg/mod/index.rst")},
		{"Source", KeySource, "core", Source("core")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "mod.py", File("mod.py")},
		{"Outcome", KeyOutcome, "warning", Outcome("warning")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := Worker(3).Value.Int64(); v != 3 {
		t.Fatalf("worker: got %d", v)
	}
	if v := Count(7).Value.Int64(); v != 7 {
		t.Fatalf("count: got %d", v)
	}
	if v := DurationMS(1.5).Value.Float64(); v != 1.5 {
		t.Fatalf("duration: got %v", v)
	}
}
