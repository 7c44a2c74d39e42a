package scanner

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
}

func newScanner(opts Options) *Scanner {
	opts.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(opts)
}

func ids(root *entity.Entity) []string {
	var out []string
	root.Walk(func(e *entity.Entity) bool {
		out = append(out, e.QualifiedID())
		return true
	})
	return out
}

func TestScanPackage(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"shop/__init__.py":           "\"\"\"Shop.\"\"\"\nVERSION = \"1.0\"\n",
		"shop/orders.py":             "class Order:\n    id: int\n",
		"shop/payments/__init__.py":  "",
		"shop/payments/card.py":      "def charge(amount: float) -> bool: ...\n",
		"shop/_internal.py":          "def helper(): ...\n",
		"shop/not-a-module.py":       "x = 1\n",
		"shop/notes/readme.py":       "y = 2\n",
		"shop/__pycache__/orders.py": "",
		"shop/tests/test_orders.py":  "def test_x(): ...\n",
		"shop/tests/__init__.py":     "",
	})

	res, err := newScanner(Options{Exclude: []string{"tests"}}).Scan(context.Background(), filepath.Join(src, "shop"))
	require.NoError(t, err)
	require.Len(t, res.Roots, 1)
	assert.Empty(t, res.Problems)

	shop := res.Roots[0]
	assert.Equal(t, entity.KindPackage, shop.Kind)
	assert.Equal(t, "shop", shop.Module.Path)
	assert.Equal(t, "Shop.", shop.Docstring)
	assert.Equal(t, []string{
		"shop",
		"shop.VERSION",
		"shop._internal",
		"shop._internal.helper",
		"shop.orders",
		"shop.orders.Order",
		"shop.orders.Order.id",
		"shop.payments",
		"shop.payments.card",
		"shop.payments.card.charge",
	}, ids(shop))
	assert.Equal(t, "shop/payments/card.py", shop.Find("shop.payments.card").Module.Path)
	assert.Equal(t, 5, res.Files)
}

func TestScanSourceDirectory(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"alpha/__init__.py": "",
		"beta.py":           "B = 1\n",
		"setup-helper.py":   "",
	})

	res, err := newScanner(Options{}).Scan(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, res.Roots, 2)
	assert.Equal(t, "alpha", res.Roots[0].QualifiedID())
	assert.Equal(t, entity.KindPackage, res.Roots[0].Kind)
	assert.Equal(t, "beta", res.Roots[1].QualifiedID())
	assert.Equal(t, "beta.py", res.Roots[1].Module.Path)
}

func TestScanSingleModule(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"tool.py": "def run(): ...\n"})

	res, err := newScanner(Options{}).Scan(context.Background(), filepath.Join(src, "tool.py"))
	require.NoError(t, err)
	require.Len(t, res.Roots, 1)
	assert.Equal(t, []string{"tool", "tool.run"}, ids(res.Roots[0]))
	assert.Equal(t, "tool.py", res.Roots[0].Module.Path)
}

func TestScanReportsBrokenFiles(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"pkg/__init__.py": "",
		"pkg/good.py":     "def ok(): ...\n",
		"pkg/bad.py":      "def broken(:\n",
	})

	res, err := newScanner(Options{}).Scan(context.Background(), filepath.Join(src, "pkg"))
	require.NoError(t, err)
	require.Len(t, res.Problems, 1)
	assert.Equal(t, "pkg.bad", res.Problems[0].QualifiedID)
	assert.Equal(t, []string{"pkg", "pkg.good", "pkg.good.ok"}, ids(res.Roots[0]))
}

func TestScanErrors(t *testing.T) {
	s := newScanner(Options{})

	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryScan))

	src := t.TempDir()
	writeTree(t, src, map[string]string{"notes.txt": "x", "pkg/__init__.py": ""})
	_, err = s.Scan(context.Background(), filepath.Join(src, "notes.txt"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Scan(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, isIdentifier("orders"))
	assert.True(t, isIdentifier("_private2"))
	assert.False(t, isIdentifier("2fast"))
	assert.False(t, isIdentifier("not-a-module"))
	assert.False(t, isIdentifier(""))
}
