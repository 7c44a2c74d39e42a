package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

const ordersSource = `"""Order handling.

Orders are immutable once placed.
"""
from __future__ import annotations

import enum
from typing import Optional

from pydantic import BaseModel

__all__ = ["Order", "place"]

MAX_ITEMS: int = 50
"""Upper bound on items per order."""

_registry = {}


class Status(enum.Enum):
    """Lifecycle state."""

    OPEN = "open"
    CLOSED = "closed"


@dataclass(frozen=True)
class Line:
    sku: str
    qty: int = 1


class Order(BaseModel, metaclass=ModelMeta):
    """A customer order."""

    id: int
    note: Optional[str] = None

    class Config:
        frozen = True

    @property
    def total(self) -> float:
        """Sum of line prices."""
        return 0.0

    async def refresh(self, *, force: bool = False, **kwargs) -> None:
        pass

    def _validate(self, *lines: Line, strict=True):
        pass


def place(order: Order, /, retries=3, *args, timeout: float = 1.5, **options: str) -> Optional[Order]:
    return None


if TYPE_CHECKING:
    def typed_only() -> None: ...


if __name__ == "__main__":
    def main(): ...
`

func memberNames(e *entity.Entity) []string {
	var out []string
	for _, m := range e.Members() {
		out = append(out, m.Name)
	}
	return out
}

func TestParseModule(t *testing.T) {
	mod, err := ParseModule(context.Background(), "orders", "shop/orders.py", []byte(ordersSource))
	require.NoError(t, err)

	assert.Equal(t, "Order handling.\n\nOrders are immutable once placed.\n", mod.Docstring)
	assert.Equal(t, []string{"Order", "place"}, mod.Module.All)
	assert.Equal(t, []string{"MAX_ITEMS", "_registry", "Status", "Line", "Order", "place", "typed_only"}, memberNames(mod))

	maxItems := mod.Find("orders.MAX_ITEMS")
	require.NotNil(t, maxItems)
	assert.Equal(t, entity.KindAttribute, maxItems.Kind)
	assert.Equal(t, entity.AttributeInfo{Annotation: "int", Value: "50"}, *maxItems.Attribute)
	assert.Equal(t, "Upper bound on items per order.", maxItems.Docstring)

	status := mod.Find("orders.Status")
	require.NotNil(t, status)
	assert.Equal(t, []string{"enum.Enum"}, status.Class.Bases)
	assert.Equal(t, "Lifecycle state.", status.Docstring)
	assert.Equal(t, []string{"OPEN", "CLOSED"}, memberNames(status))

	line := mod.Find("orders.Line")
	require.NotNil(t, line)
	assert.Equal(t, []string{"dataclass"}, line.Decorators)
	assert.Equal(t, "1", mod.Find("orders.Line.qty").Attribute.Value)

	order := mod.Find("orders.Order")
	require.NotNil(t, order)
	assert.Equal(t, []string{"BaseModel"}, order.Class.Bases)
	assert.Equal(t, "ModelMeta", order.Class.Metaclass)
	assert.Equal(t, []string{"id", "note", "Config", "total", "refresh", "_validate"}, memberNames(order))
	assert.Equal(t, entity.KindClass, mod.Find("orders.Order.Config").Kind)

	total := mod.Find("orders.Order.total")
	assert.Equal(t, entity.KindMethod, total.Kind)
	assert.Equal(t, []string{"property"}, total.Decorators)
	assert.Equal(t, "float", total.Function.Returns)
	assert.Equal(t, "Sum of line prices.", total.Docstring)

	refresh := mod.Find("orders.Order.refresh")
	assert.True(t, refresh.Function.Async)
	assert.Equal(t, []entity.Param{
		{Name: "self", Kind: entity.ParamPositional},
		{Name: "force", Annotation: "bool", Default: "False", Kind: entity.ParamKeyword},
		{Name: "kwargs", Kind: entity.ParamVarKwargs},
	}, refresh.Function.Params)

	validate := mod.Find("orders.Order._validate")
	assert.Equal(t, []entity.Param{
		{Name: "self", Kind: entity.ParamPositional},
		{Name: "lines", Annotation: "Line", Kind: entity.ParamVarArgs},
		{Name: "strict", Default: "True", Kind: entity.ParamKeyword},
	}, validate.Function.Params)

	place := mod.Find("orders.place")
	assert.Equal(t, entity.KindFunction, place.Kind)
	want := []entity.Param{
		{Name: "order", Annotation: "Order", Kind: entity.ParamPositional},
		{Name: "retries", Default: "3", Kind: entity.ParamPositional},
		{Name: "args", Kind: entity.ParamVarArgs},
		{Name: "timeout", Annotation: "float", Default: "1.5", Kind: entity.ParamKeyword},
		{Name: "options", Annotation: "str", Kind: entity.ParamVarKwargs},
	}
	if diff := cmp.Diff(want, place.Function.Params); diff != "" {
		t.Errorf("place params mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Optional[Order]", place.Function.Returns)
	assert.False(t, place.Function.Async)

	for _, e := range []*entity.Entity{mod, order, total, place} {
		require.NoError(t, e.Validate())
	}
}

func TestParseModuleSyntaxError(t *testing.T) {
	_, err := ParseModule(context.Background(), "broken", "broken.py", []byte("def ok():\n    pass\n\nclass (:\n"))
	require.Error(t, err)

	var syntax *SyntaxError
	require.True(t, errors.As(err, &syntax))
	assert.Equal(t, "broken.py", syntax.Path)
	assert.GreaterOrEqual(t, syntax.Line, 1)
}

func TestParseModuleEmpty(t *testing.T) {
	blank, err := ParseModule(context.Background(), "blank", "blank.py", nil)
	require.NoError(t, err)
	assert.Empty(t, blank.Members())

	mod, err := ParseModule(context.Background(), "empty", "empty.py", []byte("# nothing here\n"))
	require.NoError(t, err)
	assert.Empty(t, mod.Members())
	assert.Empty(t, mod.Docstring)
	assert.Nil(t, mod.Module.All)
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"""doc"""`:  "doc",
		`'''doc'''`:  "doc",
		`r"raw\n"`:   `raw\n`,
		`'x'`:        "x",
		`""`:         "",
		`u"""a"b"""`: `a"b`,
	}
	for in, want := range tests {
		assert.Equal(t, want, unquote(in), in)
	}
}
