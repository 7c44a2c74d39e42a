// Package classify assigns documented classes to a semantic Category.
package classify

import (
	"strings"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	"git.home.luguber.info/inful/pydevdocs/internal/foundation/normalization"
)

// Category is the rendering-relevant classification of a class.
type Category string

const (
	CategoryPydanticModel Category = "pydantic-model"
	CategoryDataclass     Category = "dataclass"
	CategoryEnum          Category = "enum"
	CategoryFlagEnum      Category = "flag-enum"
	CategoryException     Category = "exception"
	CategoryMetaclass     Category = "metaclass"
	CategoryPlainClass    Category = "plain-class"
)

// Categories lists every category in classification precedence order.
var Categories = []Category{
	CategoryFlagEnum,
	CategoryEnum,
	CategoryPydanticModel,
	CategoryDataclass,
	CategoryException,
	CategoryMetaclass,
	CategoryPlainClass,
}

// MatchMode selects how base names are compared with the known markers.
type MatchMode string

const (
	// MatchExact compares normalized qualified or simple names.
	MatchExact MatchMode = "exact"
	// MatchSubstring reproduces permissive matching on the concatenated base names.
	MatchSubstring MatchMode = "substring"
)

var matchModeNormalizer = normalization.New("match mode", map[string]MatchMode{
	"exact":     MatchExact,
	"substring": MatchSubstring,
	"fuzzy":     MatchSubstring,
}, MatchExact)

// ParseMatchMode parses a configured match mode; empty selects MatchExact.
func ParseMatchMode(raw string) (MatchMode, error) { return matchModeNormalizer.Parse(raw) }

// Known base and decorator names. Both qualified and simple spellings are
// listed because scanners do not always resolve imports.
var (
	flagBases = nameSet("enum.Flag", "enum.IntFlag", "Flag", "IntFlag")
	enumBases = nameSet("enum.Enum", "enum.IntEnum", "enum.StrEnum", "enum.ReprEnum",
		"Enum", "IntEnum", "StrEnum", "ReprEnum")
	modelBases = nameSet("pydantic.BaseModel", "pydantic.main.BaseModel", "pydantic.RootModel",
		"pydantic_settings.BaseSettings", "pydantic.BaseSettings", "BaseModel", "RootModel", "BaseSettings")
	dataclassDecorators = nameSet("dataclass", "dataclasses.dataclass", "pydantic.dataclasses.dataclass")
	exceptionBases      = nameSet("Exception", "BaseException", "Warning", "ExceptionGroup", "BaseExceptionGroup")
	metaclassBases      = nameSet("type", "abc.ABCMeta", "ABCMeta", "enum.EnumMeta", "EnumMeta",
		"enum.EnumType", "EnumType", "pydantic._internal._model_construction.ModelMetaclass", "ModelMetaclass")
	toolBases  = nameSet("BaseTool", "Tool", "StructuredTool", "langchain_core.tools.BaseTool", "langchain.tools.BaseTool")
	agentBases = nameSet("Agent", "BaseAgent", "AgentExecutor", "langchain.agents.AgentExecutor")
)

// Classifier maps class entities onto categories. A Classifier is immutable
// and safe for concurrent use.
type Classifier struct {
	mode MatchMode
}

// New returns a classifier using the given match mode (unknown modes fall back to exact).
func New(mode MatchMode) *Classifier {
	if mode != MatchSubstring {
		mode = MatchExact
	}
	return &Classifier{mode: mode}
}

// Mode returns the configured match mode.
func (c *Classifier) Mode() MatchMode { return c.mode }

// Classify returns the category of a class entity. It never fails: non-class
// entities and classes matching no rule are plain classes.
//
// Rules are evaluated in order and the first match wins:
// flag enum, enum, pydantic model, dataclass, exception, metaclass.
func (c *Classifier) Classify(e *entity.Entity) Category {
	if e == nil || e.Kind != entity.KindClass || e.Class == nil {
		return CategoryPlainClass
	}
	switch {
	case c.matchBase(e, flagBases, "Flag"):
		return CategoryFlagEnum
	case c.matchBase(e, enumBases, "Enum"):
		return CategoryEnum
	case c.matchBase(e, modelBases, "BaseModel", "BaseSettings"):
		return CategoryPydanticModel
	case c.isDataclass(e):
		return CategoryDataclass
	case c.isException(e):
		return CategoryException
	case c.isMetaclass(e):
		return CategoryMetaclass
	default:
		return CategoryPlainClass
	}
}

// IsPydanticModel reports whether e classifies as a pydantic model.
func (c *Classifier) IsPydanticModel(e *entity.Entity) bool {
	return isClass(e) && c.Classify(e) == CategoryPydanticModel
}

// IsEnum reports whether e is an enum or flag enum.
func (c *Classifier) IsEnum(e *entity.Entity) bool {
	if !isClass(e) {
		return false
	}
	cat := c.Classify(e)
	return cat == CategoryEnum || cat == CategoryFlagEnum
}

// IsTool reports whether e follows the tool class pattern: a tool base class
// or a class name ending in "Tool".
func (c *Classifier) IsTool(e *entity.Entity) bool {
	if !isClass(e) {
		return false
	}
	return c.matchBase(e, toolBases, "Tool") || hasPatternSuffix(e.Name, "Tool")
}

// IsAgent reports whether e follows the agent class pattern.
func (c *Classifier) IsAgent(e *entity.Entity) bool {
	if !isClass(e) {
		return false
	}
	return c.matchBase(e, agentBases, "Agent") || hasPatternSuffix(e.Name, "Agent")
}

func isClass(e *entity.Entity) bool {
	return e != nil && e.Kind == entity.KindClass && e.Class != nil
}

func (c *Classifier) matchBase(e *entity.Entity, known map[string]struct{}, substrings ...string) bool {
	if c.mode == MatchSubstring {
		joined := strings.Join(e.BaseTypes, ",")
		for _, s := range substrings {
			if strings.Contains(joined, s) {
				return true
			}
		}
		return false
	}
	for _, b := range e.Class.Bases {
		if inSet(known, b) {
			return true
		}
	}
	return false
}

func (c *Classifier) isDataclass(e *entity.Entity) bool {
	for _, d := range e.Decorators {
		if inSet(dataclassDecorators, d) {
			return true
		}
		if c.mode == MatchSubstring && strings.Contains(d, "dataclass") {
			return true
		}
	}
	return false
}

func (c *Classifier) isException(e *entity.Entity) bool {
	if c.mode == MatchSubstring {
		return c.matchBase(e, nil, "Exception", "Error")
	}
	for _, b := range e.Class.Bases {
		if inSet(exceptionBases, b) {
			return true
		}
		simple := entity.SimpleName(b)
		if hasPatternSuffix(simple, "Error") || hasPatternSuffix(simple, "Exception") {
			return true
		}
	}
	return false
}

func (c *Classifier) isMetaclass(e *entity.Entity) bool {
	if c.mode == MatchSubstring {
		joined := strings.Join(e.BaseTypes, ",")
		return strings.Contains(joined, "Meta") || containsWord(e.BaseTypes, "type")
	}
	for _, b := range e.Class.Bases {
		if inSet(metaclassBases, b) {
			return true
		}
	}
	return false
}

// hasPatternSuffix reports whether a PEP 8 style name ends with suffix.
func hasPatternSuffix(name, suffix string) bool {
	return strings.HasSuffix(name, suffix)
}

func containsWord(list []string, word string) bool {
	for _, s := range list {
		if strings.TrimSpace(s) == word {
			return true
		}
	}
	return false
}

func nameSet(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// inSet matches a normalized base against known names by its full spelling or
// its simple name, so "MyBaseModelMixin" never matches "BaseModel".
func inSet(set map[string]struct{}, name string) bool {
	if _, ok := set[name]; ok {
		return true
	}
	_, ok := set[entity.SimpleName(name)]
	return ok
}
