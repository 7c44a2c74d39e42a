package entity

import (
	"errors"
	"strings"

	"git.home.luguber.info/inful/pydevdocs/internal/foundation/normalization"
)

// Kind is the closed set of documented object kinds.
type Kind string

const (
	KindModule    Kind = "module"
	KindPackage   Kind = "package"
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindAttribute Kind = "attribute"
)

var kindNormalizer = normalization.New("entity kind", map[string]Kind{
	"module":    KindModule,
	"package":   KindPackage,
	"class":     KindClass,
	"function":  KindFunction,
	"method":    KindMethod,
	"attribute": KindAttribute,
	"property":  KindAttribute,
	"data":      KindAttribute,
	"exception": KindClass,
}, "")

// ParseKind maps scanner kind names (including AutoAPI aliases such as
// "property", "data" and "exception") onto a Kind.
func ParseKind(raw string) (Kind, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("entity kind is empty")
	}
	return kindNormalizer.Parse(raw)
}

// IsModuleLike reports whether k is a module or package.
func (k Kind) IsModuleLike() bool { return k == KindModule || k == KindPackage }

// IsCallable reports whether k is a function or method.
func (k Kind) IsCallable() bool { return k == KindFunction || k == KindMethod }

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindModule, KindPackage, KindClass, KindFunction, KindMethod, KindAttribute:
		return true
	}
	return false
}

// allowsMember reports whether an entity of kind k may own a member of kind child.
func (k Kind) allowsMember(child Kind) bool {
	switch k {
	case KindPackage:
		return child != KindMethod
	case KindModule:
		return child != KindMethod && child != KindPackage
	case KindClass:
		return child == KindMethod || child == KindAttribute || child == KindClass
	default:
		return false
	}
}
