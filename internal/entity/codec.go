package entity

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pydevdocs/internal/foundation/normalization"
)

// Format is a scanner dump serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var formatNormalizer = normalization.New("dump format", map[string]Format{
	"json": FormatJSON,
	"yaml": FormatYAML,
	"yml":  FormatYAML,
}, FormatJSON)

// ParseFormat parses a dump format name; empty selects JSON.
func ParseFormat(raw string) (Format, error) { return formatNormalizer.Parse(raw) }

// FormatForPath infers the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	return formatNormalizer.Normalize(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParamRecord is the serialized form of a Param.
type ParamRecord struct {
	Name       string `json:"name" yaml:"name"`
	Annotation string `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
	Kind       string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Record is the serialized form of one entity in a scanner dump.
type Record struct {
	Name       string        `json:"name" yaml:"name"`
	Kind       string        `json:"kind" yaml:"kind"`
	ID         string        `json:"id,omitempty" yaml:"id,omitempty"`
	Parent     string        `json:"parent,omitempty" yaml:"parent,omitempty"`
	Path       string        `json:"path,omitempty" yaml:"path,omitempty"`
	All        []string      `json:"all,omitempty" yaml:"all,omitempty"`
	Bases      []string      `json:"bases,omitempty" yaml:"bases,omitempty"`
	Metaclass  string        `json:"metaclass,omitempty" yaml:"metaclass,omitempty"`
	Decorators []string      `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Docstring  string        `json:"docstring,omitempty" yaml:"docstring,omitempty"`
	Params     []ParamRecord `json:"params,omitempty" yaml:"params,omitempty"`
	Returns    string        `json:"returns,omitempty" yaml:"returns,omitempty"`
	Async      bool          `json:"async,omitempty" yaml:"async,omitempty"`
	Annotation string        `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Value      string        `json:"value,omitempty" yaml:"value,omitempty"`
	Members    []Record      `json:"members,omitempty" yaml:"members,omitempty"`
}

// Problem records an input record that could not be turned into an entity.
type Problem struct {
	QualifiedID string
	Err         error
}

func (p Problem) Error() string { return fmt.Sprintf("%s: %v", p.QualifiedID, p.Err) }

// Dump is the decoded content of a scanner dump.
type Dump struct {
	Roots    []*Entity
	Problems []Problem
}

type dumpFile struct {
	Roots []Record `json:"roots" yaml:"roots"`
}

// Decode reads a scanner dump. Syntax errors fail the whole decode; invalid
// records are skipped (with their subtree) and reported as Problems so that
// sibling records are still ingested.
func Decode(r io.Reader, format Format) (*Dump, error) {
	var file dumpFile
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml dump: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode json dump: %w", err)
		}
	}

	dump := &Dump{}
	for i := range file.Roots {
		rec := &file.Roots[i]
		e, err := fromRecord(rec)
		if err != nil {
			dump.Problems = append(dump.Problems, Problem{QualifiedID: recordID("", rec), Err: err})
			continue
		}
		dump.attachMembers(e, rec.Members)
		dump.Roots = append(dump.Roots, e)
	}
	return dump, nil
}

func (d *Dump) attachMembers(parent *Entity, records []Record) {
	for i := range records {
		rec := &records[i]
		child, err := fromRecord(rec)
		if err == nil {
			err = parent.Add(child)
		}
		if err != nil {
			d.Problems = append(d.Problems, Problem{QualifiedID: recordID(parent.id, rec), Err: err})
			continue
		}
		d.attachMembers(child, rec.Members)
	}
}

func recordID(parentID string, rec *Record) string {
	if rec.ID != "" {
		return rec.ID
	}
	if parentID == "" {
		return rec.Name
	}
	return parentID + "." + rec.Name
}

func fromRecord(rec *Record) (*Entity, error) {
	kind, err := ParseKind(rec.Kind)
	if err != nil {
		return nil, err
	}
	var e *Entity
	switch kind {
	case KindModule:
		e = NewModule(rec.Name, rec.Path)
		e.Module.All = rec.All
	case KindPackage:
		e = NewPackage(rec.Name, rec.Path)
		e.Module.All = rec.All
	case KindClass:
		e = NewClass(rec.Name, rec.Bases, rec.Decorators...)
		e.Class.Metaclass = NormalizeTypeName(rec.Metaclass)
	case KindFunction, KindMethod:
		fn := FunctionInfo{Returns: rec.Returns, Async: rec.Async}
		for _, p := range rec.Params {
			pk := ParamKind(p.Kind)
			if pk == "" {
				pk = ParamPositional
			}
			fn.Params = append(fn.Params, Param{Name: p.Name, Annotation: p.Annotation, Default: p.Default, Kind: pk})
		}
		if kind == KindFunction {
			e = NewFunction(rec.Name, fn, rec.Decorators...)
		} else {
			e = NewMethod(rec.Name, fn, rec.Decorators...)
		}
	case KindAttribute:
		e = NewAttribute(rec.Name, AttributeInfo{Annotation: rec.Annotation, Value: rec.Value})
	}
	e.Docstring = rec.Docstring
	e.DeclaredParent = rec.Parent
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// ToRecord converts an entity subtree into its serialized form.
func ToRecord(e *Entity) Record {
	rec := Record{
		Name:       e.Name,
		Kind:       string(e.Kind),
		ID:         e.id,
		Decorators: e.Decorators,
		Docstring:  e.Docstring,
	}
	if e.parent != nil {
		rec.Parent = e.parent.id
	}
	switch {
	case e.Module != nil:
		rec.Path = e.Module.Path
		rec.All = e.Module.All
	case e.Class != nil:
		rec.Bases = e.BaseTypes
		rec.Metaclass = e.Class.Metaclass
	case e.Function != nil:
		rec.Returns = e.Function.Returns
		rec.Async = e.Function.Async
		for _, p := range e.Function.Params {
			rec.Params = append(rec.Params, ParamRecord{Name: p.Name, Annotation: p.Annotation, Default: p.Default, Kind: string(p.Kind)})
		}
	case e.Attribute != nil:
		rec.Annotation = e.Attribute.Annotation
		rec.Value = e.Attribute.Value
	}
	for _, m := range e.members {
		rec.Members = append(rec.Members, ToRecord(m))
	}
	return rec
}

// Encode writes roots as a scanner dump.
func Encode(w io.Writer, roots []*Entity, format Format) error {
	file := dumpFile{Roots: make([]Record, 0, len(roots))}
	for _, r := range roots {
		file.Roots = append(file.Roots, ToRecord(r))
	}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&file); err != nil {
			return fmt.Errorf("encode yaml dump: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(&file); err != nil {
			return fmt.Errorf("encode json dump: %w", err)
		}
		return nil
	}
}
