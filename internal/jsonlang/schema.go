package jsonlang

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mcdatapack/dpe/internal/lang"
)

// Schema is the closed set of JSON schema kinds.
type Schema interface {
	lang.Schema
	isSchema()
}

// Base carries the fields every schema kind shares.
type Base struct {
	Desc       string
	Deprecated bool
}

// Description returns the markdown description.
func (b Base) Description() string { return b.Desc }

// IsDeprecated reports whether the schema is deprecated.
func (b Base) IsDeprecated() bool { return b.Deprecated }

func (Base) isSchema() {}

// NullSchema accepts null.
type NullSchema struct{ Base }

// TypeName implements lang.Schema.
func (*NullSchema) TypeName() string { return "null" }

// BoolSchema accepts booleans.
type BoolSchema struct{ Base }

// TypeName implements lang.Schema.
func (*BoolSchema) TypeName() string { return "boolean" }

// NumberSchema accepts numbers within [Min, Max].
type NumberSchema struct {
	Base
	Min     float64
	Max     float64
	Integer bool
}

// NewNumberSchema returns an unbounded float schema.
func NewNumberSchema(b Base) *NumberSchema {
	return &NumberSchema{Base: b, Min: math.Inf(-1), Max: math.Inf(1)}
}

// NewIntegerSchema returns an unbounded integer schema.
func NewIntegerSchema(b Base) *NumberSchema {
	return &NumberSchema{Base: b, Min: math.Inf(-1), Max: math.Inf(1), Integer: true}
}

// TypeName implements lang.Schema.
func (s *NumberSchema) TypeName() string {
	if s.Integer {
		return "integer"
	}
	return "number"
}

// StringSchema accepts strings. Type selects the context handler that
// interprets the content; Args are handler parameters.
type StringSchema struct {
	Base
	Type *lang.ArgumentType
	Args map[string]any
}

// TypeName implements lang.Schema.
func (*StringSchema) TypeName() string { return "string" }

// ArraySchema accepts arrays whose elements all match Element.
type ArraySchema struct {
	Base
	Element Schema
}

// TypeName implements lang.Schema.
func (*ArraySchema) TypeName() string { return "array" }

// AnySchema accepts every value and is not descended into.
type AnySchema struct{ Base }

// TypeName implements lang.Schema.
func (*AnySchema) TypeName() string { return "any" }

// PropertySchema describes one object property. When DecidingProp is set,
// the effective value schema is looked up in Values by the scalar value of
// the sibling property with that name, falling back to Value.
type PropertySchema struct {
	Name         string
	Desc         string
	Default      any
	Value        Schema
	DecidingProp string
	Values       map[string]Schema
	Deprecated   bool
}

// Mandatory reports whether the property must be present.
func (p *PropertySchema) Mandatory() bool { return p.Default == nil }

// Description implements lang.Schema.
func (p *PropertySchema) Description() string { return p.Desc }

// IsDeprecated implements lang.Schema.
func (p *PropertySchema) IsDeprecated() bool { return p.Deprecated }

// TypeName implements lang.Schema.
func (*PropertySchema) TypeName() string { return "property" }

// Resolve returns the effective value schema inside obj.
func (p *PropertySchema) Resolve(obj *Object) Schema {
	if p.DecidingProp == "" || obj == nil {
		return p.Value
	}
	sibling := obj.Property(p.DecidingProp)
	if sibling == nil {
		return p.Value
	}
	if key, ok := ScalarKey(sibling.Value); ok {
		if s, ok := p.Values[key]; ok {
			return s
		}
	}
	return p.Value
}

// ObjectSchema accepts objects with the declared properties. An object
// schema with an additional property schema also accepts undeclared keys.
type ObjectSchema struct {
	Base
	properties []*PropertySchema
	byName     map[string]*PropertySchema
	additional *PropertySchema
}

// NewObjectSchema builds an object schema. Duplicate property names are an
// error.
func NewObjectSchema(b Base, props ...*PropertySchema) (*ObjectSchema, error) {
	s := &ObjectSchema{
		Base:       b,
		properties: props,
		byName:     make(map[string]*PropertySchema, len(props)),
	}
	for _, p := range props {
		if p == nil {
			return nil, fmt.Errorf("nil property schema")
		}
		if _, dup := s.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate property %q", p.Name)
		}
		s.byName[p.Name] = p
	}
	return s, nil
}

// MustObject is NewObjectSchema for static schemas; it panics on error.
func MustObject(b Base, props ...*PropertySchema) *ObjectSchema {
	s, err := NewObjectSchema(b, props...)
	if err != nil {
		panic(err)
	}
	return s
}

// TypeName implements lang.Schema.
func (*ObjectSchema) TypeName() string { return "object" }

// Properties returns the declared properties in order.
func (s *ObjectSchema) Properties() []*PropertySchema { return s.properties }

// WithAdditional makes s accept undeclared keys whose values match value.
// It is part of construction and returns s.
func (s *ObjectSchema) WithAdditional(desc string, value Schema) *ObjectSchema {
	s.additional = &PropertySchema{Desc: desc, Default: false, Value: value}
	return s
}

// Additional returns the schema of undeclared keys, or nil.
func (s *ObjectSchema) Additional() *PropertySchema { return s.additional }

// Property looks up a declared property, falling back to the additional
// property schema. It returns nil for unknown keys.
func (s *ObjectSchema) Property(name string) *PropertySchema {
	if s == nil {
		return nil
	}
	if p, ok := s.byName[name]; ok {
		return p
	}
	return s.additional
}

// UnionSchema accepts any of its options. Both lookup tables are computed at
// construction; the first option wins when two options claim the same key.
type UnionSchema struct {
	Base
	options []Schema
	byToken map[TokenKind]Schema
	byNode  map[Kind]Schema
}

// NewUnionSchema builds a union schema.
func NewUnionSchema(b Base, options ...Schema) *UnionSchema {
	u := &UnionSchema{
		Base:    b,
		options: options,
		byToken: make(map[TokenKind]Schema),
		byNode:  make(map[Kind]Schema),
	}
	for _, o := range options {
		switch o := o.(type) {
		case *UnionSchema:
			for k, s := range o.byToken {
				u.addToken(k, s)
			}
			for k, s := range o.byNode {
				u.addNode(k, s)
			}
		default:
			if tk, nk, ok := produces(o); ok {
				u.addToken(tk, o)
				u.addNode(nk, o)
			}
		}
	}
	return u
}

func (u *UnionSchema) addToken(k TokenKind, s Schema) {
	if _, ok := u.byToken[k]; !ok {
		u.byToken[k] = s
	}
}

func (u *UnionSchema) addNode(k Kind, s Schema) {
	if _, ok := u.byNode[k]; !ok {
		u.byNode[k] = s
	}
}

// TypeName implements lang.Schema.
func (*UnionSchema) TypeName() string { return "union" }

// Options returns the union options.
func (u *UnionSchema) Options() []Schema { return u.options }

// ForToken returns the option selected by the first token of a value.
func (u *UnionSchema) ForToken(k TokenKind) (Schema, bool) {
	s, ok := u.byToken[k]
	return s, ok
}

// ForNode returns the option matching a parsed node kind.
func (u *UnionSchema) ForNode(k Kind) (Schema, bool) {
	s, ok := u.byNode[k]
	return s, ok
}

// produces maps a concrete schema to the first token and node kind of the
// values it accepts.
func produces(s Schema) (TokenKind, Kind, bool) {
	switch s.(type) {
	case *NullSchema:
		return TokenNull, KindNull, true
	case *BoolSchema:
		return TokenBoolean, KindBool, true
	case *NumberSchema:
		return TokenNumber, KindNumber, true
	case *StringSchema:
		return TokenString, KindString, true
	case *ArraySchema:
		return TokenLeftBracket, KindArray, true
	case *ObjectSchema:
		return TokenLeftBrace, KindObject, true
	default:
		return 0, 0, false
	}
}

// ScalarKey renders a scalar node as a lookup key for switching
// properties.
func ScalarKey(n Node) (string, bool) {
	switch n := n.(type) {
	case *String:
		return n.Value, true
	case *Bool:
		return strconv.FormatBool(n.Value), true
	case *Number:
		if n.fitsInt() {
			return strconv.FormatInt(n.Int, 10), true
		}
		if n.IsInt {
			return n.Raw, true
		}
		return strconv.FormatFloat(n.Float, 'g', -1, 64), true
	case *Null:
		return "null", true
	default:
		return "", false
	}
}
