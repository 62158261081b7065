package isa

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

// Value variants.
const (
	ValueNone ValueKind = iota
	ValueString
	ValueNumber
	ValueAnnotation
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueAnnotation:
		return "annotation"
	default:
		return "none"
	}
}

// Value is the tagged union carried by characteristics, factor values and
// parameter values: a string, a number or an ontology annotation.
type Value struct {
	kind    ValueKind
	str     string
	num     float64
	literal string
	ann     *OntologyAnnotation
}

// StringValue returns a string variant.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// NumberValue returns a number variant.
func NumberValue(f float64) Value {
	return Value{kind: ValueNumber, num: f, literal: strconv.FormatFloat(f, 'f', -1, 64)}
}

// AnnotationValue returns an annotation variant. A nil annotation yields None.
func AnnotationValue(a *OntologyAnnotation) Value {
	if a == nil {
		return Value{}
	}
	return Value{kind: ValueAnnotation, ann: a}
}

// ParseNumber returns a number variant when s is an integer or decimal
// literal, keeping the literal for faithful re-emission.
func ParseNumber(s string) (Value, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return Value{}, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, false
	}
	// Reject hex floats and words such as "Inf" that ParseFloat accepts.
	for _, r := range t {
		if !strings.ContainsRune("0123456789+-.eE", r) {
			return Value{}, false
		}
	}
	return Value{kind: ValueNumber, num: f, literal: t}, true
}

// InferValue returns a number when s parses as one, otherwise a string. An
// empty cell yields None.
func InferValue(s string) Value {
	if s == "" {
		return Value{}
	}
	if v, ok := ParseNumber(s); ok {
		return v
	}
	return StringValue(s)
}

// NewValue converts a dynamically typed input into a Value. Supported inputs
// are string, integer and float kinds, *OntologyAnnotation, Value and nil.
func NewValue(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case float32:
		return NumberValue(float64(t)), nil
	case int:
		return NumberValue(float64(t)), nil
	case int32:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case *OntologyAnnotation:
		return AnnotationValue(t), nil
	default:
		return Value{}, &AttributeError{Entity: "Value", Attribute: "value", Value: v, Msg: "expected string, number or ontology annotation"}
	}
}

// Kind returns the variant.
func (v Value) Kind() ValueKind { return v.kind }

// IsNone reports whether the value is unset.
func (v Value) IsNone() bool { return v.kind == ValueNone }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.str, v.kind == ValueString }

// Number returns the numeric payload.
func (v Value) Number() (float64, bool) { return v.num, v.kind == ValueNumber }

// Annotation returns the annotation payload.
func (v Value) Annotation() (*OntologyAnnotation, bool) { return v.ann, v.kind == ValueAnnotation }

// Text renders the value as it appears in a table cell.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return v.literal
	case ValueAnnotation:
		return v.ann.Term
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Text() }

// Equal compares variants structurally; numbers compare by value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == o.str
	case ValueNumber:
		return v.num == o.num
	case ValueAnnotation:
		return SameTerm(v.ann, o.ann)
	default:
		return true
	}
}
