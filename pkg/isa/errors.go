package isa

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Typed errors below match them through errors.Is.
var (
	ErrParse     = errors.New("parse error")
	ErrReference = errors.New("reference error")
	ErrAttribute = errors.New("attribute error")
)

// ParseError reports malformed tabular or document input.
type ParseError struct {
	File   string
	Line   int // 1-based; zero when unknown
	Column int // 1-based; zero when unknown
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
		if e.Column > 0 {
			loc = fmt.Sprintf("%s:%d", loc, e.Column)
		}
	}
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if loc == "" {
		return "parse error: " + msg
	}
	return fmt.Sprintf("parse error: %s: %s", loc, msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ReferenceKind names what a dangling reference pointed at.
type ReferenceKind string

// Reference kinds raised by parsers.
const (
	RefProtocol       ReferenceKind = "protocol"
	RefFactor         ReferenceKind = "factor"
	RefOntologySource ReferenceKind = "ontology source"
	RefSample         ReferenceKind = "sample"
	RefIdentifier     ReferenceKind = "identifier"
)

// ReferenceError reports a dangling reference to a protocol, factor,
// ontology source, sample or document identifier.
type ReferenceError struct {
	Kind ReferenceKind
	Name string
	File string
	Line int
}

func (e *ReferenceError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("reference error: undeclared %s %q", e.Kind, e.Name)
	}
	if e.Line > 0 {
		return fmt.Sprintf("reference error: %s:%d: undeclared %s %q", e.File, e.Line, e.Kind, e.Name)
	}
	return fmt.Sprintf("reference error: %s: undeclared %s %q", e.File, e.Kind, e.Name)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrReference }

// AttributeError reports a wrong-kind or out-of-range assignment through a
// model setter.
type AttributeError struct {
	Entity    string
	Attribute string
	Value     any
	Msg       string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("attribute error: %s.%s: %s (got %T %v)", e.Entity, e.Attribute, e.Msg, e.Value, e.Value)
}

func (e *AttributeError) Is(target error) bool { return target == ErrAttribute }
