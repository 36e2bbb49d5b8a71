package parser

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySource = errors.New("empty source")
	ErrSyntax      = errors.New("syntax error")
)

type ParseErrorKind int

const (
	ParseErrorEmpty ParseErrorKind = iota + 1
	ParseErrorSyntax
)

func (k ParseErrorKind) String() string {
	switch k {
	case ParseErrorEmpty:
		return "empty"
	case ParseErrorSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// ParseError is returned for input that cannot produce a complete SourceUnit.
// Line and Column are 1-based and zero for empty input.
type ParseError struct {
	Kind   ParseErrorKind
	Line   int
	Column int
	Token  string
}

func (e *ParseError) Error() string {
	if e.Kind == ParseErrorEmpty {
		return "parse error: source is empty"
	}
	if e.Token != "" {
		return fmt.Sprintf("parse error: syntax error at line %d, column %d near %q", e.Line, e.Column, e.Token)
	}
	return fmt.Sprintf("parse error: syntax error at line %d, column %d", e.Line, e.Column)
}

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrEmptySource:
		return e.Kind == ParseErrorEmpty
	case ErrSyntax:
		return e.Kind == ParseErrorSyntax
	}
	return false
}
