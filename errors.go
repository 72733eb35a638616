package cwl

import "fmt"

// ParseError reports a document whose structure, schema or version is
// not recognized. It is raised while loading and is fatal to the
// operation.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "Parse error: " + e.Message + ": " + e.Err.Error()
	}
	return "Parse error: " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError ...
func NewParseError(format string, args ...interface{}) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// WrapParseError keeps the cause available for errors.Is / errors.As.
func WrapParseError(err error, format string, args ...interface{}) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Err: err}
}

// InspectionError reports every post-parse failure: missing path, type
// mismatch, evaluation failure, or an unsupported feature.
type InspectionError struct {
	Message string
	// Expr holds the offending expression text when the failure came
	// from the expression evaluator.
	Expr string
	Err  error
}

func (e *InspectionError) Error() string {
	msg := "Inspection error: " + e.Message
	if e.Expr != "" {
		msg += fmt.Sprintf(" (in %q)", e.Expr)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InspectionError) Unwrap() error { return e.Err }

// NewInspectionError ...
func NewInspectionError(format string, args ...interface{}) *InspectionError {
	return &InspectionError{Message: fmt.Sprintf(format, args...)}
}

// WrapEvalError records the expression that failed alongside the
// engine's own error.
func WrapEvalError(err error, expr string) *InspectionError {
	return &InspectionError{Message: "expression evaluation failed", Expr: expr, Err: err}
}

// WithExpr records the expression text a failure came from.
func (e *InspectionError) WithExpr(expr string) *InspectionError {
	e.Expr = expr
	return e
}
