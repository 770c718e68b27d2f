package marina

import "fmt"

// QueryError reports invalid input: a parse failure, an unresolved alias or
// column, a type incompatibility, or a query the rule set cannot implement.
// The optimizer retains no state after returning one.
type QueryError struct {
	msg string
}

// Queryf builds a QueryError with fmt-style formatting.
func Queryf(format string, args ...interface{}) error {
	return &QueryError{msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return "query error: " + e.msg
}

// OptimizerError reports an internal invariant violation: a winner readied
// twice, a rule fired twice on the same multi-expression, an unexpected
// operator class during exploration. A correct build never produces one.
type OptimizerError struct {
	msg string
}

// Internalf builds an OptimizerError with fmt-style formatting.
func Internalf(format string, args ...interface{}) error {
	return &OptimizerError{msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *OptimizerError) Error() string {
	return "optimizer invariant violated: " + e.msg
}
