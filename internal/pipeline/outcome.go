package pipeline

// Outcome is the result of one pipeline stage.
//
// When Err is set, Value holds the stage's fallback zero value, so consumers
// can always use Value without checking Err first. Ran is false for stages
// that the mode did not call for.
type Outcome[T any] struct {
	Value T
	Err   error
	Ran   bool
}

// Succeeded wraps the value of a stage that ran without error.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Ran: true}
}

// Failed records a stage failure together with its fallback value.
func Failed[T any](fallback T, err error) Outcome[T] {
	return Outcome[T]{Value: fallback, Err: err, Ran: true}
}

// Skipped is the outcome of a stage that did not run.
func Skipped[T any](zero T) Outcome[T] {
	return Outcome[T]{Value: zero}
}

// OK reports whether the stage ran and succeeded.
func (o Outcome[T]) OK() bool { return o.Ran && o.Err == nil }
