package models

// State is the phase of a Result.
type State int

const (
	StateLoading State = iota
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is what every live stream emits and what view state holds:
// Loading, Success with a payload, or Error with its cause.
type Result[T any] struct {
	State State
	Data  T
	Err   error
}

func Loading[T any]() Result[T] {
	return Result[T]{State: StateLoading}
}

func Success[T any](v T) Result[T] {
	return Result[T]{State: StateSuccess, Data: v}
}

func Failure[T any](err error) Result[T] {
	return Result[T]{State: StateError, Err: err}
}

func (r Result[T]) IsLoading() bool { return r.State == StateLoading }
func (r Result[T]) IsSuccess() bool { return r.State == StateSuccess }
func (r Result[T]) IsError() bool   { return r.State == StateError }
