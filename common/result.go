package common

// FetchStatus separates "the provider has nothing" from "the call failed"; the
// latter is always reported through the error return instead.
type FetchStatus string

const (
	FetchStatusFound       FetchStatus = "found"
	FetchStatusEmpty       FetchStatus = "empty"
	FetchStatusUnsupported FetchStatus = "unsupported"
)

type Result[T any] struct {
	Status FetchStatus
	Value  T
}

func Found[T any](v T) *Result[T] {
	return &Result[T]{Status: FetchStatusFound, Value: v}
}

func Empty[T any]() *Result[T] {
	return &Result[T]{Status: FetchStatusEmpty}
}

func Unsupported[T any]() *Result[T] {
	return &Result[T]{Status: FetchStatusUnsupported}
}

func (r *Result[T]) IsFound() bool {
	return r != nil && r.Status == FetchStatusFound
}

func (r *Result[T]) IsUnsupported() bool {
	return r != nil && r.Status == FetchStatusUnsupported
}
