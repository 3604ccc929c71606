package domain

// Result is the outcome of one item of a batch: either a value or a classified error
type Result[T any] struct {
	Value T
	Err   error
	Kind  ErrorKind
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Err wraps a failure, classifying it with KindOf
func Err[T any](err error) Result[T] {
	return Result[T]{Err: err, Kind: KindOf(err)}
}

// ErrWithKind wraps a failure with an explicit kind
func ErrWithKind[T any](kind ErrorKind, err error) Result[T] {
	return Result[T]{Err: err, Kind: kind}
}

// IsOk reports whether the result carries a value
func (r Result[T]) IsOk() bool {
	return r.Err == nil
}

// Partition splits results into values and failures
func Partition[T any](results []Result[T]) (oks []T, errs []Result[T]) {
	for _, r := range results {
		if r.IsOk() {
			oks = append(oks, r.Value)
		} else {
			errs = append(errs, r)
		}
	}
	return oks, errs
}
