package mapreduce

import (
	"context"

	"github.com/teca-go/teca/mesh"
)

// Reducer combines two datasets into one. Implementations must be
// associative; the kernel never assumes commutativity and always
// reduces in strict ascending step order, which stays correct whether
// or not a given reducer happens to commute.
type Reducer interface {
	Reduce(ctx context.Context, a, b mesh.Dataset) (mesh.Dataset, error)
}

// ReducerFunc adapts a plain function to Reducer.
type ReducerFunc func(ctx context.Context, a, b mesh.Dataset) (mesh.Dataset, error)

func (f ReducerFunc) Reduce(ctx context.Context, a, b mesh.Dataset) (mesh.Dataset, error) {
	return f(ctx, a, b)
}
