package stages

import (
	"context"
	"fmt"

	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/mapreduce"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/variant"
)

// Sum is the canonical elementwise-sum reducer used by the map-reduce
// stage's tested scenarios: every point array present in both meshes
// is summed elementwise via variant.Dispatch2Widening (so combining a
// float32 accumulator with a float64 step, for instance, widens rather
// than truncates).
var Sum mapreduce.ReducerFunc = func(ctx context.Context, a, b mesh.Dataset) (mesh.Dataset, error) {
	am, ok := a.(*mesh.Mesh)
	if !ok {
		return b, nil
	}
	bm, ok := b.(*mesh.Mesh)
	if !ok {
		return a, nil
	}
	if err := mesh.CompatibleForReduction(am, bm); err != nil {
		return nil, errs.New(errs.ReducerFailure, "stages.Sum", err)
	}

	out := am.NewInstance()
	out.Points = mesh.NewPointArrays()
	for _, name := range am.Points.Names() {
		av, _ := am.Points.Get(name)
		bv, ok := bm.Points.Get(name)
		if !ok {
			return nil, errs.New(errs.ReducerFailure, "stages.Sum", fmt.Errorf("array %q missing from operand", name))
		}
		summed, err := variant.Dispatch2Widening(av, bv, func(x, y float64) float64 { return x + y })
		if err != nil {
			return nil, err
		}
		if err := out.Points.Add(name, summed); err != nil {
			return nil, err
		}
	}
	return out, nil
}
