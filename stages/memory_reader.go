// Package stages provides the reference collaborator stages that give
// every pipeline contract a concrete, testable implementation: an
// in-memory reader, a pluggable CF-shaped reader, a writer, and a
// minimal arithmetic transform. None of these are a full NetCDF/CF
// toolkit — that is explicitly out of scope — but each implements its
// contract in full, grounded on the original's teca_cf_reader.h /
// teca_cf_writer.h metadata-key contract.
package stages

import (
	"context"
	"fmt"

	"github.com/teca-go/teca/algorithm"
	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/variant"
)

// MemoryReader serves a pre-populated slice of meshes, one per time
// step, honoring time_step/arrays/extent on every request.
type MemoryReader struct {
	algorithm.Base
	steps []*mesh.Mesh
}

// NewMemoryReader constructs a reader over steps, in time order.
func NewMemoryReader(steps []*mesh.Mesh) *MemoryReader {
	r := &MemoryReader{steps: steps}
	r.Init(0, 1)
	return r
}

func (r *MemoryReader) Report(ctx context.Context, port int, upstream []*metadata.Metadata) (*metadata.Metadata, error) {
	if len(r.steps) == 0 {
		return metadata.New(), nil
	}
	first := r.steps[0]
	names := first.Points.Names()
	rep := mesh.NewReport(int64(len(r.steps)), first.Extent, names)
	rep.SetMetadata("coordinates", r.coordinatesReport())
	return rep, nil
}

// coordinatesReport builds the "coordinates" metadata spec.md §3/§6
// requires every report to carry: the spatial axes taken from the
// first step (they do not vary across steps in this reference reader),
// and a synthesized t axis collecting each step's T[0] value so
// calendar.ResolveStep can binary-search it.
func (r *MemoryReader) coordinatesReport() *metadata.Metadata {
	first := r.steps[0]
	coords := metadata.New()
	if first.X != nil {
		coords.SetArray("x", first.X.Clone())
	}
	if first.Y != nil {
		coords.SetArray("y", first.Y.Clone())
	}
	if first.Z != nil {
		coords.SetArray("z", first.Z.Clone())
	}
	if first.T != nil {
		t, err := variant.NewArray(first.T.TypeCode())
		if err == nil {
			t.Reserve(len(r.steps))
			for _, step := range r.steps {
				if step.T != nil && step.T.Len() > 0 {
					v, _ := step.T.At(0)
					_ = t.Append(v)
				}
			}
			coords.SetArray("t", t)
		}
	}
	return coords
}

func (r *MemoryReader) Execute(ctx context.Context, port int, upstream []mesh.Dataset, request *metadata.Metadata) (mesh.Dataset, error) {
	var step int64
	if err := request.Get("time_step", &step); err != nil {
		return nil, err
	}
	if step < 0 || int(step) >= len(r.steps) {
		return nil, errs.New(errs.OutOfRange, "MemoryReader.Execute", fmt.Errorf("step %d out of range [0,%d)", step, len(r.steps)))
	}
	src := r.steps[step]

	var names []string
	if err := request.Get("arrays", &names); err != nil {
		names = src.Points.Names()
	}

	var extent [6]int64
	hasExtent := false
	if arr, ok := request.GetArray("extent"); ok && arr.Len() == 6 {
		for i := 0; i < 6; i++ {
			v, _ := arr.At(i)
			iv, err := toInt64(v)
			if err != nil {
				return nil, err
			}
			extent[i] = iv
		}
		hasExtent = true
	}
	if !hasExtent {
		extent = src.Extent
	}

	if extent == src.Extent {
		return sliceNames(src, names)
	}
	return sliceExtent(src, names, extent)
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	default:
		return 0, errs.New(errs.BadCast, "stages.toInt64", fmt.Errorf("cannot convert %T to int64", v))
	}
}

// sliceNames returns a copy of src restricted to the named point
// arrays, with coordinates/extent unchanged (I-DS1/I-DS2 preserved).
func sliceNames(src *mesh.Mesh, names []string) (*mesh.Mesh, error) {
	out := mesh.New()
	out.Meta = src.Meta.Clone()
	out.Extent = src.Extent
	out.X, out.Y, out.Z, out.T = src.X, src.Y, src.Z, src.T
	for _, n := range names {
		a, ok := src.Points.Get(n)
		if !ok {
			return nil, errs.New(errs.ProtocolFailure, "stages.sliceNames", fmt.Errorf("no array named %q", n))
		}
		if err := out.Points.Add(n, a.Clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// sliceExtent restricts src to a proper sub-extent: every point array
// and coordinate axis column/row range is re-sliced to match.
func sliceExtent(src *mesh.Mesh, names []string, extent [6]int64) (*mesh.Mesh, error) {
	if err := validSubExtent(extent, src.Extent); err != nil {
		return nil, err
	}
	out := mesh.New()
	out.Meta = src.Meta.Clone()
	out.Extent = extent

	out.X = sliceAxis(src.X, src.Extent[0], extent[0], extent[1])
	out.Y = sliceAxis(src.Y, src.Extent[2], extent[2], extent[3])
	out.Z = sliceAxis(src.Z, src.Extent[4], extent[4], extent[5])
	out.T = src.T

	// Point arrays are laid out with i varying fastest, then j, then k;
	// copy one i-row of the sub-extent per (j, k) pair.
	nx := int(src.Extent[1]-src.Extent[0]) + 1
	ny := int(src.Extent[3]-src.Extent[2]) + 1
	width := int(extent[1]-extent[0]) + 1
	for _, n := range names {
		a, ok := src.Points.Get(n)
		if !ok {
			return nil, errs.New(errs.ProtocolFailure, "stages.sliceExtent", fmt.Errorf("no array named %q", n))
		}
		dst := a.CloneEmpty()
		for k := extent[4]; k <= extent[5]; k++ {
			for j := extent[2]; j <= extent[3]; j++ {
				start := (int(k-src.Extent[4])*ny+int(j-src.Extent[2]))*nx + int(extent[0]-src.Extent[0])
				row := a.CloneEmpty()
				if err := a.GetRange(start, start+width, row); err != nil {
					return nil, err
				}
				if err := dst.AppendArray(row); err != nil {
					return nil, err
				}
			}
		}
		if err := out.Points.Add(n, dst); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sliceAxis(axis variant.Array, baseLo, lo, hi int64) variant.Array {
	if axis == nil {
		return nil
	}
	start := int(lo - baseLo)
	end := start + int(hi-lo) + 1
	dst := axis.CloneEmpty()
	axis.GetRange(start, end, dst)
	return dst
}

func validSubExtent(sub, whole [6]int64) error {
	for i := 0; i < 6; i += 2 {
		if sub[i] < whole[i] || sub[i+1] > whole[i+1] || sub[i] > sub[i+1] {
			return errs.New(errs.OutOfRange, "stages.validSubExtent", fmt.Errorf("extent %v is not a sub-extent of %v", sub, whole))
		}
	}
	return nil
}
