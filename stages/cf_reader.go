package stages

import (
	"context"

	"github.com/teca-go/teca/algorithm"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/variant"
)

// CFSource is the pluggable collaborator CFReader reads through. A real
// NetCDF-backed implementation can be dropped in without touching the
// kernel; only an in-memory test double ships here, consistent with
// "concrete reader stages... out of scope".
type CFSource interface {
	ListVariables(ctx context.Context) ([]string, error)
	ReadExtent(ctx context.Context, step int64, arrays []string, extent [6]int64) (*mesh.Mesh, error)
	NumSteps(ctx context.Context) (int64, error)
	WholeExtent(ctx context.Context) ([6]int64, error)
}

// CFReader is a reader stage shaped like the original's teca_cf_reader,
// delegating all I/O to a CFSource.
type CFReader struct {
	algorithm.Base
	source CFSource
}

// NewCFReader constructs a reader backed by source.
func NewCFReader(source CFSource) *CFReader {
	r := &CFReader{source: source}
	r.Init(0, 1)
	return r
}

func (r *CFReader) Report(ctx context.Context, port int, upstream []*metadata.Metadata) (*metadata.Metadata, error) {
	n, err := r.source.NumSteps(ctx)
	if err != nil {
		return nil, err
	}
	extent, err := r.source.WholeExtent(ctx)
	if err != nil {
		return nil, err
	}
	vars, err := r.source.ListVariables(ctx)
	if err != nil {
		return nil, err
	}
	rep := mesh.NewReport(n, extent, vars)
	if coordSrc, ok := r.source.(CoordinateSource); ok {
		coords, err := coordSrc.Coordinates(ctx)
		if err != nil {
			return nil, err
		}
		rep.SetMetadata("coordinates", coords)
	} else {
		rep.SetMetadata("coordinates", metadata.New())
	}
	return rep, nil
}

// CoordinateSource is an optional CFSource extension a backing
// implementation can satisfy to populate the report's "coordinates"
// metadata (x/y/z/t axis arrays, per spec.md §3/§6). Sources that don't
// implement it report an empty coordinates bag — acceptable for
// lower-dimensional meshes per I-DS2.
type CoordinateSource interface {
	Coordinates(ctx context.Context) (*metadata.Metadata, error)
}

func (r *CFReader) Execute(ctx context.Context, port int, upstream []mesh.Dataset, request *metadata.Metadata) (mesh.Dataset, error) {
	var step int64
	if err := request.Get("time_step", &step); err != nil {
		return nil, err
	}
	var names []string
	if err := request.Get("arrays", &names); err != nil {
		names, err = r.source.ListVariables(ctx)
		if err != nil {
			return nil, err
		}
	}
	var extent [6]int64
	if arr, ok := request.GetArray("extent"); ok && arr.Len() == 6 {
		for i := 0; i < 6; i++ {
			v, _ := arr.At(i)
			iv, err := toInt64(v)
			if err != nil {
				return nil, err
			}
			extent[i] = iv
		}
	} else {
		var err error
		extent, err = r.source.WholeExtent(ctx)
		if err != nil {
			return nil, err
		}
	}
	return r.source.ReadExtent(ctx, step, names, extent)
}

// InMemoryCFSource is the in-memory CFSource test double shipped with
// the kernel.
type InMemoryCFSource struct {
	Steps []*mesh.Mesh
}

func (s *InMemoryCFSource) ListVariables(ctx context.Context) ([]string, error) {
	if len(s.Steps) == 0 {
		return nil, nil
	}
	return s.Steps[0].Points.Names(), nil
}

func (s *InMemoryCFSource) NumSteps(ctx context.Context) (int64, error) {
	return int64(len(s.Steps)), nil
}

func (s *InMemoryCFSource) WholeExtent(ctx context.Context) ([6]int64, error) {
	if len(s.Steps) == 0 {
		return [6]int64{}, nil
	}
	return s.Steps[0].Extent, nil
}

func (s *InMemoryCFSource) ReadExtent(ctx context.Context, step int64, arrays []string, extent [6]int64) (*mesh.Mesh, error) {
	src := s.Steps[step]
	if extent == src.Extent {
		return sliceNames(src, arrays)
	}
	return sliceExtent(src, arrays, extent)
}

// Coordinates implements CoordinateSource by cloning the first step's
// spatial axes and collecting every step's T[0] into one t array, the
// same convention stages.MemoryReader uses.
func (s *InMemoryCFSource) Coordinates(ctx context.Context) (*metadata.Metadata, error) {
	coords := metadata.New()
	if len(s.Steps) == 0 {
		return coords, nil
	}
	first := s.Steps[0]
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
		if err != nil {
			return nil, err
		}
		t.Reserve(len(s.Steps))
		for _, step := range s.Steps {
			if step.T != nil && step.T.Len() > 0 {
				v, _ := step.T.At(0)
				_ = t.Append(v)
			}
		}
		coords.SetArray("t", t)
	}
	return coords, nil
}
