// Package mesh implements the dataset container (component C2, second
// half) that flows through the pipeline: a time-varying Cartesian mesh
// of point-centered arrays plus coordinate axes, grounded on the
// original toolkit's teca_cartesian_mesh contract described alongside
// teca_cf_reader.h/teca_cf_writer.h.
package mesh

import (
	"fmt"

	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/variant"
)

// Dataset is the type-erased payload an algorithm.Node passes between
// pipeline stages. Empty and *Mesh are the only two kinds.
type Dataset interface {
	isDataset()
}

// Empty is the zero dataset: a node requested but produced nothing (an
// upstream had no data for the requested step, for instance).
type Empty struct{}

func (Empty) isDataset() {}

// ErrDuplicateArrayName is returned by PointArrays.Add when name is
// already present.
var ErrDuplicateArrayName = fmt.Errorf("mesh: duplicate point array name")

// PointArrays is an ordered, name-addressed collection of point-centered
// variant arrays. All arrays must share the same Len() (I-DS1),
// enforced at Add/Set time.
type PointArrays struct {
	order []string
	data  map[string]variant.Array
}

// NewPointArrays returns an empty collection.
func NewPointArrays() *PointArrays {
	return &PointArrays{data: make(map[string]variant.Array)}
}

// Names returns array names in insertion order.
func (p *PointArrays) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len returns the shared element count of every array, or 0 if empty.
func (p *PointArrays) Len() int {
	if len(p.order) == 0 {
		return 0
	}
	return p.data[p.order[0]].Len()
}

// Has reports whether name is present.
func (p *PointArrays) Has(name string) bool {
	_, ok := p.data[name]
	return ok
}

// Get returns the array stored under name.
func (p *PointArrays) Get(name string) (variant.Array, bool) {
	a, ok := p.data[name]
	return a, ok
}

// Add inserts a new array under name. Fails with ErrDuplicateArrayName
// if name is already present, or OutOfRange (I-DS1) if the array's
// length disagrees with the collection's existing length.
func (p *PointArrays) Add(name string, a variant.Array) error {
	if _, ok := p.data[name]; ok {
		return errs.New(errs.ProtocolFailure, "PointArrays.Add", fmt.Errorf("%w: %q", ErrDuplicateArrayName, name))
	}
	if len(p.order) > 0 && a.Len() != p.Len() {
		return errs.New(errs.OutOfRange, "PointArrays.Add", fmt.Errorf("array %q has length %d, want %d", name, a.Len(), p.Len()))
	}
	p.order = append(p.order, name)
	p.data[name] = a
	return nil
}

// Set replaces the array stored under an existing name, enforcing the
// same shared-length invariant as Add.
func (p *PointArrays) Set(name string, a variant.Array) error {
	if _, ok := p.data[name]; !ok {
		return errs.New(errs.KeyMissing, "PointArrays.Set", fmt.Errorf("no array named %q", name))
	}
	for _, n := range p.order {
		if n == name {
			continue
		}
		if a.Len() != p.data[n].Len() {
			return errs.New(errs.OutOfRange, "PointArrays.Set", fmt.Errorf("array %q has length %d, want %d", name, a.Len(), p.data[n].Len()))
		}
	}
	p.data[name] = a
	return nil
}

// Clone deep-copies the collection.
func (p *PointArrays) Clone() *PointArrays {
	out := NewPointArrays()
	for _, n := range p.order {
		out.order = append(out.order, n)
		out.data[n] = p.data[n].Clone()
	}
	return out
}

// Equal reports structural equality, independent of insertion order
// (the name *set* and each array's contents must match).
func (p *PointArrays) Equal(o *PointArrays) bool {
	if len(p.order) != len(o.order) {
		return false
	}
	for n, a := range p.data {
		b, ok := o.data[n]
		if !ok || !a.Equal(b) {
			return false
		}
	}
	return true
}

// Mesh is the one non-empty Dataset kind: a Cartesian grid of
// point-centered arrays plus up to four coordinate axes.
type Mesh struct {
	Meta   *metadata.Metadata
	Points *PointArrays
	X, Y, Z, T variant.Array
	Extent [6]int64
}

func (*Mesh) isDataset() {}

// New constructs an empty mesh with fresh Meta/Points.
func New() *Mesh {
	return &Mesh{Meta: metadata.New(), Points: NewPointArrays()}
}

func extentLen(lo, hi int64) int {
	if hi < lo {
		return 0
	}
	return int(hi-lo) + 1
}

// checkAxis enforces I-DS2: a non-nil coordinate axis's length must
// match its corresponding extent dimension.
func checkAxis(axis variant.Array, lo, hi int64, name string) error {
	if axis == nil {
		return nil
	}
	want := extentLen(lo, hi)
	if axis.Len() != want {
		return errs.New(errs.ProtocolFailure, "mesh.checkAxis", fmt.Errorf("axis %s has length %d, extent wants %d", name, axis.Len(), want))
	}
	return nil
}

// Validate checks I-DS1 (point arrays agree in length with the extent's
// point count) and I-DS2 (coordinate axis lengths match their extent
// dimension).
func (m *Mesh) Validate() error {
	if err := checkAxis(m.X, m.Extent[0], m.Extent[1], "x"); err != nil {
		return err
	}
	if err := checkAxis(m.Y, m.Extent[2], m.Extent[3], "y"); err != nil {
		return err
	}
	if err := checkAxis(m.Z, m.Extent[4], m.Extent[5], "z"); err != nil {
		return err
	}
	want := extentLen(m.Extent[0], m.Extent[1]) * extentLen(m.Extent[2], m.Extent[3]) * extentLen(m.Extent[4], m.Extent[5])
	for _, n := range m.Points.Names() {
		a, _ := m.Points.Get(n)
		if a.Len() != want {
			return errs.New(errs.ProtocolFailure, "mesh.Validate", fmt.Errorf("point array %q has length %d, extent wants %d", n, a.Len(), want))
		}
	}
	return nil
}

// NewInstance returns a mesh with the same shape as m (extent,
// point-array names/types, coordinate presence) but every array
// emptied — the map-reduce stage's accumulator seed (I-DS3).
func (m *Mesh) NewInstance() *Mesh {
	out := New()
	out.Extent = m.Extent
	if m.X != nil {
		out.X = m.X.CloneEmpty()
	}
	if m.Y != nil {
		out.Y = m.Y.CloneEmpty()
	}
	if m.Z != nil {
		out.Z = m.Z.CloneEmpty()
	}
	if m.T != nil {
		out.T = m.T.CloneEmpty()
	}
	for _, n := range m.Points.Names() {
		a, _ := m.Points.Get(n)
		out.Points.Add(n, a.CloneEmpty())
	}
	return out
}

// Clone deep-copies the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{Meta: m.Meta.Clone(), Points: m.Points.Clone(), Extent: m.Extent}
	if m.X != nil {
		out.X = m.X.Clone()
	}
	if m.Y != nil {
		out.Y = m.Y.Clone()
	}
	if m.Z != nil {
		out.Z = m.Z.Clone()
	}
	if m.T != nil {
		out.T = m.T.Clone()
	}
	return out
}

// sameReductionCategory reports whether two element types may be
// combined by a widening reducer: an exact match, or two numeric types
// in the same category (both floating point, or both integer).
// A numeric/text, numeric/object, or int/float mismatch never is —
// that crosses a boundary Dispatch2Widening does not paper over.
func sameReductionCategory(a, b variant.TypeCode) bool {
	if a == b {
		return true
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return false
	}
	return a.IsFloat() == b.IsFloat()
}

// CompatibleForReduction implements I-DS3: a and b must share extent,
// point-array name set, and a per-array element type compatible with
// widening (variant.Dispatch2Widening) before a reducer may combine
// them. Returns a ProtocolFailure-kind error naming the first mismatch.
func CompatibleForReduction(a, b *Mesh) error {
	if a.Extent != b.Extent {
		return errs.New(errs.ProtocolFailure, "mesh.CompatibleForReduction", fmt.Errorf("extent mismatch: %v != %v", a.Extent, b.Extent))
	}
	an, bn := a.Points.Names(), b.Points.Names()
	if len(an) != len(bn) {
		return errs.New(errs.ProtocolFailure, "mesh.CompatibleForReduction", fmt.Errorf("point array count mismatch: %d != %d", len(an), len(bn)))
	}
	for _, n := range an {
		av, _ := a.Points.Get(n)
		bv, ok := b.Points.Get(n)
		if !ok {
			return errs.New(errs.ProtocolFailure, "mesh.CompatibleForReduction", fmt.Errorf("point array %q missing from b", n))
		}
		if !sameReductionCategory(av.TypeCode(), bv.TypeCode()) {
			return errs.New(errs.ProtocolFailure, "mesh.CompatibleForReduction", fmt.Errorf("point array %q type mismatch: %s != %s", n, av.TypeCode(), bv.TypeCode()))
		}
	}
	return nil
}

// NewRequest builds a request metadata naming the step, the arrays of
// interest, and the extent to read — the three keys every reader stage
// in package stages honors.
func NewRequest(step int64, arrays []string, extent [6]int64) *metadata.Metadata {
	m := metadata.New()
	m.Set("time_step", step)
	names := variant.NewString(arrays...)
	m.SetArray("arrays", names)
	extentArr := variant.NewInt64(extent[:]...)
	m.SetArray("extent", extentArr)
	return m
}

// NewReport builds a report metadata naming the total step count, the
// whole extent, and the available array/coordinate names.
func NewReport(numSteps int64, wholeExtent [6]int64, arrays []string) *metadata.Metadata {
	m := metadata.New()
	m.Set("number_of_time_steps", numSteps)
	m.SetArray("whole_extent", variant.NewInt64(wholeExtent[:]...))
	m.SetArray("variables", variant.NewString(arrays...))
	return m
}
