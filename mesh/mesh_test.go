package mesh_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/variant"
)

func newTestMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m := mesh.New()
	m.Extent = [6]int64{0, 1, 0, 1, 0, 0}
	m.X = variant.NewFloat64(0, 1)
	m.Y = variant.NewFloat64(0, 1)
	require.NoError(t, m.Points.Add("temperature", variant.NewFloat64(1, 2, 3, 4)))
	require.NoError(t, m.Validate())
	return m
}

func TestPointArraysRejectsDuplicateName(t *testing.T) {
	p := mesh.NewPointArrays()
	require.NoError(t, p.Add("a", variant.NewInt32(1, 2)))
	err := p.Add("a", variant.NewInt32(3, 4))
	require.ErrorIs(t, err, mesh.ErrDuplicateArrayName)
}

func TestPointArraysRejectsLengthMismatch(t *testing.T) {
	p := mesh.NewPointArrays()
	require.NoError(t, p.Add("a", variant.NewInt32(1, 2)))
	err := p.Add("b", variant.NewInt32(1, 2, 3))
	require.Error(t, err)
}

func TestMeshValidateRejectsBadAxisLength(t *testing.T) {
	m := mesh.New()
	m.Extent = [6]int64{0, 2, 0, 0, 0, 0}
	m.X = variant.NewFloat64(0, 1) // should have 3 elements
	err := m.Validate()
	require.Error(t, err)
}

func TestNewInstancePreservesShapeEmptiesData(t *testing.T) {
	m := newTestMesh(t)
	inst := m.NewInstance()

	require.Equal(t, m.Extent, inst.Extent)
	require.Equal(t, 0, inst.X.Len())
	require.Equal(t, m.Points.Names(), inst.Points.Names())

	arr, ok := inst.Points.Get("temperature")
	require.True(t, ok)
	require.Equal(t, 0, arr.Len())
	require.Equal(t, variant.Float64, arr.TypeCode())
}

func TestCompatibleForReductionDetectsExtentMismatch(t *testing.T) {
	a := newTestMesh(t)
	b := newTestMesh(t)
	b.Extent[1] = 5

	err := mesh.CompatibleForReduction(a, b)
	require.Error(t, err)
}

func TestCompatibleForReductionDetectsTypeMismatch(t *testing.T) {
	a := newTestMesh(t)
	b := a.Clone()
	require.NoError(t, b.Points.Set("temperature", variant.NewInt32(1, 2, 3, 4)))

	err := mesh.CompatibleForReduction(a, b)
	require.Error(t, err)
}

func TestCompatibleForReductionAcceptsMatchingShape(t *testing.T) {
	a := newTestMesh(t)
	b := newTestMesh(t)
	require.NoError(t, mesh.CompatibleForReduction(a, b))
}

func TestCloneIsIndependent(t *testing.T) {
	m := newTestMesh(t)
	clone := m.Clone()

	arr, _ := clone.Points.Get("temperature")
	require.NoError(t, arr.SetScalar(0, float64(999)))

	orig, _ := m.Points.Get("temperature")
	v, _ := orig.At(0)
	require.NotEqual(t, float64(999), v)
}

func TestNewRequestAndReport(t *testing.T) {
	req := mesh.NewRequest(3, []string{"temperature"}, [6]int64{0, 1, 0, 1, 0, 0})
	var step int64
	require.NoError(t, req.Get("time_step", &step))
	require.Equal(t, int64(3), step)

	report := mesh.NewReport(10, [6]int64{0, 1, 0, 1, 0, 0}, []string{"temperature"})
	var n int64
	require.NoError(t, report.Get("number_of_time_steps", &n))
	require.Equal(t, int64(10), n)
}
