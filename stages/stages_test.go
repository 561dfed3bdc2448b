package stages_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/rankio"
	"github.com/teca-go/teca/stages"
	"github.com/teca-go/teca/variant"
)

func threeStepMesh(t *testing.T) []*mesh.Mesh {
	t.Helper()
	out := make([]*mesh.Mesh, 3)
	for i := range out {
		m := mesh.New()
		m.Extent = [6]int64{0, 3, 0, 0, 0, 0}
		m.X = variant.NewFloat64(0, 1, 2, 3)
		m.T = variant.NewFloat64(float64(i) * 3600)
		require.NoError(t, m.Points.Add("v", variant.NewFloat64(
			float64(i*10), float64(i*10+1), float64(i*10+2), float64(i*10+3),
		)))
		out[i] = m
	}
	return out
}

func TestMemoryReaderReportsStepsAndCoordinates(t *testing.T) {
	r := stages.NewMemoryReader(threeStepMesh(t))

	rep, err := r.Report(context.Background(), 0, nil)
	require.NoError(t, err)

	var n int64
	require.NoError(t, rep.Get("number_of_time_steps", &n))
	require.Equal(t, int64(3), n)

	coords, ok := rep.GetMetadata("coordinates")
	require.True(t, ok)
	tAxis, ok := coords.GetArray("t")
	require.True(t, ok)
	require.Equal(t, 3, tAxis.Len())
	v0, _ := tAxis.At(0)
	v2, _ := tAxis.At(2)
	require.Equal(t, float64(0), v0)
	require.Equal(t, float64(7200), v2)
}

func TestMemoryReaderExecuteHonorsTimeStepAndArrays(t *testing.T) {
	r := stages.NewMemoryReader(threeStepMesh(t))

	req := mesh.NewRequest(1, []string{"v"}, [6]int64{0, 3, 0, 0, 0, 0})
	ds, err := r.Execute(context.Background(), 0, nil, req)
	require.NoError(t, err)

	m := ds.(*mesh.Mesh)
	arr, ok := m.Points.Get("v")
	require.True(t, ok)
	first, _ := arr.At(0)
	require.Equal(t, float64(10), first)
}

func TestMemoryReaderExecuteSlicesExtent(t *testing.T) {
	r := stages.NewMemoryReader(threeStepMesh(t))

	req := mesh.NewRequest(2, []string{"v"}, [6]int64{1, 2, 0, 0, 0, 0})
	ds, err := r.Execute(context.Background(), 0, nil, req)
	require.NoError(t, err)

	m := ds.(*mesh.Mesh)
	arr, ok := m.Points.Get("v")
	require.True(t, ok)
	require.Equal(t, 2, arr.Len())
	v0, _ := arr.At(0)
	v1, _ := arr.At(1)
	require.Equal(t, float64(21), v0)
	require.Equal(t, float64(22), v1)
}

func TestMemoryReaderExecuteRejectsOutOfRangeStep(t *testing.T) {
	r := stages.NewMemoryReader(threeStepMesh(t))
	req := mesh.NewRequest(9, nil, [6]int64{0, 3, 0, 0, 0, 0})
	_, err := r.Execute(context.Background(), 0, nil, req)
	require.Error(t, err)
}

func TestCFReaderDelegatesToSource(t *testing.T) {
	src := &stages.InMemoryCFSource{Steps: threeStepMesh(t)}
	r := stages.NewCFReader(src)

	rep, err := r.Report(context.Background(), 0, nil)
	require.NoError(t, err)
	var n int64
	require.NoError(t, rep.Get("number_of_time_steps", &n))
	require.Equal(t, int64(3), n)

	req := mesh.NewRequest(0, []string{"v"}, [6]int64{0, 3, 0, 0, 0, 0})
	ds, err := r.Execute(context.Background(), 0, nil, req)
	require.NoError(t, err)
	m := ds.(*mesh.Mesh)
	arr, _ := m.Points.Get("v")
	require.Equal(t, 4, arr.Len())
}

func TestArithmeticAddsArrays(t *testing.T) {
	m := mesh.New()
	m.Extent = [6]int64{0, 2, 0, 0, 0, 0}
	require.NoError(t, m.Points.Add("a", variant.NewFloat64(1, 2, 3)))
	require.NoError(t, m.Points.Add("b", variant.NewFloat64(10, 20, 30)))

	node := stages.NewArithmetic("a", "b", "sum", stages.OpAdd)
	ds, err := node.Execute(context.Background(), 0, []mesh.Dataset{m}, nil)
	require.NoError(t, err)

	out := ds.(*mesh.Mesh)
	sum, ok := out.Points.Get("sum")
	require.True(t, ok)
	v0, _ := sum.At(0)
	v2, _ := sum.At(2)
	require.Equal(t, float64(11), v0)
	require.Equal(t, float64(33), v2)
}

func TestArithmeticMissingArrayFails(t *testing.T) {
	m := mesh.New()
	m.Extent = [6]int64{0, 0, 0, 0, 0, 0}
	require.NoError(t, m.Points.Add("a", variant.NewFloat64(1)))

	node := stages.NewArithmetic("a", "missing", "out", stages.OpAdd)
	_, err := node.Execute(context.Background(), 0, []mesh.Dataset{m}, nil)
	require.Error(t, err)
}

func TestWriterSubstitutesRankAndWritesBinaryFrame(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "out.%e%.bin")

	m := mesh.New()
	m.Extent = [6]int64{0, 1, 0, 0, 0, 0}
	require.NoError(t, m.Points.Add("v", variant.NewFloat64(1, 2)))

	w := stages.NewWriter(pattern, rankio.Single{})
	_, err := w.Execute(context.Background(), 0, []mesh.Dataset{m}, nil)
	require.NoError(t, err)

	wantPath := filepath.Join(dir, "out.0.bin")
	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)

	decoded := mesh.New()
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.True(t, decoded.Points.Equal(m.Points))
}

func TestSumReducerWidensFloat32ToFloat64(t *testing.T) {
	a := mesh.New()
	a.Extent = [6]int64{0, 1, 0, 0, 0, 0}
	require.NoError(t, a.Points.Add("v", variant.NewFloat32(1.5, 2.5)))

	b := mesh.New()
	b.Extent = [6]int64{0, 1, 0, 0, 0, 0}
	require.NoError(t, b.Points.Add("v", variant.NewFloat64(10, 20)))

	out, err := stages.Sum(context.Background(), a, b)
	require.NoError(t, err)

	m := out.(*mesh.Mesh)
	arr, ok := m.Points.Get("v")
	require.True(t, ok)
	require.Equal(t, variant.Float64, arr.TypeCode())
	v0, _ := arr.At(0)
	v1, _ := arr.At(1)
	require.InDelta(t, 11.5, v0, 1e-9)
	require.InDelta(t, 22.5, v1, 1e-9)
}

func TestSumReducerRejectsIncompatibleMeshes(t *testing.T) {
	a := mesh.New()
	a.Extent = [6]int64{0, 1, 0, 0, 0, 0}
	require.NoError(t, a.Points.Add("v", variant.NewFloat64(1, 2)))

	b := mesh.New()
	b.Extent = [6]int64{0, 2, 0, 0, 0, 0}
	require.NoError(t, b.Points.Add("v", variant.NewFloat64(1, 2, 3)))

	_, err := stages.Sum(context.Background(), a, b)
	require.Error(t, err)
}
