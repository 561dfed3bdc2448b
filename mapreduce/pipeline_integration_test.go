package mapreduce_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/mapreduce"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/pipeline"
	"github.com/teca-go/teca/rankio"
	"github.com/teca-go/teca/stages"
	"github.com/teca-go/teca/variant"
)

// TestPipelineExecutorDrivesMapReduceStage exercises a Stage through
// pipeline.Executor instead of calling Stage.Execute directly, the way
// cmd/tecarun's CLI path does: a reader feeds the executor's generic
// pre-fetch would otherwise hand the reader an empty, time_step-less
// request and fail before Stage.Execute ever runs its own per-step
// fan-out.
func TestPipelineExecutorDrivesMapReduceStage(t *testing.T) {
	steps := make([]*mesh.Mesh, 4) // steps 0..3, sum = 0+1+2+3 = 6
	for i := range steps {
		m := mesh.New()
		m.Extent = [6]int64{0, 0, 0, 0, 0, 0}
		require.NoError(t, m.Points.Add("v", variant.NewFloat64(float64(i))))
		steps[i] = m
	}
	reader := stages.NewMemoryReader(steps)

	stage := mapreduce.New(stages.Sum, rankio.Single{})
	stage.SetInputConnection(0, reader, 0)

	exec := pipeline.New()
	ds, err := exec.Update(context.Background(), stage)
	require.NoError(t, err)

	m := ds.(*mesh.Mesh)
	v, ok := m.Points.Get("v")
	require.True(t, ok)
	x0, _ := v.At(0)
	require.Equal(t, float64(6), x0)
}

// TestPipelineExecutorPropagatesMapReduceStageFailure confirms a
// reducer failure inside Stage.Execute still aborts Update with an
// error rather than the executor's pre-fetch skip masking it.
func TestPipelineExecutorPropagatesMapReduceStageFailure(t *testing.T) {
	a := mesh.New()
	a.Extent = [6]int64{0, 0, 0, 0, 0, 0}
	require.NoError(t, a.Points.Add("v", variant.NewFloat64(1)))

	b := mesh.New()
	b.Extent = [6]int64{0, 1, 0, 0, 0, 0} // extent mismatch vs a
	require.NoError(t, b.Points.Add("v", variant.NewFloat64(1, 2)))

	reader := stages.NewMemoryReader([]*mesh.Mesh{a, b})
	stage := mapreduce.New(stages.Sum, rankio.Single{})
	stage.SetInputConnection(0, reader, 0)

	exec := pipeline.New()
	_, err := exec.Update(context.Background(), stage)
	require.Error(t, err)
}
