package algorithm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/algorithm"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
)

type fakeSource struct {
	algorithm.Base
	Gain int32 `teca:"gain"`
}

func newFakeSource() *fakeSource {
	n := &fakeSource{Gain: 1}
	n.Init(0, 1)
	n.RegisterProperties(n)
	return n
}

func (n *fakeSource) Execute(ctx context.Context, port int, upstreamData []mesh.Dataset, request *metadata.Metadata) (mesh.Dataset, error) {
	return mesh.Empty{}, nil
}

func TestPropertyRegistrationAndAccess(t *testing.T) {
	n := newFakeSource()

	descs := n.PropertyDescriptions()
	require.Len(t, descs, 1)
	require.Equal(t, "gain", descs[0].Name)

	v, ok := n.Property("gain")
	require.True(t, ok)
	require.Equal(t, int32(1), v)

	require.NoError(t, n.SetProperty("gain", int32(5)))
	v, _ = n.Property("gain")
	require.Equal(t, int32(5), v)
	require.Equal(t, int32(5), n.Gain)
}

func TestSetPropertyUnknownName(t *testing.T) {
	n := newFakeSource()
	err := n.SetProperty("nope", int32(1))
	require.Error(t, err)
}

func TestSetPropertyTypeMismatch(t *testing.T) {
	n := newFakeSource()
	err := n.SetProperty("gain", "not an int")
	require.Error(t, err)
}

func TestDefaultReportIsIdentityOnSingleInput(t *testing.T) {
	n := newFakeSource()
	upstream := metadata.New()
	require.NoError(t, upstream.Set("number_of_time_steps", int64(5)))

	report, err := n.Report(context.Background(), 0, []*metadata.Metadata{upstream})
	require.NoError(t, err)
	require.True(t, report.Equal(upstream))
}

func TestDefaultReportIsEmptyWithNoInputs(t *testing.T) {
	n := newFakeSource()
	report, err := n.Report(context.Background(), 0, nil)
	require.NoError(t, err)
	require.Empty(t, report.Keys())
}

func TestDefaultUpstreamRequestsPassesThrough(t *testing.T) {
	n := &fakeSource{}
	n.Init(2, 1)
	req := metadata.New()
	require.NoError(t, req.Set("time_step", int64(3)))

	reqs, err := n.UpstreamRequests(context.Background(), 0, metadata.New(), req)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		require.True(t, r.Equal(req))
	}
}
