package mesh_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/variant"
)

func TestMeshBinaryRoundTrip(t *testing.T) {
	m := mesh.New()
	m.Extent = [6]int64{0, 1, 0, 1, 0, 0}
	m.X = variant.NewFloat64(0, 1)
	m.Y = variant.NewFloat64(10, 11)
	require.NoError(t, m.Meta.Set("step", int64(4)))
	require.NoError(t, m.Points.Add("temperature", variant.NewFloat64(1, 2, 3, 4)))

	b, err := m.MarshalBinary()
	require.NoError(t, err)

	decoded := mesh.New()
	require.NoError(t, decoded.UnmarshalBinary(b))

	require.Equal(t, m.Extent, decoded.Extent)
	require.True(t, m.Meta.Equal(decoded.Meta))
	require.True(t, m.Points.Equal(decoded.Points))
	require.True(t, m.X.Equal(decoded.X))
	require.True(t, m.Y.Equal(decoded.Y))
	require.Nil(t, decoded.Z)
}
