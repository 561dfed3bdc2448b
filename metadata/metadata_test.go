package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/variant"
)

func TestSetGetScalarRoundTrip(t *testing.T) {
	m := metadata.New()
	require.NoError(t, m.Set("step", int64(42)))

	var got int64
	require.NoError(t, m.Get("step", &got))
	require.Equal(t, int64(42), got)
}

func TestGetMissingKeyIsRecoverable(t *testing.T) {
	m := metadata.New()
	var got int64
	err := m.Get("missing", &got)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KeyMissing))
	require.True(t, errs.Recoverable(err))
}

func TestNestedMetadata(t *testing.T) {
	inner := metadata.New()
	require.NoError(t, inner.Set("name", "u"))

	outer := metadata.New()
	outer.SetMetadata("coordinates", inner)

	got, ok := outer.GetMetadata("coordinates")
	require.True(t, ok)
	require.True(t, got.Equal(inner))
}

func TestKeysPreserveInsertionOrder(t *testing.T) {
	m := metadata.New()
	require.NoError(t, m.Set("c", int32(1)))
	require.NoError(t, m.Set("a", int32(2)))
	require.NoError(t, m.Set("b", int32(3)))
	require.NoError(t, m.Set("a", int32(99))) // re-set keeps position

	require.Equal(t, []string{"c", "a", "b"}, m.Keys())

	var v int32
	require.NoError(t, m.Get("a", &v))
	require.Equal(t, int32(99), v)
}

func TestCloneIsDeep(t *testing.T) {
	m := metadata.New()
	require.NoError(t, m.Set("v", variant.NewInt32(1, 2, 3)))

	clone := m.Clone()
	require.True(t, m.Equal(clone))

	arr, _ := clone.GetArray("v")
	require.NoError(t, arr.SetScalar(0, int32(99)))
	require.False(t, m.Equal(clone))
}

func TestAppendExtendsArray(t *testing.T) {
	m := metadata.New()
	require.NoError(t, m.Set("vals", int32(1)))
	require.NoError(t, m.Append("vals", int32(2)))
	require.NoError(t, m.Append("vals", int32(3)))

	arr, ok := m.GetArray("vals")
	require.True(t, ok)
	require.Equal(t, 3, arr.Len())
}

func TestDeleteRemovesKeyAndOrder(t *testing.T) {
	m := metadata.New()
	require.NoError(t, m.Set("a", int32(1)))
	require.NoError(t, m.Set("b", int32(2)))
	m.Delete("a")

	require.False(t, m.Has("a"))
	require.Equal(t, []string{"b"}, m.Keys())
}

func TestBinaryRoundTripFlat(t *testing.T) {
	m := metadata.New()
	require.NoError(t, m.Set("step", int64(7)))
	require.NoError(t, m.Set("name", "temperature"))
	require.NoError(t, m.Set("bounds", variant.NewFloat64(0, 1, 2)))

	b, err := m.MarshalBinary()
	require.NoError(t, err)

	decoded := metadata.New()
	require.NoError(t, decoded.UnmarshalBinary(b))
	require.True(t, m.Equal(decoded))
}

func TestBinaryRoundTripNested(t *testing.T) {
	inner := metadata.New()
	require.NoError(t, inner.Set("units", "K"))

	outer := metadata.New()
	outer.SetMetadata("attributes", inner)
	require.NoError(t, outer.Set("step", int64(3)))

	b, err := outer.MarshalBinary()
	require.NoError(t, err)

	decoded := metadata.New()
	require.NoError(t, decoded.UnmarshalBinary(b))
	require.True(t, outer.Equal(decoded))
}

func TestMetadataAsVariantArrayElement(t *testing.T) {
	inner := metadata.New()
	require.NoError(t, inner.Set("name", "x"))

	arr, err := variant.NewArray(variant.Metadata)
	require.NoError(t, err)
	require.NoError(t, arr.Append(inner))

	b, err := arr.MarshalBinary()
	require.NoError(t, err)

	decoded, err := variant.UnmarshalBinaryArray(b)
	require.NoError(t, err)
	require.True(t, arr.Equal(decoded))
}
