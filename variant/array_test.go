package variant_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/variant"
)

func TestSetGetRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		code variant.TypeCode
		v    any
	}{
		{"int8", variant.Int8, int8(-5)},
		{"uint8", variant.Uint8, uint8(200)},
		{"int32", variant.Int32, int32(-123456)},
		{"uint32", variant.Uint32, uint32(123456)},
		{"int64", variant.Int64, int64(-123456789012)},
		{"uint64", variant.Uint64, uint64(123456789012)},
		{"float32", variant.Float32, float32(3.5)},
		{"float64", variant.Float64, float64(2.71828)},
		{"string", variant.String, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := variant.NewArray(tt.code)
			require.NoError(t, err)
			a.Resize(1)
			require.NoError(t, a.SetScalar(0, tt.v))

			out, err := a.At(0)
			require.NoError(t, err)
			require.EqualValues(t, tt.v, out)
		})
	}
}

func TestNarrowingConversionIsDeterministic(t *testing.T) {
	a := variant.NewFloat64(3.9, -3.9)
	b, err := variant.NewArray(variant.Int32)
	require.NoError(t, err)
	require.NoError(t, a.GetRange(0, 2, b))

	v0, _ := b.At(0)
	v1, _ := b.At(1)
	require.Equal(t, int32(3), v0)
	require.Equal(t, int32(-3), v1)
}

func TestConversionPreservesEqualityWhenValueFits(t *testing.T) {
	src := variant.NewInt32(1, 2, 3)
	dst, err := variant.NewArray(variant.Float64)
	require.NoError(t, err)
	require.NoError(t, src.GetRange(0, src.Len(), dst))

	for i := 0; i < src.Len(); i++ {
		sv, _ := src.At(i)
		dv, _ := dst.At(i)
		require.EqualValues(t, sv, dv)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	cases := []variant.Array{
		variant.NewInt8(1, -2, 3),
		variant.NewUint8(1, 2, 255),
		variant.NewInt32(-1, 2, -3),
		variant.NewUint32(1, 2, 3),
		variant.NewInt64(-1, 2, -3),
		variant.NewUint64(1, 2, 3),
		variant.NewFloat32(1.5, -2.5),
		variant.NewFloat64(1.5, -2.5, 0),
		variant.NewString("a", "bb", "ccc"),
	}
	for _, a := range cases {
		b, err := a.MarshalBinary()
		require.NoError(t, err)

		b2, err := a.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, b, b2, "to_bytes must be deterministic")

		decoded, err := variant.UnmarshalBinaryArray(b)
		require.NoError(t, err)
		require.True(t, a.Equal(decoded))

		reencoded, err := decoded.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, b, reencoded, "to_bytes(from_bytes(b)) == b")
	}
}

func TestBadCastOnTypeMismatch(t *testing.T) {
	a := variant.NewString("x")
	err := a.SetScalar(0, int32(1))
	require.Error(t, err)
}

func TestOutOfRange(t *testing.T) {
	a := variant.NewInt32(1, 2)
	_, err := a.At(5)
	require.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	a := variant.NewInt32(1, 2, 3)
	b := a.Clone()
	require.True(t, a.Equal(b))
	require.NoError(t, b.SetScalar(0, int32(99)))
	require.False(t, a.Equal(b))
}

func TestTextMarshalNumericIsCommaSeparated(t *testing.T) {
	a := variant.NewInt32(1, 2, 3)
	text, err := a.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1, 2, 3", string(text))
}

func TestTextUnmarshalUnsupported(t *testing.T) {
	_, err := variant.UnmarshalText([]byte("1,2,3"))
	require.ErrorIs(t, err, variant.ErrTextDecodeUnsupported)
}

func TestDispatch2Sum(t *testing.T) {
	a := variant.NewFloat64(1, 2, 3)
	b := variant.NewFloat64(10, 20, 30)
	out, err := variant.Dispatch2(a, b, func(x, y float64) float64 { return x + y })
	require.NoError(t, err)
	require.Equal(t, variant.Float64, out.TypeCode())
	for i, want := range []float64{11, 22, 33} {
		v, _ := out.At(i)
		require.Equal(t, want, v)
	}
}
