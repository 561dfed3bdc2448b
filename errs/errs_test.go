package errs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/errs"
)

func TestIsMatchesKindButNotAcrossStringWrap(t *testing.T) {
	base := errs.New(errs.KeyMissing, "metadata.Get", errors.New("no such key"))
	wrapped := errors.New("outer: " + base.Error())

	require.True(t, errs.Is(base, errs.KeyMissing))
	require.False(t, errs.Is(base, errs.BadCast))
	require.False(t, errs.Is(wrapped, errs.KeyMissing)) // plain string wrap breaks errors.As on purpose
}

func TestUnwrapExposesUnderlyingError(t *testing.T) {
	underlying := errors.New("boom")
	e := errs.New(errs.IoFailure, "stages.Writer.Execute", underlying)
	require.ErrorIs(t, e, underlying)
}

func TestRecoverableOnlyForKeyMissing(t *testing.T) {
	require.True(t, errs.Recoverable(errs.New(errs.KeyMissing, "op", nil)))
	require.False(t, errs.Recoverable(errs.New(errs.BadCast, "op", nil)))
	require.False(t, errs.Recoverable(errors.New("not a kernel error")))
}

func TestErrsAggregatesAndReportsFirst(t *testing.T) {
	var agg errs.Errs
	require.False(t, agg.Errored())
	require.Nil(t, agg.Err())

	agg.Add(nil) // no-op
	require.False(t, agg.Errored())

	first := errs.New(errs.OutOfRange, "Array.At", errors.New("index 5, size 2"))
	second := errs.New(errs.ProtocolFailure, "mesh.Validate", errors.New("extent mismatch"))
	agg.Add(first)
	agg.Add(second)

	require.True(t, agg.Errored())
	require.Equal(t, 2, agg.Len())
	require.Equal(t, first, agg.First())
	require.Contains(t, agg.Err().Error(), "2 errors occurred")
}

func TestErrsSingleErrorReturnsItDirectly(t *testing.T) {
	var agg errs.Errs
	only := errs.New(errs.BadCast, "variant.SetScalar", errors.New("type mismatch"))
	agg.Add(only)
	require.Equal(t, only, agg.Err())
}
