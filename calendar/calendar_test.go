package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teca-go/teca/calendar"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/variant"
)

func reportWithHourlySteps(t *testing.T, n int) *metadata.Metadata {
	t.Helper()
	rep := metadata.New()
	coords := metadata.New()
	tAxis := variant.NewFloat64()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	for i := 0; i < n; i++ {
		require.NoError(t, tAxis.Append(float64(base+int64(i)*3600)))
	}
	coords.SetArray("t", tAxis)
	rep.SetMetadata("coordinates", coords)
	return rep
}

func TestResolveStepFindsExactMatch(t *testing.T) {
	rep := reportWithHourlySteps(t, 5)
	step, err := calendar.ResolveStep(rep, "2020-01-01T02:00:00Z")
	require.NoError(t, err)
	require.Equal(t, int64(2), step)
}

func TestResolveStepFindsNearestWhenBetweenSteps(t *testing.T) {
	rep := reportWithHourlySteps(t, 5)
	// 01:50 is 10 minutes from step 2 (02:00) and 50 from step 1 (01:00).
	step, err := calendar.ResolveStep(rep, "2020-01-01T01:50:00Z")
	require.NoError(t, err)
	require.Equal(t, int64(2), step)
}

func TestResolveStepClampsPastTheEnd(t *testing.T) {
	rep := reportWithHourlySteps(t, 5)
	step, err := calendar.ResolveStep(rep, "2020-01-02T00:00:00Z")
	require.NoError(t, err)
	require.Equal(t, int64(4), step)
}

func TestResolveStepRejectsMissingCoordinates(t *testing.T) {
	rep := metadata.New()
	_, err := calendar.ResolveStep(rep, "2020-01-01T00:00:00Z")
	require.Error(t, err)
}

func TestResolveStepRejectsBadDateFormat(t *testing.T) {
	rep := reportWithHourlySteps(t, 5)
	_, err := calendar.ResolveStep(rep, "not-a-date")
	require.Error(t, err)
}

func TestResolveRangeResolvesBothEnds(t *testing.T) {
	rep := reportWithHourlySteps(t, 5)
	first, last, err := calendar.ResolveRange(rep, "2020-01-01T00:00:00Z", "2020-01-01T03:00:00Z")
	require.NoError(t, err)
	require.Equal(t, int64(0), first)
	require.Equal(t, int64(3), last)
}
