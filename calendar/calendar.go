// Package calendar resolves a human-readable ISO date against the
// coordinates a reader reported, returning the nearest time_step index
// a request can name. It is the minimal date-resolver collaborator
// spec.md §6 describes ("the CLI/date-resolver ... computes numeric
// first_step/last_step from human dates using coordinate and attribute
// metadata obtained from the reader's report"); spec.md §1 explicitly
// carves calendar arithmetic out of the kernel's scope, so this package
// implements only nearest-step lookup against a reader's reported t
// coordinate, not calendar systems, leap seconds, or unit conversion
// (grounded on original_source/apps/teca_moisture_density.cpp's option
// pattern of resolving CLI date flags against loaded NetCDF time
// coordinates).
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/metadata"
)

// ResolveStep looks up report's "coordinates" -> "t" array (seconds
// since the Unix epoch, matching the reference stages' convention) and
// returns the index of its closest value to date, parsed as RFC 3339.
func ResolveStep(report *metadata.Metadata, date string) (int64, error) {
	ts, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return 0, errs.New(errs.ProtocolFailure, "calendar.ResolveStep", fmt.Errorf("parsing date %q: %w", date, err))
	}
	return ResolveStepFromTime(report, ts)
}

// ResolveStepFromTime is ResolveStep for an already-parsed time.Time.
func ResolveStepFromTime(report *metadata.Metadata, ts time.Time) (int64, error) {
	coords, ok := report.GetMetadata("coordinates")
	if !ok {
		return 0, errs.New(errs.KeyMissing, "calendar.ResolveStepFromTime", fmt.Errorf("report has no coordinates"))
	}
	t, ok := coords.GetArray("t")
	if !ok {
		return 0, errs.New(errs.KeyMissing, "calendar.ResolveStepFromTime", fmt.Errorf("coordinates has no t axis"))
	}

	target := float64(ts.Unix())
	n := t.Len()
	if n == 0 {
		return 0, errs.New(errs.OutOfRange, "calendar.ResolveStepFromTime", fmt.Errorf("t axis is empty"))
	}

	// t is monotonically increasing in every reference stage; binary
	// search for the insertion point, then compare against its left
	// neighbor for the actual nearest index.
	idx := sort.Search(n, func(i int) bool {
		var v float64
		_ = t.GetInto(i, &v)
		return v >= target
	})
	best := idx
	if best >= n {
		best = n - 1
	}
	if best > 0 {
		var lo, hi float64
		_ = t.GetInto(best-1, &lo)
		_ = t.GetInto(best, &hi)
		if abs(target-lo) <= abs(hi-target) {
			best = best - 1
		}
	}
	return int64(best), nil
}

// ResolveRange resolves a [from, to] date pair into inclusive step
// indices suitable for mapreduce.Stage's first_step/last_step
// properties.
func ResolveRange(report *metadata.Metadata, from, to string) (first, last int64, err error) {
	first, err = ResolveStep(report, from)
	if err != nil {
		return 0, 0, err
	}
	last, err = ResolveStep(report, to)
	if err != nil {
		return 0, 0, err
	}
	return first, last, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
