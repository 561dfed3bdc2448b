// Package mapreduce implements the parallel map-reduce stage
// (component C5): a contiguous block partition of time steps across
// MPI-like ranks, an intra-rank worker pool, in-order local reduction,
// and a binary-tree cross-rank reduction to rank 0.
package mapreduce

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/teca-go/teca/algorithm"
	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/logging"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/rankio"
	"github.com/teca-go/teca/telemetry"
)

// Phase names the stage's current activity, surfaced only through
// metrics/logs.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMapping
	PhaseReducing
	PhaseGathering
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseMapping:
		return "mapping"
	case PhaseReducing:
		return "reducing"
	case PhaseGathering:
		return "gathering"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Stage is the map-reduce pipeline node. Properties first_step,
// last_step, thread_pool_size are discovered by algorithm.Base via the
// `teca` struct tags below, matching the names spec.md §6 fixes.
type Stage struct {
	algorithm.Base

	FirstStep      int64 `teca:"first_step"`
	LastStep       int64 `teca:"last_step"`
	ThreadPoolSize int32 `teca:"thread_pool_size"`

	reducer Reducer
	comm    rankio.Communicator
	phase   atomic.Int32

	log     logging.Logger
	metrics *telemetry.Metrics
}

// New constructs a map-reduce stage with one upstream input, reducing
// through reducer and coordinating ranks through comm. comm nil
// defaults to rankio.Single{} (single-process runs).
func New(reducer Reducer, comm rankio.Communicator) *Stage {
	if comm == nil {
		comm = rankio.Single{}
	}
	s := &Stage{
		FirstStep:      0,
		LastStep:       -1,
		ThreadPoolSize: 1,
		reducer:        reducer,
		comm:           comm,
		log:            logging.NoOp(),
		metrics:        telemetry.NoOp(),
	}
	s.Init(1, 1)
	s.RegisterProperties(s)
	return s
}

// SetLogger attaches a logger the stage writes one structured line to
// per task failure and per rank-reduction abort. A nil logger is
// treated as logging.NoOp().
func (s *Stage) SetLogger(l logging.Logger) *Stage {
	s.log = logging.OrNoOp(l)
	return s
}

// SetMetrics attaches a telemetry.Metrics the stage updates as tasks
// complete. A nil argument is rejected silently (the stage keeps its
// existing no-op metrics) since telemetry.NoOp() is always non-nil.
func (s *Stage) SetMetrics(m *telemetry.Metrics) *Stage {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Phase returns the stage's current activity.
func (s *Stage) Phase() Phase { return Phase(s.phase.Load()) }

func (s *Stage) setPhase(p Phase) { s.phase.Store(int32(p)) }

// resolveRange clamps [FirstStep, LastStep] into [0, N), applying the
// LastStep == -1 "through the end" alias.
func (s *Stage) resolveRange(n int64) (first, last int64) {
	first = s.FirstStep
	if first < 0 {
		first = 0
	}
	last = s.LastStep
	if last < 0 || last >= n {
		last = n - 1
	}
	if last < first {
		last = first - 1 // empty range
	}
	return first, last
}

// Report forwards the upstream report, overwriting
// number_of_time_steps with the resolved local step count |R|.
func (s *Stage) Report(ctx context.Context, port int, upstreamReports []*metadata.Metadata) (*metadata.Metadata, error) {
	r, err := s.Base.Report(ctx, port, upstreamReports)
	if err != nil {
		return nil, err
	}
	var n int64
	if err := r.Get("number_of_time_steps", &n); err != nil {
		n = 0
	}
	first, last := s.resolveRange(n)
	count := last - first + 1
	if count < 0 {
		count = 0
	}
	r.Set("number_of_time_steps", count)
	return r, nil
}

// rankRange returns the contiguous block [lo, hi) of offsets into R
// owned by rank r out of w ranks, covering the N steps in R; the
// absolute step index is first_step plus the offset.
func rankRange(r, w int, n int64) (int64, int64) {
	lo := int64(r) * n / int64(w)
	hi := int64(r+1) * n / int64(w)
	return lo, hi
}

// FetchesUpstreamItself marks Stage as a self-fetching node: it issues
// one upstream Execute per time step inside its own Execute rather than
// having the pipeline executor pre-fetch a single upstream dataset per
// input port.
func (s *Stage) FetchesUpstreamItself() {}

// Execute runs the full map-reduce algorithm: intra-rank fan-out over
// a worker pool, in-order local reduction, then a binary-tree
// cross-rank combination to rank 0. upstreamData is unused: Stage pulls
// one dataset per time step directly from its upstream connection
// instead of taking a single pre-fetched dataset per input port.
func (s *Stage) Execute(ctx context.Context, port int, _ []mesh.Dataset, request *metadata.Metadata) (mesh.Dataset, error) {
	upstream, upstreamPort := s.Upstream(0)
	if upstream == nil {
		return nil, errs.New(errs.ProtocolFailure, "mapreduce.Stage.Execute", fmt.Errorf("no upstream connected"))
	}

	report, err := upstream.Report(ctx, upstreamPort, nil)
	if err != nil {
		return nil, err
	}
	var n int64
	if err := report.Get("number_of_time_steps", &n); err != nil {
		n = 0
	}
	first, last := s.resolveRange(n)
	total := last - first + 1
	if total < 0 {
		total = 0
	}

	rank, world := s.comm.Rank(), s.comm.Size()
	lo, hi := rankRange(rank, world, total)
	localCount := int(hi - lo)

	s.setPhase(PhaseMapping)
	var failed atomic.Bool

	poolSize := int(s.ThreadPoolSize)
	if poolSize < 0 {
		poolSize = runtime.GOMAXPROCS(0)
	}

	slots := newTaskSlots(localCount)
	pool := newWorkerPool(poolSize, slots)

	s.metrics.QueueDepth.Set(float64(localCount))
	for i := 0; i < localCount; i++ {
		step := first + lo + int64(i)
		idx := i
		pool.submit(task{
			index: idx,
			fn: func(taskCtx context.Context) (any, error) {
				start := time.Now()
				req := request.Clone()
				req.Set("time_step", step)
				ds, err := upstream.Execute(taskCtx, upstreamPort, nil, req)
				s.metrics.TaskDuration.Observe(time.Since(start).Seconds())
				s.metrics.QueueDepth.Dec()
				if err != nil {
					failed.Store(true)
					s.metrics.FailedSteps.Inc()
					s.log.Error("mapreduce: upstream execute failed", "step", step, "err", err)
					return nil, err
				}
				s.metrics.StepCounter.Inc()
				return ds, nil
			},
		})
	}
	pool.closeAndWait()

	s.setPhase(PhaseReducing)
	var acc mesh.Dataset
	var collected errs.Errs
	for i := 0; i < localCount; i++ {
		v, err := slots[i].wait(ctx)
		if err != nil {
			collected.Add(err)
			failed.Store(true)
			continue
		}
		ds := v.(mesh.Dataset)
		if acc == nil {
			acc = ds
			continue
		}
		acc, err = s.reducer.Reduce(ctx, acc, ds)
		if err != nil {
			collected.Add(err)
			failed.Store(true)
			s.log.Error("mapreduce: reducer failed", "step", first+lo+int64(i), "err", err)
		}
	}

	s.setPhase(PhaseGathering)
	result, err := s.crossRankReduce(ctx, acc, failed.Load())
	if err != nil {
		collected.Add(err)
	}

	if collected.Errored() {
		s.setPhase(PhaseFailed)
		s.log.Warn("mapreduce: update aborting", "rank", rank, "err", collected.First())
		return nil, errs.New(errs.ReducerFailure, "mapreduce.Stage.Execute", collected.First())
	}
	s.setPhase(PhaseDone)
	if result == nil {
		return mesh.Empty{}, nil
	}
	return result, nil
}

// crossRankReduce implements O2: a binary-tree all-to-one reduction to
// rank 0. Every rank always participates, even a failed one — a failed
// rank sends rankio.AbortSentinel instead of its local accumulator, so
// peers waiting to Recv are never starved (no cancellation, per the
// concurrency model).
func (s *Stage) crossRankReduce(ctx context.Context, local mesh.Dataset, localFailed bool) (mesh.Dataset, error) {
	rank, world := s.comm.Rank(), s.comm.Size()
	if world == 1 {
		return local, nil
	}

	acc := local
	accFailed := localFailed
	step := 1
	for step < world {
		if rank%(2*step) == 0 {
			peer := rank + step
			if peer < world {
				frame, err := s.comm.Recv(ctx, peer)
				if err != nil {
					return nil, err
				}
				if rankio.IsAbortSentinel(frame) {
					accFailed = true
				} else {
					peerDS, err := decodeDataset(frame)
					if err != nil {
						return nil, err
					}
					if accFailed {
						// keep draining but do not combine a poisoned accumulator
					} else if acc == nil {
						acc = peerDS
					} else {
						acc, err = s.reducer.Reduce(ctx, acc, peerDS)
						if err != nil {
							accFailed = true
						}
					}
				}
			}
		} else if rank%step == 0 {
			target := rank - step
			var frame []byte
			var err error
			if accFailed || acc == nil {
				frame = rankio.AbortSentinel
			} else {
				frame, err = encodeDataset(acc)
				if err != nil {
					return nil, err
				}
			}
			if err := s.comm.Send(ctx, target, frame); err != nil {
				return nil, err
			}
			return nil, nil // non-root ranks return after their one send
		}
		step *= 2
	}

	if rank != 0 {
		return nil, nil
	}
	if accFailed {
		return nil, errs.New(errs.ReducerFailure, "mapreduce.Stage.crossRankReduce", fmt.Errorf("a peer rank aborted its local reduction"))
	}
	return acc, nil
}

func encodeDataset(ds mesh.Dataset) ([]byte, error) {
	m, ok := ds.(*mesh.Mesh)
	if !ok {
		return nil, errs.New(errs.ProtocolFailure, "mapreduce.encodeDataset", fmt.Errorf("cannot serialize dataset of type %T", ds))
	}
	return m.MarshalBinary()
}

func decodeDataset(frame []byte) (mesh.Dataset, error) {
	m := mesh.New()
	if err := m.UnmarshalBinary(frame); err != nil {
		return nil, err
	}
	return m, nil
}
