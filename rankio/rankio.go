// Package rankio models the MPI-like rank communicator contract the
// map-reduce stage (package mapreduce) uses for its cross-rank
// reduction tree, plus two implementations: Single (no-op, one rank)
// and InProcess (an in-memory multi-goroutine fake used by tests). A
// real libmpi/ORTE binding is a cgo concern outside this kernel's scope
// (see DESIGN.md).
package rankio

import (
	"context"
	"fmt"
	"sync"

	"github.com/teca-go/teca/errs"
)

// Communicator is the contract a rank-aware stage depends on.
type Communicator interface {
	Rank() int
	Size() int
	Send(ctx context.Context, toRank int, frame []byte) error
	Recv(ctx context.Context, fromRank int) ([]byte, error)
	Barrier(ctx context.Context) error
}

// AbortSentinel is sent in place of a dataset frame by a rank whose
// local reduction failed, so the cross-rank tree reduction still
// completes structurally instead of deadlocking a peer waiting to Recv.
var AbortSentinel = []byte("TECA_ABORT")

// IsAbortSentinel reports whether frame is the abort marker.
func IsAbortSentinel(frame []byte) bool {
	return len(frame) == len(AbortSentinel) && string(frame) == string(AbortSentinel)
}

// Single is the size-1 communicator used whenever no multi-rank run is
// configured. Send/Recv are unreachable in a size-1 run and fail
// loudly if called; Barrier returns nil immediately.
type Single struct{}

func (Single) Rank() int { return 0 }
func (Single) Size() int { return 1 }

func (Single) Send(ctx context.Context, toRank int, frame []byte) error {
	return errs.New(errs.ProtocolFailure, "rankio.Single.Send", fmt.Errorf("no peer rank %d in a single-rank communicator", toRank))
}

func (Single) Recv(ctx context.Context, fromRank int) ([]byte, error) {
	return nil, errs.New(errs.ProtocolFailure, "rankio.Single.Recv", fmt.Errorf("no peer rank %d in a single-rank communicator", fromRank))
}

func (Single) Barrier(ctx context.Context) error { return nil }

// InProcess is an in-memory fake communicator wiring N goroutines'
// mailboxes together, standing in for a real MPI runtime in tests
// (scenario S3's two-rank split, the tree-reduction path).
type InProcess struct {
	rank    int
	world   *inProcessWorld
}

type inProcessWorld struct {
	size      int
	mailboxes []chan frameMsg
	barrierMu sync.Mutex
	barrierN  int
	barrierCh chan struct{}
}

type frameMsg struct {
	from  int
	frame []byte
}

// NewInProcessWorld builds size independent Communicator handles, one
// per rank, sharing buffered mailboxes. Each handle is safe for use
// from exactly one goroutine.
func NewInProcessWorld(size int) []Communicator {
	w := &inProcessWorld{size: size, mailboxes: make([]chan frameMsg, size), barrierCh: make(chan struct{})}
	for i := range w.mailboxes {
		w.mailboxes[i] = make(chan frameMsg, size*4)
	}
	out := make([]Communicator, size)
	for i := 0; i < size; i++ {
		out[i] = &InProcess{rank: i, world: w}
	}
	return out
}

func (c *InProcess) Rank() int { return c.rank }
func (c *InProcess) Size() int { return c.world.size }

func (c *InProcess) Send(ctx context.Context, toRank int, frame []byte) error {
	if toRank < 0 || toRank >= c.world.size {
		return errs.New(errs.ProtocolFailure, "rankio.InProcess.Send", fmt.Errorf("rank %d out of range [0,%d)", toRank, c.world.size))
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	select {
	case c.world.mailboxes[toRank] <- frameMsg{from: c.rank, frame: cp}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *InProcess) Recv(ctx context.Context, fromRank int) ([]byte, error) {
	select {
	case msg := <-c.world.mailboxes[c.rank]:
		if msg.from != fromRank {
			return nil, errs.New(errs.ProtocolFailure, "rankio.InProcess.Recv", fmt.Errorf("expected frame from rank %d, got rank %d", fromRank, msg.from))
		}
		return msg.frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Barrier blocks until every rank in the world has called Barrier,
// using a per-generation channel so successive Barrier calls never
// race each other's reset.
func (c *InProcess) Barrier(ctx context.Context) error {
	w := c.world
	w.barrierMu.Lock()
	ch := w.barrierCh
	w.barrierN++
	last := w.barrierN == w.size
	if last {
		w.barrierN = 0
		w.barrierCh = make(chan struct{})
		close(ch)
	}
	w.barrierMu.Unlock()

	if last {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
