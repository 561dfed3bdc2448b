// Package pipeline implements the two-phase (report + execute) pull
// evaluator (component C4) that drives a graph of algorithm.Node stages
// from a single sink node.
package pipeline

import (
	"context"
	"fmt"

	"github.com/teca-go/teca/algorithm"
	"github.com/teca-go/teca/logging"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
)

// Executor runs one report phase followed by one execute phase per
// Update call against a sink node, per spec.md §4.4.
type Executor struct {
	reportCache map[algorithm.Node]*metadata.Metadata
	log         logging.Logger
}

// New returns a ready Executor.
func New() *Executor {
	return &Executor{log: logging.NoOp()}
}

// SetLogger attaches a logger the executor writes one line to per
// aborted Update (report or execute phase failure). A nil logger is
// treated as logging.NoOp().
func (e *Executor) SetLogger(l logging.Logger) *Executor {
	e.log = logging.OrNoOp(l)
	return e
}

// Update runs the pipeline rooted at sink with an empty initial
// request.
func (e *Executor) Update(ctx context.Context, sink algorithm.Node) (mesh.Dataset, error) {
	return e.UpdateWithRequest(ctx, sink, metadata.New())
}

// UpdateWithRequest runs the pipeline rooted at sink, seeding the
// execute phase's top-level request with req.
func (e *Executor) UpdateWithRequest(ctx context.Context, sink algorithm.Node, req *metadata.Metadata) (mesh.Dataset, error) {
	e.reportCache = make(map[algorithm.Node]*metadata.Metadata)

	report, err := e.report(ctx, sink)
	if err != nil {
		e.log.Error("pipeline: report phase aborted", "err", err)
		return nil, fmt.Errorf("pipeline report phase: %w", err)
	}

	ds, err := e.execute(ctx, sink, report, req)
	if err != nil {
		e.log.Error("pipeline: execute phase aborted", "err", err)
		return nil, fmt.Errorf("pipeline execute phase: %w", err)
	}
	return ds, nil
}

// report performs the recursive post-order report walk, caching one
// result per node for the duration of this Update.
func (e *Executor) report(ctx context.Context, node algorithm.Node) (*metadata.Metadata, error) {
	if cached, ok := e.reportCache[node]; ok {
		return cached, nil
	}

	n := node.NumInputs()
	upstreamReports := make([]*metadata.Metadata, n)
	for i := 0; i < n; i++ {
		upstream, upstreamPort := base(node).Upstream(i)
		if upstream == nil {
			upstreamReports[i] = metadata.New()
			continue
		}
		r, err := e.report(ctx, upstream)
		if err != nil {
			return nil, err
		}
		upstreamReports[i] = r
		_ = upstreamPort
	}

	r, err := node.Report(ctx, 0, upstreamReports)
	if err != nil {
		return nil, fmt.Errorf("node report: %w", err)
	}
	e.reportCache[node] = r
	return r, nil
}

// execute performs the recursive request-pull evaluation: ask node for
// its upstream requests given the already-computed report, recursively
// execute each upstream with its request, then hand the collected
// upstream datasets to node.Execute.
func (e *Executor) execute(ctx context.Context, node algorithm.Node, report *metadata.Metadata, request *metadata.Metadata) (mesh.Dataset, error) {
	if _, ok := node.(selfFetcher); ok {
		ds, err := node.Execute(ctx, 0, make([]mesh.Dataset, node.NumInputs()), request)
		if err != nil {
			return nil, fmt.Errorf("node execute: %w", err)
		}
		return ds, nil
	}

	upstreamRequests, err := node.UpstreamRequests(ctx, 0, report, request)
	if err != nil {
		return nil, fmt.Errorf("node upstream requests: %w", err)
	}

	n := node.NumInputs()
	upstreamData := make([]mesh.Dataset, n)
	for i := 0; i < n; i++ {
		upstream, upstreamPort := base(node).Upstream(i)
		if upstream == nil {
			upstreamData[i] = mesh.Empty{}
			continue
		}
		upstreamReport, err := e.report(ctx, upstream)
		if err != nil {
			return nil, err
		}
		var req *metadata.Metadata
		if i < len(upstreamRequests) {
			req = upstreamRequests[i]
		} else {
			req = metadata.New()
		}
		ds, err := e.execute(ctx, upstream, upstreamReport, req)
		if err != nil {
			return nil, err
		}
		upstreamData[i] = ds
		_ = upstreamPort
	}

	ds, err := node.Execute(ctx, 0, upstreamData, request)
	if err != nil {
		return nil, fmt.Errorf("node execute: %w", err)
	}
	return ds, nil
}

// base extracts the *algorithm.Base embedded in node so the executor
// can walk the connection table without widening the Node interface.
func base(node algorithm.Node) upstreamLookup {
	u, ok := node.(upstreamLookup)
	if !ok {
		return noUpstream{}
	}
	return u
}

// upstreamLookup is satisfied by algorithm.Base; nodes that do not
// embed Base (none in this kernel) fall back to noUpstream.
type upstreamLookup interface {
	Upstream(port int) (algorithm.Node, int)
}

type noUpstream struct{}

func (noUpstream) Upstream(int) (algorithm.Node, int) { return nil, 0 }

// selfFetcher is implemented by nodes that pull their own upstream data
// per call to Execute rather than relying on the executor's generic
// one-request-per-input-port pre-fetch (mapreduce.Stage is the only
// one: it issues one upstream Execute per time step, not per input
// port). The executor skips both UpstreamRequests and the upstream
// execute recursion for such a node and hands it an upstreamData slice
// of nil entries, one per input port, since the node never reads it.
type selfFetcher interface {
	FetchesUpstreamItself()
}
