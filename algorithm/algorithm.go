// Package algorithm defines the pipeline node contract (component C3):
// every stage in a pipeline — reader, transform, reducer, writer —
// implements Node, typically by embedding Base.
package algorithm

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
)

// PropertyDescription documents one settable property, discovered by
// reflecting over a node's `teca:"name"`-tagged fields at
// RegisterProperties time.
type PropertyDescription struct {
	Name string
	Type reflect.Type
}

// Node is the pipeline contract every stage satisfies.
type Node interface {
	NumInputs() int
	NumOutputs() int
	SetInputConnection(port int, upstream Node, upstreamPort int)
	Report(ctx context.Context, port int, upstreamReports []*metadata.Metadata) (*metadata.Metadata, error)
	UpstreamRequests(ctx context.Context, port int, report *metadata.Metadata, request *metadata.Metadata) ([]*metadata.Metadata, error)
	Execute(ctx context.Context, port int, upstreamData []mesh.Dataset, request *metadata.Metadata) (mesh.Dataset, error)
	Property(name string) (any, bool)
	SetProperty(name string, v any) error
	PropertyDescriptions() []PropertyDescription
}

type connection struct {
	upstream     Node
	upstreamPort int
}

// Base is an embeddable struct implementing the bookkeeping every node
// shares: a fixed-size upstream connection table, a tag-driven property
// store, and default Report/UpstreamRequests implementations. Grounded
// on the teacher's TECA_ALGORITHM_PROPERTY-generated-accessor idiom,
// reimplemented in Go via one reflective walk over the embedding
// struct's `teca:"name"` tags at RegisterProperties time rather than
// per-property generated code.
type Base struct {
	mu          sync.Mutex
	connections []connection
	numOutputs  int

	self       reflect.Value
	props      []PropertyDescription
	propFields map[string]reflect.Value
}

// Init sizes the upstream connection table and output count. Concrete
// nodes call this from their constructor before RegisterProperties.
func (b *Base) Init(numInputs, numOutputs int) {
	b.connections = make([]connection, numInputs)
	b.numOutputs = numOutputs
}

// RegisterProperties walks self's exported fields once, indexing any
// carrying a `teca:"name"` tag into the property store. self must be a
// pointer to the concrete node embedding Base.
func (b *Base) RegisterProperties(self any) {
	v := reflect.ValueOf(self)
	if v.Kind() != reflect.Ptr {
		panic("algorithm.Base.RegisterProperties: self must be a pointer")
	}
	elem := v.Elem()
	b.self = v
	b.propFields = make(map[string]reflect.Value)
	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, ok := f.Tag.Lookup("teca")
		if !ok {
			continue
		}
		fv := elem.Field(i)
		b.propFields[name] = fv
		b.props = append(b.props, PropertyDescription{Name: name, Type: f.Type})
	}
}

func (b *Base) NumInputs() int  { return len(b.connections) }
func (b *Base) NumOutputs() int { return b.numOutputs }

// SetInputConnection wires upstream into the given input port.
func (b *Base) SetInputConnection(port int, upstream Node, upstreamPort int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connections[port] = connection{upstream: upstream, upstreamPort: upstreamPort}
}

// Upstream returns the node and port wired into input port.
func (b *Base) Upstream(port int) (Node, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.connections[port]
	return c.upstream, c.upstreamPort
}

// PropertyDescriptions lists every tagged, settable property.
func (b *Base) PropertyDescriptions() []PropertyDescription {
	out := make([]PropertyDescription, len(b.props))
	copy(out, b.props)
	return out
}

// Property returns the current value of a tagged property.
func (b *Base) Property(name string) (any, bool) {
	fv, ok := b.propFields[name]
	if !ok {
		return nil, false
	}
	return fv.Interface(), true
}

// SetProperty assigns v to the tagged field named name. BadCast if v's
// type does not match the field's declared type.
func (b *Base) SetProperty(name string, v any) error {
	fv, ok := b.propFields[name]
	if !ok {
		return errs.New(errs.KeyMissing, "Base.SetProperty", fmt.Errorf("no property named %q", name))
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(fv.Type()) {
		return errs.New(errs.BadCast, "Base.SetProperty", fmt.Errorf("property %q wants %s, got %T", name, fv.Type(), v))
	}
	fv.Set(rv)
	return nil
}

// Report provides the identity default: merge the upstream reports by
// returning the first (single-input nodes) or an empty report (source
// nodes with no inputs). Multi-input nodes that need real merging
// override Report.
func (b *Base) Report(ctx context.Context, port int, upstreamReports []*metadata.Metadata) (*metadata.Metadata, error) {
	if len(upstreamReports) == 0 {
		return metadata.New(), nil
	}
	return upstreamReports[0].Clone(), nil
}

// UpstreamRequests provides the pass-through default: one request per
// input connection, a verbatim clone of the downstream request.
func (b *Base) UpstreamRequests(ctx context.Context, port int, report *metadata.Metadata, request *metadata.Metadata) ([]*metadata.Metadata, error) {
	out := make([]*metadata.Metadata, len(b.connections))
	for i := range out {
		if request != nil {
			out[i] = request.Clone()
		} else {
			out[i] = metadata.New()
		}
	}
	return out, nil
}
