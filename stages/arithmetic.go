package stages

import (
	"context"
	"fmt"

	"github.com/teca-go/teca/algorithm"
	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/variant"
)

// Op names the elementwise binary operation Arithmetic applies.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (o Op) apply(x, y float64) float64 {
	switch o {
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		return x / y
	default:
		return x + y
	}
}

// Arithmetic is the reference elementwise transform exercising
// variant.Dispatch2: combines two named point arrays on its single
// input mesh into a new output array.
type Arithmetic struct {
	algorithm.Base
	LeftArray  string `teca:"left_array"`
	RightArray string `teca:"right_array"`
	OutputArray string `teca:"output_array"`
	Operator   Op     `teca:"operator"`
}

// NewArithmetic constructs a transform reading left/right arrays off
// its upstream mesh and writing the result under output.
func NewArithmetic(left, right, output string, op Op) *Arithmetic {
	a := &Arithmetic{LeftArray: left, RightArray: right, OutputArray: output, Operator: op}
	a.Init(1, 1)
	a.RegisterProperties(a)
	return a
}

func (a *Arithmetic) Execute(ctx context.Context, port int, upstream []mesh.Dataset, request *metadata.Metadata) (mesh.Dataset, error) {
	if len(upstream) == 0 {
		return nil, errs.New(errs.ProtocolFailure, "Arithmetic.Execute", fmt.Errorf("no upstream dataset"))
	}
	in, ok := upstream[0].(*mesh.Mesh)
	if !ok {
		return mesh.Empty{}, nil
	}
	left, ok := in.Points.Get(a.LeftArray)
	if !ok {
		return nil, errs.New(errs.KeyMissing, "Arithmetic.Execute", fmt.Errorf("no array named %q", a.LeftArray))
	}
	right, ok := in.Points.Get(a.RightArray)
	if !ok {
		return nil, errs.New(errs.KeyMissing, "Arithmetic.Execute", fmt.Errorf("no array named %q", a.RightArray))
	}

	out, err := variant.Dispatch2(left, right, a.Operator.apply)
	if err != nil {
		return nil, err
	}

	result := in.Clone()
	if result.Points.Has(a.OutputArray) {
		if err := result.Points.Set(a.OutputArray, out); err != nil {
			return nil, err
		}
	} else if err := result.Points.Add(a.OutputArray, out); err != nil {
		return nil, err
	}
	return result, nil
}
