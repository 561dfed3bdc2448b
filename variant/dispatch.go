package variant

import (
	"fmt"

	"github.com/teca-go/teca/errs"
)

// Dispatch2 implements the kernel's one generic-arithmetic entry point:
// read the elements of a and b converted on the fly to float64 (so fn
// never sees cross-type values), apply fn elementwise, and return a
// freshly allocated result array of a's element type. Every transform and the map-reduce reducer built on
// arithmetic data goes through this rather than hand-rolling a type
// switch, grounded on the original's "typed elementwise body over two
// arrays of possibly different T" algorithm
// (teca_variant_array_impl<T>::get/set with cross-type U).
//
// a's element type must be numeric (BadCast otherwise), a and b must
// have equal length (OutOfRange otherwise), and a non-numeric element
// of b fails BadCast.
func Dispatch2(a, b Array, fn func(x, y float64) float64) (Array, error) {
	if !a.TypeCode().IsNumeric() {
		return nil, errs.New(errs.BadCast, "variant.Dispatch2", fmt.Errorf("element type %s is not numeric", a.TypeCode()))
	}
	if a.Len() != b.Len() {
		return nil, errs.New(errs.OutOfRange, "variant.Dispatch2", fmt.Errorf("length mismatch %d != %d", a.Len(), b.Len()))
	}

	out := a.CloneEmpty()
	out.Resize(a.Len())
	for i := 0; i < a.Len(); i++ {
		av, err := a.At(i)
		if err != nil {
			return nil, err
		}
		bv, err := b.At(i)
		if err != nil {
			return nil, err
		}
		afl, err := castNumeric[float64](av)
		if err != nil {
			return nil, err
		}
		bfl, err := castNumeric[float64](bv)
		if err != nil {
			return nil, err
		}
		result := fn(afl, bfl)
		if err := out.SetScalar(i, result); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Dispatch2Widening behaves like Dispatch2 but the result array's
// element type is the wider of a's and b's (by byte width across all
// numeric types, falling back to a's type when widths tie). This is what a reducer combining, say, a float32
// array with a float64 array should use to avoid truncating the wider
// operand (exercised by scenario S6: float32 + float64 -> float64).
func Dispatch2Widening(a, b Array, fn func(x, y float64) float64) (Array, error) {
	wide := widerNumericType(a.TypeCode(), b.TypeCode())
	if wide == a.TypeCode() {
		return Dispatch2(a, b, fn)
	}
	// Swap so the wider type drives CloneEmpty, then mirror the
	// arithmetic so fn still receives a's element first and b's second.
	out, err := Dispatch2(b, a, func(x, y float64) float64 { return fn(y, x) })
	if err != nil {
		return nil, err
	}
	return out, nil
}

func widerNumericType(a, b TypeCode) TypeCode {
	rank := func(c TypeCode) int {
		switch c {
		case Float64, Int64, Uint64, Int64Wide, Uint64Wide:
			return 3
		case Float32, Int32, Uint32:
			return 2
		case Int8, Uint8:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
