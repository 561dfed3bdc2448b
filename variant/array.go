package variant

import (
	"fmt"
	"strings"

	"github.com/teca-go/teca/errs"
)

// MetadataLike is the minimal contract a nested-metadata value must
// satisfy to live inside a Metadata-typed variant array. The metadata
// package implements it; variant never imports metadata directly, which
// breaks what would otherwise be an import cycle (metadata holds
// variant arrays, a Metadata-typed variant array holds metadata) the
// same way the original C++ forward-declares class teca_metadata ahead
// of teca_variant_array_impl<teca_metadata>.
type MetadataLike interface {
	CloneMeta() MetadataLike
	EqualMeta(other MetadataLike) bool
	MarshalBinary() ([]byte, error)
}

// Numeric lists the 8 arithmetic Go kinds backing the 10 numeric type
// codes. ~ allows named types (e.g. a domain-specific int64 alias) to
// participate.
type Numeric interface {
	~int8 | ~uint8 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Array is the type-erased handle every pipeline stage passes around.
// Each concrete instance binds exactly one element type at construction
// (I-VA2); generic callers reach into it through Dispatch2 /
// Dispatch2Widening rather than a downcast.
type Array interface {
	TypeCode() TypeCode
	Len() int

	At(i int) (any, error)
	GetInto(i int, dst any) error
	GetRange(start, end int, dst Array) error

	SetScalar(i int, v any) error
	SetRange(start int, src Array) error

	Append(v any) error
	AppendArray(src Array) error

	Resize(n int)
	Reserve(n int)
	Clear()

	Equal(other Array) bool
	Clone() Array
	CloneEmpty() Array

	MarshalBinary() ([]byte, error)
	MarshalText() ([]byte, error)
}

// elementOps is the per-element-type behavior that cannot be expressed
// with ordinary Go generics: conversion from an arbitrary boxed value,
// equality, and wire encoding. One instance is built per concrete T at
// package init and shared by every typedArray[T] of that type — a
// closed sum type matched over in one place, in place of the
// original's per-call TEMPLATE_DISPATCH cascade.
type elementOps[T any] struct {
	fromAny    func(v any) (T, error)
	equal      func(a, b T) bool
	encode     func(w *byteWriter, v T)
	decode     func(r *byteReader) (T, error)
	textEncode func(v T) string
	wrapText   bool // true for object element types: wrap each encoded element in {...}
}

func numericOps[T Numeric](width int, encodeFn func(w *byteWriter, v T), decodeFn func(r *byteReader) (T, error)) elementOps[T] {
	return elementOps[T]{
		fromAny: func(v any) (T, error) {
			return castNumeric[T](v)
		},
		equal: func(a, b T) bool { return a == b },
		encode: func(w *byteWriter, v T) {
			encodeFn(w, v)
		},
		decode: decodeFn,
		textEncode: func(v T) string {
			return fmt.Sprintf("%v", v)
		},
	}
}

var (
	int8Ops   = numericOps[int8](1, func(w *byteWriter, v int8) { w.writeByte(byte(v)) }, func(r *byteReader) (int8, error) { b, err := r.readByte(); return int8(b), err })
	uint8Ops  = numericOps[uint8](1, func(w *byteWriter, v uint8) { w.writeByte(v) }, func(r *byteReader) (uint8, error) { return r.readByte() })
	int32Ops  = numericOps[int32](4, func(w *byteWriter, v int32) { w.writeUint32(uint32(v)) }, func(r *byteReader) (int32, error) { u, err := r.readUint32(); return int32(u), err })
	uint32Ops = numericOps[uint32](4, func(w *byteWriter, v uint32) { w.writeUint32(v) }, func(r *byteReader) (uint32, error) { return r.readUint32() })
	int64Ops  = numericOps[int64](8, func(w *byteWriter, v int64) { w.writeUint64(uint64(v)) }, func(r *byteReader) (int64, error) { u, err := r.readUint64(); return int64(u), err })
	uint64Ops = numericOps[uint64](8, func(w *byteWriter, v uint64) { w.writeUint64(v) }, func(r *byteReader) (uint64, error) { return r.readUint64() })
	float32Ops = numericOps[float32](4, func(w *byteWriter, v float32) { w.writeFloat32(v) }, func(r *byteReader) (float32, error) { return r.readFloat32() })
	float64Ops = numericOps[float64](8, func(w *byteWriter, v float64) { w.writeFloat64(v) }, func(r *byteReader) (float64, error) { return r.readFloat64() })

	stringOps = elementOps[string]{
		fromAny: func(v any) (string, error) {
			s, ok := v.(string)
			if !ok {
				return "", errs.New(errs.BadCast, "variant.string", fmt.Errorf("cannot convert %T to string", v))
			}
			return s, nil
		},
		equal:      func(a, b string) bool { return a == b },
		encode:     func(w *byteWriter, v string) { w.writeString(v) },
		decode:     func(r *byteReader) (string, error) { return r.readString() },
		textEncode: func(v string) string { return v },
	}
)

// castNumeric converts a boxed concrete numeric value into D, following
// Go's native (truncating, wrapping) conversion semantics — the
// static_cast-like narrowing rule, resolved here once, deterministically,
// rather than re-decided at each call site.
func castNumeric[D Numeric](v any) (D, error) {
	switch x := v.(type) {
	case int8:
		return D(x), nil
	case uint8:
		return D(x), nil
	case int32:
		return D(x), nil
	case uint32:
		return D(x), nil
	case int64:
		return D(x), nil
	case uint64:
		return D(x), nil
	case float32:
		return D(x), nil
	case float64:
		return D(x), nil
	default:
		return 0, errs.New(errs.BadCast, "variant.castNumeric", fmt.Errorf("cannot convert %T to numeric", v))
	}
}

func metadataOps() elementOps[MetadataLike] {
	return elementOps[MetadataLike]{
		fromAny: func(v any) (MetadataLike, error) {
			m, ok := v.(MetadataLike)
			if !ok {
				return nil, errs.New(errs.BadCast, "variant.metadata", fmt.Errorf("cannot convert %T to nested metadata", v))
			}
			return m, nil
		},
		equal: func(a, b MetadataLike) bool {
			if a == nil || b == nil {
				return a == nil && b == nil
			}
			return a.EqualMeta(b)
		},
		encode: func(w *byteWriter, v MetadataLike) {
			b, err := v.MarshalBinary()
			if err != nil {
				w.err = err
				return
			}
			w.writeUint64(uint64(len(b)))
			w.writeBytes(b)
		},
		decode: func(r *byteReader) (MetadataLike, error) {
			return nil, errs.New(errs.BadCast, "variant.metadata", fmt.Errorf("nested metadata decode requires RegisterMetadataFactory"))
		},
		textEncode: func(v MetadataLike) string {
			return fmt.Sprintf("%v", v)
		},
		wrapText: true,
	}
}

// metadataFactory, set by the metadata package's init(), lets
// UnmarshalBinaryArray reconstruct Metadata-typed arrays without
// variant importing metadata.
var metadataFactory func(b []byte) (MetadataLike, error)

// RegisterMetadataFactory installs the constructor used to decode
// Metadata-typed arrays from their binary frame. Called once from
// metadata.init().
func RegisterMetadataFactory(f func(b []byte) (MetadataLike, error)) {
	metadataFactory = f
}

// typedArray is the one concrete implementation of Array, parameterized
// over the bound element type.
type typedArray[T any] struct {
	code TypeCode
	data []T
	ops  *elementOps[T]
}

func newTypedArray[T any](code TypeCode, ops *elementOps[T]) *typedArray[T] {
	return &typedArray[T]{code: code, ops: ops}
}

// NewArray constructs an empty array of the element type named by code.
func NewArray(code TypeCode) (Array, error) {
	switch code {
	case Int8:
		return newTypedArray[int8](code, &int8Ops), nil
	case Uint8:
		return newTypedArray[uint8](code, &uint8Ops), nil
	case Int32:
		return newTypedArray[int32](code, &int32Ops), nil
	case Uint32:
		return newTypedArray[uint32](code, &uint32Ops), nil
	case Int64, Int64Wide:
		return &typedArray[int64]{code: code, ops: &int64Ops}, nil
	case Uint64, Uint64Wide:
		return &typedArray[uint64]{code: code, ops: &uint64Ops}, nil
	case Float32:
		return newTypedArray[float32](code, &float32Ops), nil
	case Float64:
		return newTypedArray[float64](code, &float64Ops), nil
	case String:
		return newTypedArray[string](code, &stringOps), nil
	case Metadata:
		ops := metadataOps()
		return newTypedArray[MetadataLike](code, &ops), nil
	default:
		return nil, errs.New(errs.BadCast, "variant.NewArray", fmt.Errorf("unknown type code %d", code))
	}
}

// NewInt8/.../NewFloat64/NewString are typed convenience constructors
// used throughout the kernel and its tests in place of NewArray plus a
// type switch.
func NewInt8(vals ...int8) Array     { a := newTypedArray[int8](Int8, &int8Ops); a.data = append(a.data, vals...); return a }
func NewUint8(vals ...uint8) Array   { a := newTypedArray[uint8](Uint8, &uint8Ops); a.data = append(a.data, vals...); return a }
func NewInt32(vals ...int32) Array   { a := newTypedArray[int32](Int32, &int32Ops); a.data = append(a.data, vals...); return a }
func NewUint32(vals ...uint32) Array { a := newTypedArray[uint32](Uint32, &uint32Ops); a.data = append(a.data, vals...); return a }
func NewInt64(vals ...int64) Array   { a := newTypedArray[int64](Int64, &int64Ops); a.data = append(a.data, vals...); return a }
func NewUint64(vals ...uint64) Array { a := newTypedArray[uint64](Uint64, &uint64Ops); a.data = append(a.data, vals...); return a }
func NewFloat32(vals ...float32) Array {
	a := newTypedArray[float32](Float32, &float32Ops)
	a.data = append(a.data, vals...)
	return a
}
func NewFloat64(vals ...float64) Array {
	a := newTypedArray[float64](Float64, &float64Ops)
	a.data = append(a.data, vals...)
	return a
}
func NewString(vals ...string) Array {
	a := newTypedArray[string](String, &stringOps)
	a.data = append(a.data, vals...)
	return a
}

func (a *typedArray[T]) TypeCode() TypeCode { return a.code }
func (a *typedArray[T]) Len() int           { return len(a.data) }

func (a *typedArray[T]) At(i int) (any, error) {
	if i < 0 || i >= len(a.data) {
		return nil, errs.New(errs.OutOfRange, "Array.At", fmt.Errorf("index %d, size %d", i, len(a.data)))
	}
	return a.data[i], nil
}

func (a *typedArray[T]) GetInto(i int, dst any) error {
	if i < 0 || i >= len(a.data) {
		return errs.New(errs.OutOfRange, "Array.GetInto", fmt.Errorf("index %d, size %d", i, len(a.data)))
	}
	return assignOut(a.data[i], dst)
}

// assignOut writes v into the pointer dst, converting numerically where
// both sides are numeric. dst must be a pointer to one of the Go types
// backing a type code.
func assignOut(v any, dst any) error {
	switch d := dst.(type) {
	case *int8:
		x, err := castNumeric[int8](v)
		if err != nil {
			return err
		}
		*d = x
	case *uint8:
		x, err := castNumeric[uint8](v)
		if err != nil {
			return err
		}
		*d = x
	case *int32:
		x, err := castNumeric[int32](v)
		if err != nil {
			return err
		}
		*d = x
	case *uint32:
		x, err := castNumeric[uint32](v)
		if err != nil {
			return err
		}
		*d = x
	case *int64:
		x, err := castNumeric[int64](v)
		if err != nil {
			return err
		}
		*d = x
	case *uint64:
		x, err := castNumeric[uint64](v)
		if err != nil {
			return err
		}
		*d = x
	case *float32:
		x, err := castNumeric[float32](v)
		if err != nil {
			return err
		}
		*d = x
	case *float64:
		x, err := castNumeric[float64](v)
		if err != nil {
			return err
		}
		*d = x
	case *string:
		s, ok := v.(string)
		if !ok {
			return errs.New(errs.BadCast, "Array.GetInto", fmt.Errorf("cannot convert %T to string", v))
		}
		*d = s
	case *MetadataLike:
		m, ok := v.(MetadataLike)
		if !ok {
			return errs.New(errs.BadCast, "Array.GetInto", fmt.Errorf("cannot convert %T to metadata", v))
		}
		*d = m
	default:
		return errs.New(errs.BadCast, "Array.GetInto", fmt.Errorf("unsupported destination type %T", dst))
	}
	return nil
}

func (a *typedArray[T]) GetRange(start, end int, dst Array) error {
	if start < 0 || end > len(a.data) || start > end {
		return errs.New(errs.OutOfRange, "Array.GetRange", fmt.Errorf("range [%d:%d), size %d", start, end, len(a.data)))
	}
	n := end - start
	dst.Resize(n)
	for i := 0; i < n; i++ {
		if err := dst.SetScalar(i, a.data[start+i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *typedArray[T]) SetScalar(i int, v any) error {
	if i < 0 || i >= len(a.data) {
		return errs.New(errs.OutOfRange, "Array.SetScalar", fmt.Errorf("index %d, size %d", i, len(a.data)))
	}
	x, err := a.ops.fromAny(v)
	if err != nil {
		return err
	}
	a.data[i] = x
	return nil
}

func (a *typedArray[T]) SetRange(start int, src Array) error {
	n := src.Len()
	if start < 0 || start+n > len(a.data) {
		return errs.New(errs.OutOfRange, "Array.SetRange", fmt.Errorf("range [%d:%d), size %d", start, start+n, len(a.data)))
	}
	for i := 0; i < n; i++ {
		v, err := src.At(i)
		if err != nil {
			return err
		}
		x, err := a.ops.fromAny(v)
		if err != nil {
			return err
		}
		a.data[start+i] = x
	}
	return nil
}

func (a *typedArray[T]) Append(v any) error {
	x, err := a.ops.fromAny(v)
	if err != nil {
		return err
	}
	a.data = append(a.data, x)
	return nil
}

func (a *typedArray[T]) AppendArray(src Array) error {
	n := src.Len()
	for i := 0; i < n; i++ {
		v, err := src.At(i)
		if err != nil {
			return err
		}
		if err := a.Append(v); err != nil {
			return err
		}
	}
	return nil
}

func (a *typedArray[T]) Resize(n int) {
	if n <= len(a.data) {
		a.data = a.data[:n]
		return
	}
	a.data = append(a.data, make([]T, n-len(a.data))...)
}

func (a *typedArray[T]) Reserve(n int) {
	if n <= cap(a.data) {
		return
	}
	grown := make([]T, len(a.data), n)
	copy(grown, a.data)
	a.data = grown
}

func (a *typedArray[T]) Clear() { a.data = a.data[:0] }

func (a *typedArray[T]) Equal(other Array) bool {
	o, ok := other.(*typedArray[T])
	if !ok || o.code != a.code || len(o.data) != len(a.data) {
		return false
	}
	for i := range a.data {
		if !a.ops.equal(a.data[i], o.data[i]) {
			return false
		}
	}
	return true
}

func (a *typedArray[T]) Clone() Array {
	data := make([]T, len(a.data))
	copy(data, a.data)
	return &typedArray[T]{code: a.code, data: data, ops: a.ops}
}

func (a *typedArray[T]) CloneEmpty() Array {
	return &typedArray[T]{code: a.code, ops: a.ops}
}

func (a *typedArray[T]) MarshalBinary() ([]byte, error) {
	w := &byteWriter{}
	w.writeUint32(uint32(a.code))
	w.writeUint64(uint64(len(a.data)))
	for _, v := range a.data {
		a.ops.encode(w, v)
		if w.err != nil {
			return nil, w.err
		}
	}
	return w.buf, nil
}

func (a *typedArray[T]) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for i, v := range a.data {
		if i > 0 {
			sb.WriteString(", ")
		}
		if a.ops.wrapText {
			sb.WriteByte('{')
			sb.WriteString(a.ops.textEncode(v))
			sb.WriteByte('}')
		} else {
			sb.WriteString(a.ops.textEncode(v))
		}
	}
	return []byte(sb.String()), nil
}

// ErrTextDecodeUnsupported is returned by any attempt to decode a
// textual (CSV/ASCII) variant array form. The original toolkit stubs
// this path (`from_ascii` is a `// TODO` that silently does nothing);
// this package declares it unsupported and fails loudly instead.
var ErrTextDecodeUnsupported = fmt.Errorf("variant: textual deserialization is not supported")

// UnmarshalText always fails; kept as a named entry point so callers
// get ErrTextDecodeUnsupported rather than a missing-method error.
func UnmarshalText([]byte) (Array, error) {
	return nil, ErrTextDecodeUnsupported
}
