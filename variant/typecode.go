// Package variant implements the type-erased polymorphic array
// container (the pipeline kernel's variant array, component C1): an
// ordered sequence of elements of a single element type drawn from a
// closed set of 12 numeric, string, and nested-metadata types, with a
// uniform get/set/append/copy/serialize surface that preserves type
// for elementwise computation.
//
// The type codes and their numbering are grounded on the original
// TECA toolkit's teca_variant_array_impl specializations
// (teca_variant_array.h, TECA_VARIANT_ARRAY_TT_SPEC), generalized from
// C++ template dispatch to a closed Go type switch: this removes
// BadCast risk at compile time for every generic numeric call site,
// leaving BadCast only at the genuinely type-erased boundary
// (Array.GetInto, cross-type Append, and conversions that cross the
// numeric/object divide).
package variant

// TypeCode identifies the concrete element type of an Array. It is
// immutable for the lifetime of an instance and round-trips across
// binary serialization.
type TypeCode uint32

const (
	Int8 TypeCode = iota + 1
	Uint8
	Int32
	Uint32
	Int64
	Uint64
	Int64Wide  // second 64-bit signed slot, mirrors the original's separate `long`/`long long` codes
	Uint64Wide // second 64-bit unsigned slot, mirrors the original's separate `unsigned long`/`unsigned long long` codes
	Float32
	Float64
	String
	Metadata // nested metadata.Metadata, registered by the metadata package via RegisterMetadataFactory
)

func (c TypeCode) String() string {
	switch c {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Int64Wide:
		return "int64_wide"
	case Uint64Wide:
		return "uint64_wide"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Metadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether the type code denotes an arithmetic element
// type (as opposed to string or nested metadata).
func (c TypeCode) IsNumeric() bool {
	switch c {
	case Int8, Uint8, Int32, Uint32, Int64, Uint64, Int64Wide, Uint64Wide, Float32, Float64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the type code is one of the two
// floating-point element types.
func (c TypeCode) IsFloat() bool {
	switch c {
	case Float32, Float64:
		return true
	default:
		return false
	}
}
