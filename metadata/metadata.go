// Package metadata implements the hierarchical key->value bag
// (component C2) that carries reports, requests, and per-array
// attributes through the pipeline. A value is one of: a variant array,
// a nested *Metadata, or a scalar encoded as a length-1 variant array —
// exactly the three forms the specification allows.
package metadata

import (
	"fmt"

	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/variant"
)

func init() {
	variant.RegisterMetadataFactory(func(b []byte) (variant.MetadataLike, error) {
		m := New()
		if err := m.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// entry is either a variant array or a nested metadata; never both.
type entry struct {
	array variant.Array
	nest  *Metadata
}

// Metadata is an ordered string-keyed mapping. Insertion preserves
// last-write-wins per key (re-Set replaces in place, keeping original
// position); iteration order via Keys follows first-insertion order.
type Metadata struct {
	order []string
	data  map[string]entry
}

// New returns an empty Metadata.
func New() *Metadata {
	return &Metadata{data: make(map[string]entry)}
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Has reports whether key is present.
func (m *Metadata) Has(key string) bool {
	_, ok := m.data[key]
	return ok
}

func (m *Metadata) setEntry(key string, e entry) {
	if _, exists := m.data[key]; !exists {
		m.order = append(m.order, key)
	}
	m.data[key] = e
}

// SetMetadata stores a nested Metadata under key.
func (m *Metadata) SetMetadata(key string, v *Metadata) {
	m.setEntry(key, entry{nest: v})
}

// SetArray stores a variant array under key.
func (m *Metadata) SetArray(key string, v variant.Array) {
	m.setEntry(key, entry{array: v})
}

// Set stores a scalar value under key, boxing it as a length-1 array of
// the matching element type. v must be one of the Go types backing a
// variant.TypeCode, a variant.Array, or a *Metadata.
func (m *Metadata) Set(key string, v any) error {
	switch x := v.(type) {
	case *Metadata:
		m.SetMetadata(key, x)
		return nil
	case variant.Array:
		m.SetArray(key, x)
		return nil
	default:
		arr, err := scalarArray(v)
		if err != nil {
			return errs.New(errs.BadCast, "Metadata.Set", err)
		}
		m.SetArray(key, arr)
		return nil
	}
}

func scalarArray(v any) (variant.Array, error) {
	var arr variant.Array
	switch v.(type) {
	case int8:
		arr = variant.NewInt8()
	case uint8:
		arr = variant.NewUint8()
	case int32:
		arr = variant.NewInt32()
	case uint32:
		arr = variant.NewUint32()
	case int64:
		arr = variant.NewInt64()
	case uint64:
		arr = variant.NewUint64()
	case int:
		arr = variant.NewInt64()
		v = int64(v.(int))
	case float32:
		arr = variant.NewFloat32()
	case float64:
		arr = variant.NewFloat64()
	case string:
		arr = variant.NewString()
	default:
		return nil, fmt.Errorf("unsupported scalar type %T", v)
	}
	if err := arr.Append(v); err != nil {
		return nil, err
	}
	return arr, nil
}

// Append concatenates a scalar or array value onto an existing key,
// per the specification's metadata Append contract. If key is absent,
// Append behaves like Set.
func (m *Metadata) Append(key string, v any) error {
	e, ok := m.data[key]
	if !ok || e.array == nil {
		return m.Set(key, v)
	}
	if arr, isArr := v.(variant.Array); isArr {
		return e.array.AppendArray(arr)
	}
	return e.array.Append(v)
}

// GetMetadata returns the nested Metadata stored at key.
func (m *Metadata) GetMetadata(key string) (*Metadata, bool) {
	e, ok := m.data[key]
	if !ok || e.nest == nil {
		return nil, false
	}
	return e.nest, true
}

// GetArray returns the variant array stored at key.
func (m *Metadata) GetArray(key string) (variant.Array, bool) {
	e, ok := m.data[key]
	if !ok || e.array == nil {
		return nil, false
	}
	return e.array, true
}

// Get converts the value stored at key into dst. KeyMissing if key is
// absent (recoverable: callers may substitute a default); BadCast
// surfaces from the underlying array's conversion on type mismatch.
func (m *Metadata) Get(key string, dst any) error {
	e, ok := m.data[key]
	if !ok {
		return errs.New(errs.KeyMissing, "Metadata.Get", fmt.Errorf("key %q not found", key))
	}
	switch d := dst.(type) {
	case **Metadata:
		if e.nest == nil {
			return errs.New(errs.BadCast, "Metadata.Get", fmt.Errorf("key %q is not nested metadata", key))
		}
		*d = e.nest
		return nil
	case *variant.Array:
		if e.array == nil {
			return errs.New(errs.BadCast, "Metadata.Get", fmt.Errorf("key %q is not an array", key))
		}
		*d = e.array
		return nil
	case *[]string:
		if e.array == nil || e.array.TypeCode() != variant.String {
			return errs.New(errs.BadCast, "Metadata.Get", fmt.Errorf("key %q is not a string array", key))
		}
		out := make([]string, e.array.Len())
		for i := range out {
			v, err := e.array.At(i)
			if err != nil {
				return err
			}
			out[i] = v.(string)
		}
		*d = out
		return nil
	default:
		if e.array == nil {
			return errs.New(errs.BadCast, "Metadata.Get", fmt.Errorf("key %q is not a scalar array", key))
		}
		if e.array.Len() == 0 {
			return errs.New(errs.OutOfRange, "Metadata.Get", fmt.Errorf("key %q is an empty array", key))
		}
		return e.array.GetInto(0, dst)
	}
}

// Delete removes key, if present.
func (m *Metadata) Delete(key string) {
	if _, ok := m.data[key]; !ok {
		return
	}
	delete(m.data, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Equal reports structural equality.
func (m *Metadata) Equal(other *Metadata) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.order) != len(other.order) {
		return false
	}
	for _, k := range m.order {
		a, ok := m.data[k]
		if !ok {
			return false
		}
		b, ok := other.data[k]
		if !ok {
			return false
		}
		if (a.nest == nil) != (b.nest == nil) {
			return false
		}
		if a.nest != nil {
			if !a.nest.Equal(b.nest) {
				return false
			}
			continue
		}
		if a.array == nil || b.array == nil || !a.array.Equal(b.array) {
			return false
		}
	}
	return true
}

// EqualMeta implements variant.MetadataLike.
func (m *Metadata) EqualMeta(other variant.MetadataLike) bool {
	o, ok := other.(*Metadata)
	if !ok {
		return false
	}
	return m.Equal(o)
}

// Clone deep-copies the metadata: value semantics, per the
// specification ("copying a metadata deep-copies its contents").
func (m *Metadata) Clone() *Metadata {
	out := New()
	for _, k := range m.order {
		e := m.data[k]
		if e.nest != nil {
			out.SetMetadata(k, e.nest.Clone())
		} else {
			out.SetArray(k, e.array.Clone())
		}
	}
	return out
}

// CloneMeta implements variant.MetadataLike.
func (m *Metadata) CloneMeta() variant.MetadataLike { return m.Clone() }
