package variant

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/teca-go/teca/errs"
)

// byteWriter/byteReader implement a fixed big-endian wire framing,
// grounded on the teacher's utils/wrappers.Packer byte-at-a-time
// append style, but built on encoding/binary for the fixed-width
// numeric fields since the wire layout is exact and a general
// serialization library would fight, rather than help with, that
// exact layout (see DESIGN.md).
type byteWriter struct {
	buf []byte
	err error
}

func (w *byteWriter) writeByte(b byte) { w.buf = append(w.buf, b) }
func (w *byteWriter) writeBytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *byteWriter) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) writeFloat32(v float32) { w.writeUint32(math.Float32bits(v)) }
func (w *byteWriter) writeFloat64(v float64) { w.writeUint64(math.Float64bits(v)) }

func (w *byteWriter) writeString(s string) {
	w.writeUint64(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

type byteReader struct {
	buf []byte
	pos int
}

func newByteReader(b []byte) *byteReader { return &byteReader{buf: b} }

func (r *byteReader) remaining() int { return len(r.buf) - r.pos }

func (r *byteReader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, errs.New(errs.OutOfRange, "variant.decode", fmt.Errorf("unexpected end of frame"))
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readBytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, errs.New(errs.OutOfRange, "variant.decode", fmt.Errorf("unexpected end of frame"))
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *byteReader) readUint64() (uint64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *byteReader) readFloat32() (float32, error) {
	u, err := r.readUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (r *byteReader) readFloat64() (float64, error) {
	u, err := r.readUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

func (r *byteReader) readString() (string, error) {
	n, err := r.readUint64()
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalBinaryArray decodes a frame produced by Array.MarshalBinary.
// Binary is the only supported decode direction; textual
// deserialization is unsupported (see ErrTextDecodeUnsupported).
func UnmarshalBinaryArray(b []byte) (Array, error) {
	r := newByteReader(b)
	codeU, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	code := TypeCode(codeU)
	count, err := r.readUint64()
	if err != nil {
		return nil, err
	}
	arr, err := NewArray(code)
	if err != nil {
		return nil, err
	}

	switch code {
	case Metadata:
		if metadataFactory == nil {
			return nil, errs.New(errs.BadCast, "variant.UnmarshalBinaryArray", fmt.Errorf("no metadata factory registered"))
		}
		ta := arr.(*typedArray[MetadataLike])
		ta.data = make([]MetadataLike, count)
		for i := uint64(0); i < count; i++ {
			n, err := r.readUint64()
			if err != nil {
				return nil, err
			}
			raw, err := r.readBytes(int(n))
			if err != nil {
				return nil, err
			}
			m, err := metadataFactory(raw)
			if err != nil {
				return nil, err
			}
			ta.data[i] = m
		}
		return ta, nil
	default:
		return decodeTyped(arr, code, count, r)
	}
}

func decodeTyped(arr Array, code TypeCode, count uint64, r *byteReader) (Array, error) {
	switch code {
	case Int8:
		return decodeInto(arr.(*typedArray[int8]), count, r)
	case Uint8:
		return decodeInto(arr.(*typedArray[uint8]), count, r)
	case Int32:
		return decodeInto(arr.(*typedArray[int32]), count, r)
	case Uint32:
		return decodeInto(arr.(*typedArray[uint32]), count, r)
	case Int64, Int64Wide:
		return decodeInto(arr.(*typedArray[int64]), count, r)
	case Uint64, Uint64Wide:
		return decodeInto(arr.(*typedArray[uint64]), count, r)
	case Float32:
		return decodeInto(arr.(*typedArray[float32]), count, r)
	case Float64:
		return decodeInto(arr.(*typedArray[float64]), count, r)
	case String:
		return decodeInto(arr.(*typedArray[string]), count, r)
	default:
		return nil, errs.New(errs.BadCast, "variant.decodeTyped", fmt.Errorf("unknown type code %d", code))
	}
}

func decodeInto[T any](a *typedArray[T], count uint64, r *byteReader) (Array, error) {
	a.data = make([]T, count)
	for i := uint64(0); i < count; i++ {
		v, err := a.ops.decode(r)
		if err != nil {
			return nil, err
		}
		a.data[i] = v
	}
	return a, nil
}
