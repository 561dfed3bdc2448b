package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/variant"
)

const (
	kindArray byte = 0
	kindNest  byte = 1
)

// MarshalBinary encodes the metadata as a sequence of (key, kind,
// payload) entries in insertion order, each length-prefixed, using the
// same big-endian fixed-width framing as variant.Array.MarshalBinary so
// a Metadata-typed variant array element nests cleanly inside a larger
// frame (see variant.MetadataLike).
func (m *Metadata) MarshalBinary() ([]byte, error) {
	var buf []byte
	appendUint64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf = append(buf, b[:]...)
	}
	appendUint64(uint64(len(m.order)))
	for _, k := range m.order {
		e := m.data[k]
		appendUint64(uint64(len(k)))
		buf = append(buf, k...)
		if e.nest != nil {
			buf = append(buf, kindNest)
			payload, err := e.nest.MarshalBinary()
			if err != nil {
				return nil, err
			}
			appendUint64(uint64(len(payload)))
			buf = append(buf, payload...)
		} else {
			buf = append(buf, kindArray)
			payload, err := e.array.MarshalBinary()
			if err != nil {
				return nil, err
			}
			appendUint64(uint64(len(payload)))
			buf = append(buf, payload...)
		}
	}
	return buf, nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) readUint64() (uint64, error) {
	if len(r.buf)-r.pos < 8 {
		return 0, errs.New(errs.OutOfRange, "metadata.decode", fmt.Errorf("unexpected end of frame"))
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *reader) readByte() (byte, error) {
	if len(r.buf)-r.pos < 1 {
		return 0, errs.New(errs.OutOfRange, "metadata.decode", fmt.Errorf("unexpected end of frame"))
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if len(r.buf)-r.pos < n {
		return nil, errs.New(errs.OutOfRange, "metadata.decode", fmt.Errorf("unexpected end of frame"))
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// UnmarshalBinary decodes a frame produced by MarshalBinary into m,
// replacing its contents.
func (m *Metadata) UnmarshalBinary(b []byte) error {
	r := &reader{buf: b}
	n, err := r.readUint64()
	if err != nil {
		return err
	}
	m.order = nil
	m.data = make(map[string]entry, n)
	for i := uint64(0); i < n; i++ {
		klen, err := r.readUint64()
		if err != nil {
			return err
		}
		kb, err := r.readBytes(int(klen))
		if err != nil {
			return err
		}
		key := string(kb)

		kind, err := r.readByte()
		if err != nil {
			return err
		}
		plen, err := r.readUint64()
		if err != nil {
			return err
		}
		payload, err := r.readBytes(int(plen))
		if err != nil {
			return err
		}

		switch kind {
		case kindNest:
			nested := New()
			if err := nested.UnmarshalBinary(payload); err != nil {
				return err
			}
			m.setEntry(key, entry{nest: nested})
		case kindArray:
			arr, err := variant.UnmarshalBinaryArray(payload)
			if err != nil {
				return err
			}
			m.setEntry(key, entry{array: arr})
		default:
			return errs.New(errs.ProtocolFailure, "metadata.decode", fmt.Errorf("unknown entry kind %d", kind))
		}
	}
	return nil
}
