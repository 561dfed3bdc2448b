package mesh

import (
	"encoding/binary"
	"fmt"

	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/variant"
)

const (
	axisAbsent byte = 0
	axisPresent byte = 1
)

// MarshalBinary encodes the mesh as: metadata frame, extent (6 big-
// endian int64), a presence byte + frame per coordinate axis in X, Y,
// Z, T order, then the point-array collection (count, then per array:
// name frame + variant.Array frame) — composing the same big-endian
// fixed-width framing variant.Array and metadata.Metadata use, so a
// mesh nests cleanly inside rankio's cross-rank send/recv frames.
func (m *Mesh) MarshalBinary() ([]byte, error) {
	var buf []byte

	metaFrame, err := m.Meta.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf = appendFrame(buf, metaFrame)

	for _, e := range m.Extent {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(e))
		buf = append(buf, b[:]...)
	}

	for _, axis := range []variant.Array{m.X, m.Y, m.Z, m.T} {
		if axis == nil {
			buf = append(buf, axisAbsent)
			continue
		}
		buf = append(buf, axisPresent)
		f, err := axis.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf = appendFrame(buf, f)
	}

	names := m.Points.Names()
	var countB [8]byte
	binary.BigEndian.PutUint64(countB[:], uint64(len(names)))
	buf = append(buf, countB[:]...)
	for _, n := range names {
		buf = appendFrame(buf, []byte(n))
		a, _ := m.Points.Get(n)
		f, err := a.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf = appendFrame(buf, f)
	}

	return buf, nil
}

func appendFrame(buf, payload []byte) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(len(payload)))
	buf = append(buf, b[:]...)
	return append(buf, payload...)
}

type meshReader struct {
	buf []byte
	pos int
}

func (r *meshReader) readFrame() ([]byte, error) {
	if len(r.buf)-r.pos < 8 {
		return nil, errs.New(errs.OutOfRange, "mesh.decode", fmt.Errorf("unexpected end of frame"))
	}
	n := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	if uint64(len(r.buf)-r.pos) < n {
		return nil, errs.New(errs.OutOfRange, "mesh.decode", fmt.Errorf("unexpected end of frame"))
	}
	f := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return f, nil
}

func (r *meshReader) readByte() (byte, error) {
	if len(r.buf)-r.pos < 1 {
		return 0, errs.New(errs.OutOfRange, "mesh.decode", fmt.Errorf("unexpected end of frame"))
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *meshReader) readInt64() (int64, error) {
	if len(r.buf)-r.pos < 8 {
		return 0, errs.New(errs.OutOfRange, "mesh.decode", fmt.Errorf("unexpected end of frame"))
	}
	v := int64(binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8]))
	r.pos += 8
	return v, nil
}

// UnmarshalBinary decodes a frame produced by MarshalBinary into m,
// replacing its contents.
func (m *Mesh) UnmarshalBinary(b []byte) error {
	r := &meshReader{buf: b}

	metaFrame, err := r.readFrame()
	if err != nil {
		return err
	}
	m.Meta = metadata.New()
	if err := m.Meta.UnmarshalBinary(metaFrame); err != nil {
		return err
	}

	for i := range m.Extent {
		v, err := r.readInt64()
		if err != nil {
			return err
		}
		m.Extent[i] = v
	}

	axes := make([]*variant.Array, 4)
	for i := range axes {
		present, err := r.readByte()
		if err != nil {
			return err
		}
		if present == axisAbsent {
			continue
		}
		f, err := r.readFrame()
		if err != nil {
			return err
		}
		a, err := variant.UnmarshalBinaryArray(f)
		if err != nil {
			return err
		}
		axes[i] = &a
	}
	if axes[0] != nil {
		m.X = *axes[0]
	}
	if axes[1] != nil {
		m.Y = *axes[1]
	}
	if axes[2] != nil {
		m.Z = *axes[2]
	}
	if axes[3] != nil {
		m.T = *axes[3]
	}

	countFrame, err := r.readInt64()
	if err != nil {
		return err
	}
	m.Points = NewPointArrays()
	for i := int64(0); i < countFrame; i++ {
		nameFrame, err := r.readFrame()
		if err != nil {
			return err
		}
		arrFrame, err := r.readFrame()
		if err != nil {
			return err
		}
		a, err := variant.UnmarshalBinaryArray(arrFrame)
		if err != nil {
			return err
		}
		if err := m.Points.Add(string(nameFrame), a); err != nil {
			return err
		}
	}

	return nil
}
