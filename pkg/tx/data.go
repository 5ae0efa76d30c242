package tx

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-stake-accounts/pkg/types"
)

// ErrShortData is returned when instruction data ends before a field.
var ErrShortData = errors.New("instruction data too short")

// DataWriter appends little-endian instruction data fields.
type DataWriter struct {
	buf []byte
}

// NewData starts instruction data with the 4-byte instruction tag.
func NewData(tag uint32) *DataWriter {
	w := &DataWriter{}
	return w.Uint32(tag)
}

// Uint32 appends a 4-byte little-endian value.
func (w *DataWriter) Uint32(v uint32) *DataWriter {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

// Uint64 appends an 8-byte little-endian value.
func (w *DataWriter) Uint64(v uint64) *DataWriter {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

// Int64 appends an 8-byte little-endian two's complement value.
func (w *DataWriter) Int64(v int64) *DataWriter {
	return w.Uint64(uint64(v))
}

// Address appends a raw 20-byte address.
func (w *DataWriter) Address(a types.Address) *DataWriter {
	w.buf = append(w.buf, a[:]...)
	return w
}

// String appends a 4-byte length followed by the string bytes.
func (w *DataWriter) String(s string) *DataWriter {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

// Bytes returns the encoded data.
func (w *DataWriter) Bytes() []byte {
	return w.buf
}

// DataReader decodes fields written by DataWriter. The first error sticks;
// check Err once after reading all fields.
type DataReader struct {
	data []byte
	off  int
	err  error
}

// NewDataReader returns a reader over instruction data.
func NewDataReader(data []byte) *DataReader {
	return &DataReader{data: data}
}

func (r *DataReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data)-r.off < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortData, n, r.off, len(r.data)-r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Uint32 reads a 4-byte little-endian value.
func (r *DataReader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Uint64 reads an 8-byte little-endian value.
func (r *DataReader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Int64 reads an 8-byte little-endian two's complement value.
func (r *DataReader) Int64() int64 {
	return int64(r.Uint64())
}

// Address reads a raw 20-byte address.
func (r *DataReader) Address() types.Address {
	var a types.Address
	copy(a[:], r.take(types.AddressSize))
	return a
}

// String reads a length-prefixed string.
func (r *DataReader) String() string {
	n := r.Uint32()
	if r.err != nil {
		return ""
	}
	if uint64(n) > uint64(len(r.data)-r.off) {
		r.err = fmt.Errorf("%w: string length %d exceeds remaining %d", ErrShortData, n, len(r.data)-r.off)
		return ""
	}
	return string(r.take(int(n)))
}

// Err returns the first decoding error, or an error if bytes remain unread.
func (r *DataReader) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.data) {
		return fmt.Errorf("instruction data has %d trailing bytes", len(r.data)-r.off)
	}
	return nil
}
