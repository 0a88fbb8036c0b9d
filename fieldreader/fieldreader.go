package fieldreader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrEndOfBuffer is returned (wrapped in an *EOFError) when a read needs more bytes than remain.
var ErrEndOfBuffer = errors.New("end of buffer")

// A named field at a byte offset in the buffer. Every read records one of these so that
// format decoders can say exactly where something went wrong.
type Field struct {
	Name   string
	Offset int
}

// HexOffset formats the field offset as upper-case hex, padded to an even number of digits.
func (f Field) HexOffset() string {
	return FormatOffset(f.Offset)
}

func (f Field) String() string {
	return fmt.Sprintf("'%s' at offset %s", f.Name, f.HexOffset())
}

// FormatOffset formats a byte offset as "0x" followed by an even number of upper-case hex digits
// (0x06, 0x1A, 0x01A2).
func FormatOffset(offset int) string {
	digits := len(fmt.Sprintf("%X", offset))
	digits += digits % 2
	return fmt.Sprintf("0x%0*X", digits, offset)
}

// EOFError reports a read that ran off the end of the buffer.
type EOFError struct {
	Field Field
	Need  int // Number of bytes the read needed.
	Have  int // Number of bytes that were left.
}

func (e *EOFError) Error() string {
	return fmt.Sprintf("error reading field %s: end of buffer (need %d bytes, have %d)", e.Field, e.Need, e.Have)
}

func (e *EOFError) Unwrap() error {
	return ErrEndOfBuffer
}

// Reader is a forward-only cursor over a byte buffer.
// Fields must be read in the order they appear; there is no way to seek or rewind.
type Reader struct {
	data   []byte
	offset int
	last   Field
}

// New creates a reader positioned at the start of data.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the offset of the next read.
func (r *Reader) Offset() int {
	return r.offset
}

// Len returns the total size of the underlying buffer.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of bytes that have not been read yet.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

// Last returns the most recently attempted field, whether or not the read succeeded.
func (r *Reader) Last() Field {
	return r.last
}

// take claims the next n bytes for a field. On failure the cursor does not move.
func (r *Reader) take(name string, n int) ([]byte, error) {
	r.last = Field{Name: name, Offset: r.offset}
	if n < 0 || n > len(r.data)-r.offset {
		return nil, &EOFError{Field: r.last, Need: n, Have: len(r.data) - r.offset}
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *Reader) Int8(name string) (int8, error) {
	b, err := r.take(name, 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) Uint8(name string) (uint8, error) {
	b, err := r.take(name, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int16(name string, order binary.ByteOrder) (int16, error) {
	v, err := r.Uint16(name, order)
	return int16(v), err
}

func (r *Reader) Uint16(name string, order binary.ByteOrder) (uint16, error) {
	b, err := r.take(name, 2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (r *Reader) Int32(name string, order binary.ByteOrder) (int32, error) {
	v, err := r.Uint32(name, order)
	return int32(v), err
}

func (r *Reader) Uint32(name string, order binary.ByteOrder) (uint32, error) {
	b, err := r.take(name, 4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (r *Reader) Float32(name string, order binary.ByteOrder) (float32, error) {
	v, err := r.Uint32(name, order)
	return math.Float32frombits(v), err
}

func (r *Reader) Float64(name string, order binary.ByteOrder) (float64, error) {
	b, err := r.take(name, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(b)), nil
}

// String reads a fixed-length ISO-8859-1 string. Each byte maps to the code point of the same value.
func (r *Reader) String(name string, length int) (string, error) {
	b, err := r.take(name, length)
	if err != nil {
		return "", err
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), nil
}

// Skip consumes n bytes of padding.
func (r *Reader) Skip(name string, n int) error {
	_, err := r.take(name, n)
	return err
}
