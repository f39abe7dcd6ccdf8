// Package wire implements the little-endian integer, float, and string
// primitives shared by the TCPFormat and AppFormat codecs.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ReadU8 reads a single byte.
func ReadU8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadI8 reads a signed byte.
func ReadI8(r io.Reader) (int8, error) {
	v, err := ReadU8(r)
	return int8(v), err
}

// ReadBool reads a one-byte boolean (0 or 1).
func ReadBool(r io.Reader) (bool, error) {
	v, err := ReadU8(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadU16 reads a little-endian uint16.
func ReadU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadU32 reads a little-endian uint32.
func ReadU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadI32 reads a little-endian int32.
func ReadI32(r io.Reader) (int32, error) {
	v, err := ReadU32(r)
	return int32(v), err
}

// ReadF32 reads a little-endian IEEE-754 single precision float.
func ReadF32(r io.Reader) (float32, error) {
	v, err := ReadU32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads a little-endian IEEE-754 double precision float.
func ReadF64(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// ReadI64 reads a little-endian int64.
func ReadI64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

// ReadCString reads bytes until a NUL terminator, which is consumed but not
// included in the returned string.
func ReadCString(r io.ByteReader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0x00 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// ReadLPString reads a u32 length prefix followed by that many bytes of
// UTF-8 text, as used by AppFormat.
func ReadLPString(r io.Reader) (string, error) {
	n, err := ReadU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteU8 writes a single byte.
func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// WriteI8 writes a signed byte.
func WriteI8(w io.Writer, v int8) error {
	return WriteU8(w, uint8(v))
}

// WriteBool writes a one-byte boolean.
func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteU8(w, 1)
	}
	return WriteU8(w, 0)
}

// WriteU16 writes a little-endian uint16.
func WriteU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteU32 writes a little-endian uint32.
func WriteU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteI32 writes a little-endian int32.
func WriteI32(w io.Writer, v int32) error {
	return WriteU32(w, uint32(v))
}

// WriteF32 writes a little-endian IEEE-754 single precision float.
func WriteF32(w io.Writer, v float32) error {
	return WriteU32(w, math.Float32bits(v))
}

// WriteF64 writes a little-endian IEEE-754 double precision float.
func WriteF64(w io.Writer, v float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := w.Write(buf[:])
	return err
}

// WriteI64 writes a little-endian int64.
func WriteI64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

// WriteCString writes string bytes followed by a NUL terminator.
func WriteCString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	return WriteU8(w, 0x00)
}

// WriteLPString writes a u32 length prefix followed by the string bytes.
func WriteLPString(w io.Writer, s string) error {
	if err := WriteU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ErrTruncated wraps an underlying read error with the byte offset at which
// it occurred, used by codecs to report where a batch was cut short.
type ErrTruncated struct {
	Offset int
	Err    error
}

func (e *ErrTruncated) Error() string {
	return fmt.Sprintf("truncated at offset %d: %v", e.Offset, e.Err)
}

func (e *ErrTruncated) Unwrap() error { return e.Err }
