// Package bitstream provides a read-only cursor over a byte buffer with
// bit-level positioning, in the style of python-bitstring's ConstBitStream.
// It knows nothing about save files.
package bitstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrTruncated   = errors.New("bitstream: read past end of stream")
	ErrOutOfBounds = errors.New("bitstream: seek out of bounds")
)

// Stream is a cursor over an immutable byte sequence. The position is held
// in bits so callers can mix bit- and byte-aligned addressing, though every
// read implemented here consumes whole bytes.
type Stream struct {
	data []byte
	pos  int64 // bit offset
}

// New wraps data in a Stream with the cursor at bit 0. The buffer is not
// copied; callers must not mutate it while the Stream is in use.
func New(data []byte) *Stream {
	return &Stream{data: data}
}

// Pos returns the current cursor position in bits.
func (s *Stream) Pos() int64 {
	return s.pos
}

// Len returns the length of the underlying buffer in bits.
func (s *Stream) Len() int64 {
	return int64(len(s.data)) * 8
}

// Seek moves the cursor to an absolute bit offset.
func (s *Stream) Seek(bitOffset int64) error {
	if bitOffset < 0 || bitOffset > s.Len() {
		return ErrOutOfBounds
	}
	s.pos = bitOffset
	return nil
}

// bytePos converts the bit cursor to a byte index. Reads are byte-aligned:
// a cursor mid-byte rounds down, matching the byte-aligned layout of every
// structure this package is used to read.
func (s *Stream) bytePos() int64 {
	return s.pos / 8
}

// ReadBytes returns the next n bytes and advances the cursor by n*8 bits.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrOutOfBounds
	}
	start := s.bytePos()
	if start+int64(n) > int64(len(s.data)) {
		return nil, ErrTruncated
	}
	out := s.data[start : start+int64(n)]
	s.pos = (start + int64(n)) * 8
	return out, nil
}

// ReadUint32LE reads a 4-byte little-endian unsigned integer.
func (s *Stream) ReadUint32LE() (uint32, error) {
	b, err := s.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadString reads a u32le length prefix followed by that many bytes of
// UTF-8. Invalid byte sequences are replaced with U+FFFD rather than
// failing, since the text fields this decodes may hold locale-dependent or
// corrupted bytes.
func (s *Stream) ReadString() (string, error) {
	length, err := s.ReadUint32LE()
	if err != nil {
		return "", err
	}
	b, err := s.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	return decodeUTF8Lossy(b), nil
}

// FindAll returns the bit offsets of every non-overlapping, byte-aligned
// occurrence of pattern in the whole stream, in ascending order. The cursor
// is left untouched.
func (s *Stream) FindAll(pattern []byte) []int64 {
	var offsets []int64
	if len(pattern) == 0 {
		return offsets
	}
	for i := 0; i+len(pattern) <= len(s.data); {
		j := bytes.Index(s.data[i:], pattern)
		if j < 0 {
			break
		}
		offsets = append(offsets, int64(i+j)*8)
		i += j + len(pattern)
	}
	return offsets
}

func decodeUTF8Lossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r) // r is utf8.RuneError for invalid sequences
		b = b[size:]
	}
	return sb.String()
}
