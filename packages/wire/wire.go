package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxVstringLen is the longest string WriteVstring can encode
const MaxVstringLen = 0x7FFF

// ErrVarintOverflow is returned when a varint lead byte announces more bytes than an int32 holds
var ErrVarintOverflow = errors.New("overflow in varint")

// leading byte / 4 -> number of extra bytes following it
var intByteExtra = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // (00 - 3F)/4
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // (40 - 7F)/4
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // (80 - BF)/4
	2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 5, 6, // (C0 - FF)/4
}

// Writer writes the stream primitives, errors are sticky:
// once a write failed every later call is a no-op returning the same error
type Writer struct {
	bw  *bufio.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

func (w *Writer) Err() error { return w.err }

func (w *Writer) write(p []byte) error {
	if w.err != nil {
		return w.err
	}
	if _, err := w.bw.Write(p); err != nil {
		w.err = fmt.Errorf("in wire.Writer: %w", err)
	}
	return w.err
}

// WriteVarint writes x on 1 to 5 bytes, the high bits of the first byte
// telling how many bytes follow
func (w *Writer) WriteVarint(x int32) error {
	var b [5]byte
	binary.LittleEndian.PutUint32(b[1:], uint32(x))
	cnt := 4
	for cnt > 1 && b[cnt] == 0 {
		cnt--
	}
	bit := byte(1) << (8 - cnt)
	if b[cnt] >= bit {
		cnt++
		b[0] = ^(bit - 1)
	} else if cnt > 1 {
		b[0] = b[cnt] | ^(bit*2 - 1)
	} else {
		b[0] = b[cnt]
	}
	return w.write(b[:cnt])
}

func (w *Writer) WriteByte(c byte) error {
	return w.write([]byte{c})
}

func (w *Writer) WriteBuf(p []byte) error {
	return w.write(p)
}

// WriteVstring writes a length prefixed string, one length byte below 0x80, two otherwise
func (w *Writer) WriteVstring(s string) error {
	l := len(s)
	if l > MaxVstringLen {
		if w.err == nil {
			w.err = fmt.Errorf("in WriteVstring: length %d exceeds %d", l, MaxVstringLen)
		}
		return w.err
	}
	if l >= 0x80 {
		if err := w.write([]byte{byte(l/0x100) | 0x80, byte(l)}); err != nil {
			return err
		}
	} else if err := w.write([]byte{byte(l)}); err != nil {
		return err
	}
	return w.write([]byte(s))
}

func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.bw.Flush(); err != nil {
		w.err = fmt.Errorf("in wire.Writer.Flush: %w", err)
	}
	return w.err
}

// Reader reads what Writer writes, with the same sticky error policy
type Reader struct {
	br  *bufio.Reader
	err error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	r.err = fmt.Errorf("in wire.Reader: %w", err)
	return r.err
}

func (r *Reader) ReadByte() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	c, err := r.br.ReadByte()
	if err != nil {
		return 0, r.fail(err)
	}
	return c, nil
}

func (r *Reader) ReadBuf(n int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	p := make([]byte, n)
	if _, err := io.ReadFull(r.br, p); err != nil {
		return nil, r.fail(err)
	}
	return p, nil
}

func (r *Reader) ReadVarint() (int32, error) {
	ch, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	var b [5]byte
	extra := intByteExtra[ch/4]
	if extra == 0 {
		b[0] = ch
		return int32(binary.LittleEndian.Uint32(b[:4])), nil
	}
	if extra >= len(b) {
		return 0, r.fail(fmt.Errorf("%w: lead byte %#x", ErrVarintOverflow, ch))
	}
	bit := byte(1) << (8 - extra)
	if _, err := io.ReadFull(r.br, b[:extra]); err != nil {
		return 0, r.fail(err)
	}
	b[extra] = ch & (bit - 1)
	return int32(binary.LittleEndian.Uint32(b[:4])), nil
}

func (r *Reader) ReadVstring() (string, error) {
	c, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	l := int(c)
	if c&0x80 != 0 {
		c2, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		l = int(c&0x7F)*0x100 + int(c2)
	}
	if l == 0 {
		return "", nil
	}
	p, err := r.ReadBuf(l)
	if err != nil {
		return "", err
	}
	return string(p), nil
}
