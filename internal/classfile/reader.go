package classfile

import (
	"encoding/binary"
	"io"
)

// Buffering contract (spec-fixed, not tunable): the initial fill attempts
// 16KiB in one shot; every subsequent top-up requests at least what is
// needed plus this much slack, amortizing the next few reads.
const (
	initialFill = 16384
	topUpMargin = 4096
)

// Reader is a reusable buffered big-endian reader over one classfile at a
// time. It mirrors internal/parser/hprof's Reader (fixed-width big-endian
// reads over a single buffered stream) but additionally supports
// absolute-offset reads into the already-buffered prefix, which the
// constant-pool indirections require, and caller-visible growth so those
// offsets stay valid across a top-up.
//
// A Reader is bound to one input per Reset call; curr and used are reset
// per file, but the backing array is kept and reused across files to
// amortize allocation.
type Reader struct {
	src  io.Reader
	buf  []byte
	used int // number of valid bytes in buf, starting at 0
	curr int // sequential read cursor, 0 <= curr <= used
}

// NewReader creates a Reader with no bound input; call Reset before using it.
func NewReader() *Reader {
	return &Reader{buf: make([]byte, initialFill)}
}

// Reset binds the reader to a new input stream and resets cursor state.
// It performs the initial best-effort fill of up to 16KiB; a stream
// shorter than that is not an error at this point, only once a read
// demands bytes that were never delivered.
func (r *Reader) Reset(src io.Reader) {
	r.src = src
	r.curr = 0
	r.used = 0
	if cap(r.buf) < initialFill {
		r.buf = make([]byte, initialFill)
	}
	r.buf = r.buf[:cap(r.buf)]
	for r.used < initialFill {
		n, err := r.src.Read(r.buf[r.used:initialFill])
		r.used += n
		if err != nil || n == 0 {
			break
		}
	}
}

// ensure guarantees that bytes [curr, curr+n) are buffered, growing and
// reading from src as needed. When it must grow, it grows the buffer to hold
// at least curr+n+topUpMargin bytes; each read then fills as much of the
// buffer's capacity as src supplies.
func (r *Reader) ensure(n int) error {
	need := r.curr + n
	if need <= r.used {
		return nil
	}
	if r.src == nil {
		return ErrUnexpectedEOF
	}
	want := need + topUpMargin
	if want > cap(r.buf) {
		r.grow(want)
	}
	for r.used < need {
		m, err := r.src.Read(r.buf[r.used:cap(r.buf)])
		r.used += m
		if m == 0 || err != nil {
			break
		}
	}
	if r.used < need {
		return ErrUnexpectedEOF
	}
	return nil
}

// grow doubles the buffer until it has at least min capacity, preserving
// every byte currently held so absolute offsets recorded before the growth
// remain valid.
func (r *Reader) grow(min int) {
	newCap := cap(r.buf)
	if newCap == 0 {
		newCap = initialFill
	}
	for newCap < min {
		newCap *= 2
	}
	grown := make([]byte, newCap)
	copy(grown, r.buf[:r.used])
	r.buf = grown
}

// U8 reads one unsigned byte and advances the cursor.
func (r *Reader) U8() (byte, error) {
	if err := r.ensure(1); err != nil {
		return 0, err
	}
	b := r.buf[r.curr]
	r.curr++
	return b, nil
}

// U16 reads a big-endian uint16 and advances the cursor.
func (r *Reader) U16() (uint16, error) {
	if err := r.ensure(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.curr : r.curr+2])
	r.curr += 2
	return v, nil
}

// U32 reads a big-endian 32-bit quantity, returned as a signed int32 (the
// classfile format never distinguishes int from uint at this width; callers
// needing a length or count cast back to int/uint32 themselves).
func (r *Reader) U32() (int32, error) {
	if err := r.ensure(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.curr : r.curr+4])
	r.curr += 4
	return int32(v), nil
}

// I64 reads a big-endian signed 64-bit quantity and advances the cursor.
func (r *Reader) I64() (int64, error) {
	if err := r.ensure(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.curr : r.curr+8])
	r.curr += 8
	return int64(v), nil
}

// Skip advances the cursor by n bytes without returning them; the bytes are
// still pulled into the buffer so later absolute-offset reads (e.g. a
// constant-pool entry located inside a skipped attribute, which cannot
// happen structurally but which the reader does not special-case) remain
// valid.
func (r *Reader) Skip(n int) error {
	if err := r.ensure(n); err != nil {
		return err
	}
	r.curr += n
	return nil
}

// Pos returns the current sequential cursor, usable as an absolute offset
// for a later *_At call (e.g. to record a constant-pool entry's payload
// offset before skipping past it).
func (r *Reader) Pos() int {
	return r.curr
}

// U8At reads an unsigned byte at an absolute offset into the already
// buffered prefix (offset < used, i.e. previously reached by the
// sequential cursor).
func (r *Reader) U8At(offset int) (byte, error) {
	if offset < 0 || offset+1 > r.used {
		return 0, ErrUnexpectedEOF
	}
	return r.buf[offset], nil
}

// U16At reads a big-endian uint16 at an absolute offset into the already
// buffered prefix.
func (r *Reader) U16At(offset int) (uint16, error) {
	if offset < 0 || offset+2 > r.used {
		return 0, ErrUnexpectedEOF
	}
	return binary.BigEndian.Uint16(r.buf[offset : offset+2]), nil
}

// U32At reads a big-endian int32 at an absolute offset into the already
// buffered prefix.
func (r *Reader) U32At(offset int) (int32, error) {
	if offset < 0 || offset+4 > r.used {
		return 0, ErrUnexpectedEOF
	}
	return int32(binary.BigEndian.Uint32(r.buf[offset : offset+4])), nil
}

// I64At reads a big-endian int64 at an absolute offset into the already
// buffered prefix.
func (r *Reader) I64At(offset int) (int64, error) {
	if offset < 0 || offset+8 > r.used {
		return 0, ErrUnexpectedEOF
	}
	return int64(binary.BigEndian.Uint64(r.buf[offset : offset+8])), nil
}

// bytesAt returns a read-only view of n bytes at an absolute offset into
// the already-buffered prefix, for the modified-UTF-8 decoder.
func (r *Reader) bytesAt(offset, n int) ([]byte, error) {
	if offset < 0 || offset+n > r.used {
		return nil, ErrUnexpectedEOF
	}
	return r.buf[offset : offset+n], nil
}
