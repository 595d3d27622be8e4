package classfile

import "github.com/classgraph/classgraph/pkg/collections"

// byteSlicePool reuses the scratch buffer DecodeModifiedUTF8 fills before
// copying it into the returned string, amortizing allocation across the
// thousands of UTF-8 constant-pool entries a typical classfile carries.
var byteSlicePool = collections.NewSlicePool[byte](128)

// Modified UTF-8 (JVM spec 4.4.7) differs from standard UTF-8 in exactly two
// ways that matter here: U+0000 is encoded as the two-byte overlong form
// 0xC0 0x80 instead of a single 0x00 byte, and characters outside the Basic
// Multilingual Plane are encoded as a pair of three-byte surrogates instead
// of one four-byte sequence. Every other code point already uses the same
// bytes as standard UTF-8, so decoding is mostly validation and pass-through
// rather than re-encoding: the returned Go string holds the same bytes as
// the input except for slash substitution and the two-byte U+0000, which
// decodes to a single 0x00 byte. Re-encoding that byte in its two-byte form
// reproduces the original constant-pool bytes exactly.

// DecodeModifiedUTF8 validates and decodes buf. When replaceSlashWithDot is
// true, every occurrence of the single-byte '/' is rewritten to '.' (the
// internal-name-to-dotted-name convention used throughout this package);
// a two-byte overlong encoding of '/', though never produced by a real
// compiler, is rewritten the same way so the substitution is total.
func DecodeModifiedUTF8(buf []byte, replaceSlashWithDot bool) (string, error) {
	outp := byteSlicePool.Get()
	defer byteSlicePool.Put(outp)
	out := (*outp)[:0]
	i := 0
	for i < len(buf) {
		b0 := buf[i]
		switch {
		case b0&0x80 == 0:
			if replaceSlashWithDot && b0 == '/' {
				out = append(out, '.')
			} else {
				out = append(out, b0)
			}
			i++
		case b0&0xE0 == 0xC0:
			if i+1 >= len(buf) {
				return "", malformed("truncated 2-byte modified UTF-8 sequence")
			}
			b1 := buf[i+1]
			if b1&0xC0 != 0x80 {
				return "", malformed("invalid modified UTF-8 continuation byte 0x%02x", b1)
			}
			cp := (rune(b0&0x1F) << 6) | rune(b1&0x3F)
			if cp == 0 {
				out = append(out, 0x00)
			} else if replaceSlashWithDot && cp == '/' {
				out = append(out, 0xC0|('.'>>6), 0x80|('.'&0x3F))
			} else {
				out = append(out, b0, b1)
			}
			i += 2
		case b0&0xF0 == 0xE0:
			if i+2 >= len(buf) {
				return "", malformed("truncated 3-byte modified UTF-8 sequence")
			}
			b1, b2 := buf[i+1], buf[i+2]
			if b1&0xC0 != 0x80 || b2&0xC0 != 0x80 {
				return "", malformed("invalid modified UTF-8 continuation bytes")
			}
			out = append(out, b0, b1, b2)
			i += 3
		default:
			return "", malformed("invalid modified UTF-8 lead byte 0x%02x", b0)
		}
	}
	return string(out), nil
}

// EqualsModifiedUTF8 reports whether buf decodes (without slash
// substitution) to exactly literal, without allocating a decoded string.
func EqualsModifiedUTF8(buf []byte, literal string) bool {
	i := 0
	for _, want := range literal {
		if i >= len(buf) {
			return false
		}
		b0 := buf[i]
		var cp rune
		var width int
		switch {
		case b0&0x80 == 0:
			cp, width = rune(b0), 1
		case b0&0xE0 == 0xC0:
			if i+1 >= len(buf) {
				return false
			}
			b1 := buf[i+1]
			if b1&0xC0 != 0x80 {
				return false
			}
			cp, width = (rune(b0&0x1F)<<6)|rune(b1&0x3F), 2
		case b0&0xF0 == 0xE0:
			if i+2 >= len(buf) {
				return false
			}
			b1, b2 := buf[i+1], buf[i+2]
			if b1&0xC0 != 0x80 || b2&0xC0 != 0x80 {
				return false
			}
			cp, width = (rune(b0&0x0F)<<12)|(rune(b1&0x3F)<<6)|rune(b2&0x3F), 3
		default:
			return false
		}
		if cp != want {
			return false
		}
		i += width
	}
	return i == len(buf)
}
