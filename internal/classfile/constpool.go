package classfile

import "math"

// Constant pool tags (JVM spec 4.4).
const (
	tagUTF8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagInvokeDynamic      = 18
)

// ConstantPool is the parsed constant-pool index: three parallel arrays
// keyed by constant-pool entry index, built once per classfile and reused
// across classfiles the way Reader's buffer is. It never materializes the
// pool's strings eagerly; string and value resolution happen lazily,
// on demand, via absolute-offset reads back into the Reader's buffer.
type ConstantPool struct {
	tag      []byte
	offset   []int   // payload offset (excluding the tag byte), -1 if unusable
	indirect []int32 // UTF-8 index a Class/String entry points at, -1 if unusable

	r *Reader
}

// NewConstantPool creates an empty, reusable constant pool index.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{}
}

func (cp *ConstantPool) reset(r *Reader, n int) {
	cp.r = r
	if cap(cp.tag) < n {
		cp.tag = make([]byte, n)
		cp.offset = make([]int, n)
		cp.indirect = make([]int32, n)
	} else {
		cp.tag = cp.tag[:n]
		cp.offset = cp.offset[:n]
		cp.indirect = cp.indirect[:n]
	}
	for i := range cp.tag {
		cp.tag[i] = 0
		cp.offset[i] = -1
		cp.indirect[i] = -1
	}
}

// parseEntries reads the constant_pool_count-1 entries starting at index 1,
// recording each entry's tag, payload offset, and (for Class/String) its
// indirect UTF-8 index, per the JVM's variable-width entry table. The Long
// and Double entries consume two constant-pool indices, as required by the
// spec; the unusable second slot is left zeroed.
func (cp *ConstantPool) parseEntries(r *Reader, count int) error {
	cp.reset(r, count)
	i := 1
	for i < count {
		tagByte, err := r.U8()
		if err != nil {
			return err
		}
		cp.tag[i] = tagByte
		cp.offset[i] = r.Pos()
		switch tagByte {
		case tagUTF8:
			length, err := r.U16()
			if err != nil {
				return err
			}
			if err := r.Skip(int(length)); err != nil {
				return err
			}
		case tagInteger, tagFloat:
			if err := r.Skip(4); err != nil {
				return err
			}
		case tagLong, tagDouble:
			if err := r.Skip(8); err != nil {
				return err
			}
			i++
		case tagClass, tagString:
			idx, err := r.U16()
			if err != nil {
				return err
			}
			cp.indirect[i] = int32(idx)
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagInvokeDynamic:
			if err := r.Skip(4); err != nil {
				return err
			}
		case tagMethodHandle:
			if err := r.Skip(3); err != nil {
				return err
			}
		case tagMethodType:
			if err := r.Skip(2); err != nil {
				return err
			}
		default:
			return malformed("unknown constant pool tag %d at index %d", tagByte, i)
		}
		i++
	}
	return nil
}

// String resolves entry i to a Go string. Tags 7 (Class) and 8 (String)
// resolve through their indirect UTF-8 index; tag 1 (UTF-8) decodes its
// payload directly. Any other tag is an error.
func (cp *ConstantPool) String(i int, replaceSlashWithDot bool) (string, error) {
	switch cp.tag[i] {
	case tagClass, tagString:
		return cp.String(int(cp.indirect[i]), replaceSlashWithDot)
	case tagUTF8:
		off := cp.offset[i]
		length, err := cp.r.U16At(off)
		if err != nil {
			return "", err
		}
		buf, err := cp.r.bytesAt(off+2, int(length))
		if err != nil {
			return "", err
		}
		return DecodeModifiedUTF8(buf, replaceSlashWithDot)
	default:
		return "", malformed("constant pool entry %d (tag %d) is not string-bearing", i, cp.tag[i])
	}
}

// StringEquals reports whether entry i resolves to exactly literal, without
// allocating a decoded string for the comparison. literal is never given
// with slashes needing substitution (attribute names are always already
// dotted-free, e.g. "ConstantValue"), so no replacement flag is needed.
func (cp *ConstantPool) StringEquals(i int, literal string) (bool, error) {
	switch cp.tag[i] {
	case tagClass, tagString:
		return cp.StringEquals(int(cp.indirect[i]), literal)
	case tagUTF8:
		off := cp.offset[i]
		length, err := cp.r.U16At(off)
		if err != nil {
			return false, err
		}
		buf, err := cp.r.bytesAt(off+2, int(length))
		if err != nil {
			return false, err
		}
		return EqualsModifiedUTF8(buf, literal), nil
	default:
		return false, nil
	}
}

// rawInt32 reads the 4-byte payload of an Integer entry.
func (cp *ConstantPool) rawInt32(i int) (int32, error) {
	if cp.tag[i] != tagInteger {
		return 0, unsupportedConstant("ConstantValue target at index %d is not an integer (tag %d)", i, cp.tag[i])
	}
	return cp.r.U32At(cp.offset[i])
}

// CoerceFieldConstant resolves constant-pool entry idx to a Constant typed
// according to descriptor's first character, the coercion the ConstantValue
// attribute requires: B/C/S/Z narrow an Integer entry, I/J/F/D are taken
// as-is from their matching tag, and "Ljava/lang/String;" resolves a String
// entry. Any other descriptor, or a tag that doesn't match what the
// descriptor implies, is a parse error.
func (cp *ConstantPool) CoerceFieldConstant(idx int, descriptor string) (Constant, error) {
	if descriptor == "" {
		return Constant{}, unsupportedConstant("ConstantValue on a field with an empty descriptor")
	}
	switch descriptor[0] {
	case 'B':
		v, err := cp.rawInt32(idx)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindInt8, Int8: int8(v)}, nil
	case 'C':
		v, err := cp.rawInt32(idx)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindChar, Char: uint16(v)}, nil
	case 'S':
		v, err := cp.rawInt32(idx)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindInt16, Int16: int16(v)}, nil
	case 'Z':
		v, err := cp.rawInt32(idx)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindBool, Bool: v != 0}, nil
	case 'I':
		v, err := cp.rawInt32(idx)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindInt32, Int32: v}, nil
	case 'J':
		if cp.tag[idx] != tagLong {
			return Constant{}, unsupportedConstant("ConstantValue target at index %d is not a long (tag %d)", idx, cp.tag[idx])
		}
		v, err := cp.r.I64At(cp.offset[idx])
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindInt64, Int64: v}, nil
	case 'F':
		if cp.tag[idx] != tagFloat {
			return Constant{}, unsupportedConstant("ConstantValue target at index %d is not a float (tag %d)", idx, cp.tag[idx])
		}
		raw, err := cp.r.U32At(cp.offset[idx])
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindFloat32, Float32: math.Float32frombits(uint32(raw))}, nil
	case 'D':
		if cp.tag[idx] != tagDouble {
			return Constant{}, unsupportedConstant("ConstantValue target at index %d is not a double (tag %d)", idx, cp.tag[idx])
		}
		raw, err := cp.r.I64At(cp.offset[idx])
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindFloat64, Float64: math.Float64frombits(uint64(raw))}, nil
	default:
		if descriptor != "Ljava/lang/String;" {
			return Constant{}, unsupportedConstant("ConstantValue on unsupported descriptor %q", descriptor)
		}
		if cp.tag[idx] != tagString {
			return Constant{}, unsupportedConstant("ConstantValue target at index %d is not a string (tag %d)", idx, cp.tag[idx])
		}
		s, err := cp.String(idx, false)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: KindString, Str: s}, nil
	}
}
