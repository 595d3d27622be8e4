package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
)

// ClassfileBuilder hand-assembles a minimal, well-formed JVM classfile byte
// stream for use as a parser fixture, avoiding any dependency on a real
// javac toolchain. Entries are pushed onto the constant pool in the order
// they are added, mirroring the variable-width, 1-indexed layout
// internal/classfile/constpool.go expects.
type ClassfileBuilder struct {
	pool        [][]byte // each entry is tag byte + payload, index 0 unused
	accessFlags uint16
	thisClass   uint16
	superClass  uint16
	interfaces  []uint16
	fields      []fieldEntry
	annotations []uint16 // constant pool indices of annotation type descriptors
}

type fieldEntry struct {
	accessFlags      uint16
	nameIdx          uint16
	descIdx          uint16
	signatureIdx     uint16 // 0 if none
	constantValueIdx uint16 // 0 if none
}

// NewClassfileBuilder creates a builder for a class named dottedName (plain
// class, not an interface or annotation).
func NewClassfileBuilder(dottedName string) *ClassfileBuilder {
	b := &ClassfileBuilder{pool: [][]byte{nil}, accessFlags: 0x0021} // ACC_PUBLIC|ACC_SUPER
	b.thisClass = b.addClass(dottedName)
	return b
}

// AsInterface marks the class as an interface (ACC_INTERFACE|ACC_ABSTRACT).
func (b *ClassfileBuilder) AsInterface() *ClassfileBuilder {
	b.accessFlags |= 0x0200 | 0x0400
	return b
}

// AsAnnotation marks the class as an annotation type (ACC_ANNOTATION implies
// ACC_INTERFACE too, per the JVM spec).
func (b *ClassfileBuilder) AsAnnotation() *ClassfileBuilder {
	b.accessFlags |= 0x2000 | 0x0200 | 0x0400
	return b
}

// WithSuperclass sets this_class's superclass by dotted name.
func (b *ClassfileBuilder) WithSuperclass(dottedName string) *ClassfileBuilder {
	b.superClass = b.addClass(dottedName)
	return b
}

// WithInterface adds one implemented interface by dotted name.
func (b *ClassfileBuilder) WithInterface(dottedName string) *ClassfileBuilder {
	b.interfaces = append(b.interfaces, b.addClass(dottedName))
	return b
}

// WithAnnotation adds one class-level RuntimeVisibleAnnotations entry for
// the annotation type named by dottedName.
func (b *ClassfileBuilder) WithAnnotation(dottedName string) *ClassfileBuilder {
	desc := b.addUTF8("L" + toSlashes(dottedName) + ";")
	b.annotations = append(b.annotations, desc)
	return b
}

// FieldOptions configures one field added via WithField.
type FieldOptions struct {
	Public    bool
	Static    bool
	Final     bool
	Signature string // generic Signature attribute payload, empty if none
	// ConstantValue, when Kind is set, adds a ConstantValue attribute. Only
	// one of the typed fields is read, selected by Kind (mirrors
	// classfile.Constant).
	ConstantKind string // "int", "long", "float", "double", "string", "bool", "byte", "short", "char", or "" for none
	IntValue     int32
	LongValue    int64
	FloatValue   float32
	DoubleValue  float64
	StringValue  string
	BoolValue    bool
}

// WithField adds one field of the given descriptor (e.g. "Ljava/lang/String;",
// "I") and name.
func (b *ClassfileBuilder) WithField(name, descriptor string, opts FieldOptions) *ClassfileBuilder {
	var flags uint16
	if opts.Public {
		flags |= 0x0001
	}
	if opts.Static {
		flags |= 0x0008
	}
	if opts.Final {
		flags |= 0x0010
	}

	fe := fieldEntry{
		accessFlags: flags,
		nameIdx:     b.addUTF8(name),
		descIdx:     b.addUTF8(descriptor),
	}
	if opts.Signature != "" {
		fe.signatureIdx = b.addUTF8(opts.Signature)
	}
	switch opts.ConstantKind {
	case "int", "byte", "short", "char", "bool":
		fe.constantValueIdx = b.addInteger(opts.IntValue)
	case "long":
		fe.constantValueIdx = b.addLong(opts.LongValue)
	case "float":
		fe.constantValueIdx = b.addFloat(opts.FloatValue)
	case "double":
		fe.constantValueIdx = b.addDouble(opts.DoubleValue)
	case "string":
		fe.constantValueIdx = b.addString(opts.StringValue)
	}
	b.fields = append(b.fields, fe)
	return b
}

func toSlashes(dotted string) string {
	out := make([]byte, len(dotted))
	for i := 0; i < len(dotted); i++ {
		if dotted[i] == '.' {
			out[i] = '/'
		} else {
			out[i] = dotted[i]
		}
	}
	return string(out)
}

func (b *ClassfileBuilder) addUTF8(s string) uint16 {
	payload := make([]byte, 2+len(s))
	binary.BigEndian.PutUint16(payload, uint16(len(s)))
	copy(payload[2:], s)
	return b.push(1, payload)
}

func (b *ClassfileBuilder) addClass(dottedName string) uint16 {
	nameIdx := b.addUTF8(toSlashes(dottedName))
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, nameIdx)
	return b.push(7, payload)
}

func (b *ClassfileBuilder) addString(s string) uint16 {
	utf8Idx := b.addUTF8(s)
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, utf8Idx)
	return b.push(8, payload)
}

func (b *ClassfileBuilder) addInteger(v int32) uint16 {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(v))
	return b.push(3, payload)
}

func (b *ClassfileBuilder) addFloat(v float32) uint16 {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, math.Float32bits(v))
	return b.push(4, payload)
}

func (b *ClassfileBuilder) addLong(v int64) uint16 {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, uint64(v))
	idx := b.push(5, payload)
	b.pool = append(b.pool, nil) // longs/doubles occupy two pool slots
	return idx
}

func (b *ClassfileBuilder) addDouble(v float64) uint16 {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, math.Float64bits(v))
	idx := b.push(6, payload)
	b.pool = append(b.pool, nil)
	return idx
}

func (b *ClassfileBuilder) push(tag byte, payload []byte) uint16 {
	entry := append([]byte{tag}, payload...)
	b.pool = append(b.pool, entry)
	return uint16(len(b.pool) - 1)
}

// Bytes assembles the full classfile byte stream.
func (b *ClassfileBuilder) Bytes() []byte {
	var buf bytes.Buffer

	// Attribute names must be in the pool before the pool is written.
	for _, f := range b.fields {
		if f.signatureIdx != 0 {
			b.findOrAddAttrName("Signature")
		}
		if f.constantValueIdx != 0 {
			b.findOrAddAttrName("ConstantValue")
		}
	}
	if len(b.annotations) > 0 {
		b.findOrAddAttrName("RuntimeVisibleAnnotations")
	}

	binary.Write(&buf, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&buf, binary.BigEndian, uint16(0)) // minor
	binary.Write(&buf, binary.BigEndian, uint16(52)) // major (Java 8)

	binary.Write(&buf, binary.BigEndian, uint16(len(b.pool)))
	for i := 1; i < len(b.pool); i++ {
		if b.pool[i] == nil {
			continue // second slot of a long/double
		}
		buf.Write(b.pool[i])
	}

	binary.Write(&buf, binary.BigEndian, b.accessFlags)
	binary.Write(&buf, binary.BigEndian, b.thisClass)
	binary.Write(&buf, binary.BigEndian, b.superClass)

	binary.Write(&buf, binary.BigEndian, uint16(len(b.interfaces)))
	for _, idx := range b.interfaces {
		binary.Write(&buf, binary.BigEndian, idx)
	}

	binary.Write(&buf, binary.BigEndian, uint16(len(b.fields)))
	for _, f := range b.fields {
		binary.Write(&buf, binary.BigEndian, f.accessFlags)
		binary.Write(&buf, binary.BigEndian, f.nameIdx)
		binary.Write(&buf, binary.BigEndian, f.descIdx)

		attrCount := 0
		if f.signatureIdx != 0 {
			attrCount++
		}
		if f.constantValueIdx != 0 {
			attrCount++
		}
		binary.Write(&buf, binary.BigEndian, uint16(attrCount))

		if f.signatureIdx != 0 {
			sigNameIdx := b.findOrAddAttrName("Signature")
			binary.Write(&buf, binary.BigEndian, sigNameIdx)
			binary.Write(&buf, binary.BigEndian, uint32(2))
			binary.Write(&buf, binary.BigEndian, f.signatureIdx)
		}
		if f.constantValueIdx != 0 {
			cvNameIdx := b.findOrAddAttrName("ConstantValue")
			binary.Write(&buf, binary.BigEndian, cvNameIdx)
			binary.Write(&buf, binary.BigEndian, uint32(2))
			binary.Write(&buf, binary.BigEndian, f.constantValueIdx)
		}
	}

	binary.Write(&buf, binary.BigEndian, uint16(0)) // methods_count

	if len(b.annotations) == 0 {
		binary.Write(&buf, binary.BigEndian, uint16(0)) // attributes_count
	} else {
		binary.Write(&buf, binary.BigEndian, uint16(1))
		rvaNameIdx := b.findOrAddAttrName("RuntimeVisibleAnnotations")

		var annoBuf bytes.Buffer
		binary.Write(&annoBuf, binary.BigEndian, uint16(len(b.annotations)))
		for _, descIdx := range b.annotations {
			binary.Write(&annoBuf, binary.BigEndian, descIdx) // type_index
			binary.Write(&annoBuf, binary.BigEndian, uint16(0)) // num_element_value_pairs
		}

		binary.Write(&buf, binary.BigEndian, rvaNameIdx)
		binary.Write(&buf, binary.BigEndian, uint32(annoBuf.Len()))
		buf.Write(annoBuf.Bytes())
	}

	return buf.Bytes()
}

// findOrAddAttrName avoids duplicate UTF-8 pool entries for repeated
// attribute names across fields (Signature, ConstantValue).
func (b *ClassfileBuilder) findOrAddAttrName(name string) uint16 {
	target := []byte(name)
	for i := 1; i < len(b.pool); i++ {
		entry := b.pool[i]
		if entry == nil || entry[0] != 1 {
			continue
		}
		length := binary.BigEndian.Uint16(entry[1:3])
		if int(length) != len(target) {
			continue
		}
		if bytes.Equal(entry[3:3+length], target) {
			return uint16(i)
		}
	}
	return b.addUTF8(name)
}
