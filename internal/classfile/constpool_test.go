package classfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSimplePool constructs a minimal constant pool with a single UTF-8
// entry at index 1 and a Class entry at index 2 pointing at it, followed by
// whatever extra entries the caller appends via extra.
func buildSimplePool(t *testing.T, utf8 string, extra func(buf *bytes.Buffer)) (*Reader, *ConstantPool) {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(tagUTF8)
	buf.Write([]byte{byte(len(utf8) >> 8), byte(len(utf8))})
	buf.WriteString(utf8)
	buf.WriteByte(tagClass)
	buf.Write([]byte{0x00, 0x01}) // index 1
	if extra != nil {
		extra(&buf)
	}

	r := NewReader()
	r.Reset(bytes.NewReader(buf.Bytes()))
	cp := NewConstantPool()
	return r, cp
}

func TestConstantPool_ClassAndUTF8Resolution(t *testing.T) {
	r, cp := buildSimplePool(t, "com/example/Widget", nil)
	require.NoError(t, cp.parseEntries(r, 3))

	name, err := cp.String(1, true)
	require.NoError(t, err)
	assert.Equal(t, "com.example.Widget", name)

	name, err = cp.String(2, true)
	require.NoError(t, err)
	assert.Equal(t, "com.example.Widget", name)
}

func TestConstantPool_StringEquals(t *testing.T) {
	r, cp := buildSimplePool(t, "ConstantValue", nil)
	require.NoError(t, cp.parseEntries(r, 3))

	eq, err := cp.StringEquals(1, "ConstantValue")
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = cp.StringEquals(1, "Signature")
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestConstantPool_StringOnNonStringTagErrors(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(tagInteger)
	buf.Write([]byte{0, 0, 0, 7})

	r := NewReader()
	r.Reset(bytes.NewReader(buf.Bytes()))
	cp := NewConstantPool()
	require.NoError(t, cp.parseEntries(r, 2))

	_, err := cp.String(1, false)
	assert.Error(t, err)
}

func TestConstantPool_LongAndDoubleConsumeTwoSlots(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(tagLong)
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 5})
	buf.WriteByte(tagInteger)
	buf.Write([]byte{0, 0, 0, 9})

	r := NewReader()
	r.Reset(bytes.NewReader(buf.Bytes()))
	cp := NewConstantPool()
	// count=4: index1=long (occupies 1&2), index3=integer
	require.NoError(t, cp.parseEntries(r, 4))

	assert.Equal(t, byte(tagLong), cp.tag[1])
	assert.Equal(t, byte(0), cp.tag[2])
	assert.Equal(t, byte(tagInteger), cp.tag[3])

	v, err := cp.rawInt32(3)
	require.NoError(t, err)
	assert.Equal(t, int32(9), v)
}

func TestConstantPool_UnknownTagIsMalformed(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0xFF)

	r := NewReader()
	r.Reset(bytes.NewReader(buf.Bytes()))
	cp := NewConstantPool()
	err := cp.parseEntries(r, 2)
	assert.Error(t, err)
}

func TestConstantPool_CoerceFieldConstant_Int(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(tagInteger)
	buf.Write([]byte{0, 0, 0, 42})

	r := NewReader()
	r.Reset(bytes.NewReader(buf.Bytes()))
	cp := NewConstantPool()
	require.NoError(t, cp.parseEntries(r, 2))

	c, err := cp.CoerceFieldConstant(1, "I")
	require.NoError(t, err)
	assert.Equal(t, KindInt32, c.Kind)
	assert.Equal(t, int32(42), c.Int32)
}

func TestConstantPool_CoerceFieldConstant_NarrowedFromInteger(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(tagInteger)
	buf.Write([]byte{0, 0, 0, 1}) // boolean true

	r := NewReader()
	r.Reset(bytes.NewReader(buf.Bytes()))
	cp := NewConstantPool()
	require.NoError(t, cp.parseEntries(r, 2))

	c, err := cp.CoerceFieldConstant(1, "Z")
	require.NoError(t, err)
	assert.Equal(t, KindBool, c.Kind)
	assert.True(t, c.Bool)
}

func TestConstantPool_CoerceFieldConstant_String(t *testing.T) {
	r, cp := buildSimplePool(t, "widget", func(buf *bytes.Buffer) {
		buf.WriteByte(tagString)
		buf.Write([]byte{0x00, 0x01}) // index 3 -> UTF-8 at index 1
	})
	require.NoError(t, cp.parseEntries(r, 4))

	c, err := cp.CoerceFieldConstant(3, "Ljava/lang/String;")
	require.NoError(t, err)
	assert.Equal(t, KindString, c.Kind)
	assert.Equal(t, "widget", c.Str)
}

func TestConstantPool_CoerceFieldConstant_TagMismatchErrors(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(tagInteger)
	buf.Write([]byte{0, 0, 0, 1})

	r := NewReader()
	r.Reset(bytes.NewReader(buf.Bytes()))
	cp := NewConstantPool()
	require.NoError(t, cp.parseEntries(r, 2))

	_, err := cp.CoerceFieldConstant(1, "J")
	assert.Error(t, err)
}

func TestConstantPool_CoerceFieldConstant_UnsupportedDescriptor(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(tagInteger)
	buf.Write([]byte{0, 0, 0, 1})

	r := NewReader()
	r.Reset(bytes.NewReader(buf.Bytes()))
	cp := NewConstantPool()
	require.NoError(t, cp.parseEntries(r, 2))

	_, err := cp.CoerceFieldConstant(1, "Lcom/example/Widget;")
	assert.Error(t, err)
}
