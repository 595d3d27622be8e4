package classfile_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgraph/classgraph/internal/classfile"
)

func TestReader_SequentialReads(t *testing.T) {
	data := []byte{0x01, 0x00, 0x02, 0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 0, 0, 0, 0, 1}
	r := classfile.NewReader()
	r.Reset(bytes.NewReader(data))

	b, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0002), u16)

	u32, err := r.U32()
	require.NoError(t, err)
	var wantU32 uint32 = 0xCAFEBABE
	assert.Equal(t, int32(wantU32), u32)

	i64, err := r.I64()
	require.NoError(t, err)
	assert.Equal(t, int64(1), i64)
}

func TestReader_UnexpectedEOF(t *testing.T) {
	r := classfile.NewReader()
	r.Reset(bytes.NewReader([]byte{0x01}))

	_, err := r.U8()
	require.NoError(t, err)

	_, err = r.U8()
	assert.ErrorIs(t, err, classfile.ErrUnexpectedEOF)
}

func TestReader_AbsoluteOffsetReads(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x11, 0x22}
	r := classfile.NewReader()
	r.Reset(bytes.NewReader(data))

	require.NoError(t, r.Skip(8))

	b, err := r.U8At(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), b)

	u16, err := r.U16At(4)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xEEFF), u16)
}

func TestReader_GrowPreservesAlreadyBufferedBytes(t *testing.T) {
	data := make([]byte, 32768)
	for i := range data {
		data[i] = byte(i % 256)
	}
	r := classfile.NewReader()
	r.Reset(bytes.NewReader(data))

	require.NoError(t, r.Skip(len(data)))

	b, err := r.U8At(0)
	require.NoError(t, err)
	assert.Equal(t, data[0], b)

	b, err = r.U8At(20000)
	require.NoError(t, err)
	assert.Equal(t, data[20000], b)
}

func TestReader_ResetReusesBuffer(t *testing.T) {
	r := classfile.NewReader()
	r.Reset(bytes.NewReader([]byte{1, 2, 3, 4}))
	_, _ = r.U32()

	r.Reset(bytes.NewReader([]byte{5, 6, 7, 8}))
	v, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, int32(0x05060708), v)
}
