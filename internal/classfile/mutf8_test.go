package classfile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgraph/classgraph/internal/classfile"
)

func TestDecodeModifiedUTF8_ASCII(t *testing.T) {
	s, err := classfile.DecodeModifiedUTF8([]byte("com/example/Widget"), true)
	require.NoError(t, err)
	assert.Equal(t, "com.example.Widget", s)
}

func TestDecodeModifiedUTF8_NoSlashSubstitution(t *testing.T) {
	s, err := classfile.DecodeModifiedUTF8([]byte("com/example/Widget"), false)
	require.NoError(t, err)
	assert.Equal(t, "com/example/Widget", s)
}

func TestDecodeModifiedUTF8_OverlongNUL(t *testing.T) {
	s, err := classfile.DecodeModifiedUTF8([]byte{0xC0, 0x80}, false)
	require.NoError(t, err)
	assert.Equal(t, "\x00", s)
}

func TestDecodeModifiedUTF8_ThreeByteSequencePreserved(t *testing.T) {
	// U+20AC (Euro sign) in standard 3-byte UTF-8.
	input := []byte{0xE2, 0x82, 0xAC}
	s, err := classfile.DecodeModifiedUTF8(input, false)
	require.NoError(t, err)
	assert.Equal(t, "€", s)
}

func TestDecodeModifiedUTF8_TruncatedSequence(t *testing.T) {
	_, err := classfile.DecodeModifiedUTF8([]byte{0xC0}, false)
	assert.Error(t, err)
}

func TestDecodeModifiedUTF8_InvalidContinuation(t *testing.T) {
	_, err := classfile.DecodeModifiedUTF8([]byte{0xC0, 0x00}, false)
	assert.Error(t, err)
}

func TestDecodeModifiedUTF8_InvalidLeadByte(t *testing.T) {
	_, err := classfile.DecodeModifiedUTF8([]byte{0xFF}, false)
	assert.Error(t, err)
}

func TestEqualsModifiedUTF8_Match(t *testing.T) {
	assert.True(t, classfile.EqualsModifiedUTF8([]byte("ConstantValue"), "ConstantValue"))
}

func TestEqualsModifiedUTF8_Mismatch(t *testing.T) {
	assert.False(t, classfile.EqualsModifiedUTF8([]byte("ConstantValue"), "Signature"))
}

func TestEqualsModifiedUTF8_PrefixIsNotEqual(t *testing.T) {
	assert.False(t, classfile.EqualsModifiedUTF8([]byte("ConstantValueX"), "ConstantValue"))
}
