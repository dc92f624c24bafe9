package element_test

import (
	"testing"

	"github.com/Alia5/hidtree/element"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBitsByteAligned(t *testing.T) {
	src := []byte{0x12, 0x34, 0x56, 0x78}
	dst := make([]uint32, 1)

	changed := element.ReadBits(src, dst, 16, 8, false)
	require.True(t, changed)
	assert.Equal(t, uint32(0x5634), dst[0])

	changed = element.ReadBits(src, dst, 16, 8, false)
	assert.False(t, changed, "re-reading the same bits reports no change")
}

func TestReadBitsUnaligned(t *testing.T) {
	// 0b11110000 0b00001111 -> reading 8 bits starting at bit 4 yields 0xFF
	src := []byte{0xF0, 0x0F}
	dst := make([]uint32, 1)

	element.ReadBits(src, dst, 8, 4, false)
	assert.Equal(t, uint32(0xFF), dst[0])
}

func TestReadBitsSignExtend(t *testing.T) {
	// 6-bit field, value 0b100000 (-32 in 6-bit two's complement)
	src := []byte{0b00100000}
	dst := make([]uint32, 1)

	element.ReadBits(src, dst, 6, 0, true)
	assert.Equal(t, int32(-32), int32(dst[0]))
}

func TestWriteBitsByteAligned(t *testing.T) {
	src := []uint32{0x1234}
	dst := make([]byte, 4)

	element.WriteBits(src, dst, 16, 8)
	assert.Equal(t, []byte{0x00, 0x34, 0x12, 0x00}, dst)
}

func TestWriteBitsUnalignedOrsIntoDestination(t *testing.T) {
	src := []uint32{0x0F}
	dst := []byte{0b00000001}

	element.WriteBits(src, dst, 4, 4)
	assert.Equal(t, byte(0b11110001), dst[0])
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	dst := make([]byte, 8)
	element.WriteBits([]uint32{0x3FF}, dst, 10, 13)

	out := make([]uint32, 1)
	element.ReadBits(dst, out, 10, 13, false)
	assert.Equal(t, uint32(0x3FF), out[0])
}

func TestMulOverflows(t *testing.T) {
	assert.False(t, element.MulOverflows(0, 0xFFFFFFFF))
	assert.False(t, element.MulOverflows(100, 100))
	assert.True(t, element.MulOverflows(0xFFFFFFFF, 2))
}
