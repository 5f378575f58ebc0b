package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadWriteRoundTrip(t *testing.T) {
	text := NewRegion("text", 0x00400000, 0x1000)
	data := NewRegion("data", 0x10000000, 0x1000)
	m := New(text, data)

	for _, addr := range []uint32{0x00400000, 0x00400004, 0x10000000, 0x10000ffc} {
		m.Write32(addr, 0xdeadbeef)
		assert.Equal(t, uint32(0xdeadbeef), m.Read32(addr))
	}
}

func TestLittleEndianLayout(t *testing.T) {
	text := NewRegion("text", 0x00400000, 0x10)
	m := New(text)
	m.Write32(0x00400000, 0x01020304)

	r := m.Region("text")
	assert.Equal(t, byte(0x04), r.bytes[0])
	assert.Equal(t, byte(0x03), r.bytes[1])
	assert.Equal(t, byte(0x02), r.bytes[2])
	assert.Equal(t, byte(0x01), r.bytes[3])
}

func TestUnmappedReadReturnsZero(t *testing.T) {
	m := New(NewRegion("text", 0x00400000, 0x10))
	assert.Equal(t, uint32(0), m.Read32(0x20000000))
}

func TestUnmappedWriteIsSilentlyDropped(t *testing.T) {
	m := New(NewRegion("text", 0x00400000, 0x10))
	assert.NotPanics(t, func() {
		m.Write32(0x20000000, 0x12345678)
	})
}

func TestResetZeroesAllRegions(t *testing.T) {
	text := NewRegion("text", 0x00400000, 0x10)
	m := New(text)
	m.Write32(0x00400000, 0xffffffff)
	m.Reset()
	assert.Equal(t, uint32(0), m.Read32(0x00400000))
}

func TestByteAndHalfwordStoresPreserveSurroundingBytes(t *testing.T) {
	m := New(NewRegion("data", 0x10000000, 0x10))
	m.Write32(0x10000000, 0xaabbccdd)

	m.WriteByte(0x10000001, 0xFF)
	assert.Equal(t, uint32(0xaabbffdd), m.Read32(0x10000000))

	m.Write32(0x10000000, 0xaabbccdd)
	m.WriteHalf(0x10000002, 0x1234)
	assert.Equal(t, uint32(0x1234ccdd), m.Read32(0x10000000))

	assert.Equal(t, uint32(0xdd), m.ReadByte(0x10000000))
	assert.Equal(t, uint32(0x1234), m.ReadHalf(0x10000002))
}
