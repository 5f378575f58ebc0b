package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeAddiImmediate(t *testing.T) {
	// addi x1, x0, 5
	f := Decode(0x00500093)
	assert.Equal(t, uint32(OpImm), f.Opcode)
	assert.Equal(t, uint32(1), f.Rd)
	assert.Equal(t, uint32(F3ADDSUB), f.Funct3)
	assert.Equal(t, uint32(0), f.Rs1)
	assert.Equal(t, uint32(5), f.Imm)
}

func TestDecodeNegativeImmediateSignExtends(t *testing.T) {
	// addi x1, x0, -1  -> imm field all ones
	ins := uint32(0xFFF00093)
	f := Decode(ins)
	assert.Equal(t, uint32(0xFFFFFFFF), f.Imm)
}

func TestDecodeLoadByte(t *testing.T) {
	// lb x1, 0(x0)
	f := Decode(0x00000083)
	assert.Equal(t, uint32(OpLoad), f.Opcode)
	assert.Equal(t, uint32(F3Byte), f.Funct3)
	assert.Equal(t, uint32(0), f.Imm)
}

func TestDecodeStoreImmediate(t *testing.T) {
	// sw x1, 4(x2) -> opcode 0x23, funct3 2, rs1=2, rs2=1, imm=4
	ins := uint32(0)
	ins |= uint32(OpStore)
	ins |= (4 & 0x1F) << 7 // imm[4:0] = 4
	ins |= uint32(F3Word) << 12
	ins |= uint32(2) << 15 // rs1
	ins |= uint32(1) << 20 // rs2
	// imm[11:5] = 0
	f := Decode(ins)
	assert.Equal(t, uint32(OpStore), f.Opcode)
	assert.Equal(t, uint32(2), f.Rs1)
	assert.Equal(t, uint32(1), f.Rs2)
	assert.Equal(t, uint32(4), f.Imm)
}

func TestDecodeBranchTaken(t *testing.T) {
	// beq x1, x2, 8
	f := Decode(0x00208463)
	assert.Equal(t, uint32(OpBranch), f.Opcode)
	assert.Equal(t, uint32(F3BEQ), f.Funct3)
	assert.Equal(t, uint32(1), f.Rs1)
	assert.Equal(t, uint32(2), f.Rs2)
	assert.Equal(t, uint32(8), f.Imm)
}

func TestDecodeJalImmediate(t *testing.T) {
	// jal x1, +8
	f := Decode(0x008000ef)
	assert.Equal(t, uint32(OpJAL), f.Opcode)
	assert.Equal(t, uint32(1), f.Rd)
	assert.Equal(t, uint32(8), f.Imm)
}

func TestImmBIsAlwaysEven(t *testing.T) {
	for ins := uint32(0); ins < 0x1000; ins += 0x123 {
		full := (ins &^ 0x7F) | OpBranch
		imm := ImmB(full)
		assert.Equal(t, uint32(0), imm&1)
	}
}

func TestSignExtendNegativeJImmediate(t *testing.T) {
	// jal x0, -2: bit20=1, bits19_12=all1, bit11=1, bits10_1=all1
	ins := uint32(0xFFFFF06F)
	imm := ImmJ(ins)
	assert.Equal(t, int32(-2), int32(imm))
}
