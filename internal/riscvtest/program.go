// Package riscvtest provides small test fixtures for pkg/pipeline's test
// suite: assembling literal RV32I words and turning a
// list of them into the hex-per-line program text the engine's loader
// expects.
package riscvtest

import "strings"

// Program renders a list of 32-bit instruction words as the newline
// separated hex text LoadProgram expects, one word per line.
func Program(words ...uint32) string {
	var b strings.Builder
	for _, w := range words {
		b.WriteString(hex32(w))
		b.WriteByte('\n')
	}
	return b.String()
}

func hex32(w uint32) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = digits[w&0xF]
		w >>= 4
	}
	return string(buf)
}

// ADDI encodes addi rd, rs1, imm (imm is a signed 12-bit value).
func ADDI(rd, rs1 uint32, imm int32) uint32 {
	return rType(0x13, rd, 0, rs1, uint32(imm)&0xFFF)
}

// XORI/ORI/ANDI/SLLI/SRLI/SRAI all share the OP-IMM opcode; these helpers
// cover the three shift forms.
func SLLI(rd, rs1, shamt uint32) uint32 { return immShift(0x13, 1, rd, rs1, shamt, 0) }
func SRLI(rd, rs1, shamt uint32) uint32 { return immShift(0x13, 5, rd, rs1, shamt, 0x00) }
func SRAI(rd, rs1, shamt uint32) uint32 { return immShift(0x13, 5, rd, rs1, shamt, 0x20) }

func immShift(opcode, funct3, rd, rs1, shamt, funct7 uint32) uint32 {
	var ins uint32
	ins |= opcode & 0x7F
	ins |= (rd & 0x1F) << 7
	ins |= (funct3 & 0x7) << 12
	ins |= (rs1 & 0x1F) << 15
	ins |= (shamt & 0x1F) << 20
	ins |= (funct7 & 0x7F) << 25
	return ins
}

func rType(opcode, rd, funct3, rs1, imm12 uint32) uint32 {
	var ins uint32
	ins |= opcode & 0x7F
	ins |= (rd & 0x1F) << 7
	ins |= (funct3 & 0x7) << 12
	ins |= (rs1 & 0x1F) << 15
	ins |= (imm12 & 0xFFF) << 20
	return ins
}

// ADD encodes add rd, rs1, rs2.
func ADD(rd, rs1, rs2 uint32) uint32 { return alu(rd, 0, rs1, rs2, 0) }

// SUB encodes sub rd, rs1, rs2.
func SUB(rd, rs1, rs2 uint32) uint32 { return alu(rd, 0, rs1, rs2, 0x20) }

func alu(rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	var ins uint32
	ins |= 0x33
	ins |= (rd & 0x1F) << 7
	ins |= (funct3 & 0x7) << 12
	ins |= (rs1 & 0x1F) << 15
	ins |= (rs2 & 0x1F) << 20
	ins |= (funct7 & 0x7F) << 25
	return ins
}

// LB/LW encode loads: rd, offset(rs1).
func LB(rd, rs1 uint32, offset int32) uint32 { return load(rd, 0, rs1, offset) }
func LW(rd, rs1 uint32, offset int32) uint32 { return load(rd, 2, rs1, offset) }

func load(rd, funct3, rs1 uint32, offset int32) uint32 {
	return rType(0x03, rd, funct3, rs1, uint32(offset)&0xFFF)
}

// SW encodes sw rs2, offset(rs1).
func SW(rs2, rs1 uint32, offset int32) uint32 {
	imm := uint32(offset) & 0xFFF
	var ins uint32
	ins |= 0x23
	ins |= (imm & 0x1F) << 7
	ins |= uint32(2) << 12 // funct3 = word
	ins |= (rs1 & 0x1F) << 15
	ins |= (rs2 & 0x1F) << 20
	ins |= ((imm >> 5) & 0x7F) << 25
	return ins
}

// BEQ encodes beq rs1, rs2, offset (offset must be a multiple of 2).
func BEQ(rs1, rs2 uint32, offset int32) uint32 { return branch(0, rs1, rs2, offset) }

func branch(funct3, rs1, rs2 uint32, offset int32) uint32 {
	imm := uint32(offset)
	bit11 := (imm >> 11) & 0x1
	bit12 := (imm >> 12) & 0x1
	bits4_1 := (imm >> 1) & 0xF
	bits10_5 := (imm >> 5) & 0x3F
	var ins uint32
	ins |= 0x63
	ins |= bit11 << 7
	ins |= bits4_1 << 8
	ins |= (funct3 & 0x7) << 12
	ins |= (rs1 & 0x1F) << 15
	ins |= (rs2 & 0x1F) << 20
	ins |= bits10_5 << 25
	ins |= bit12 << 31
	return ins
}

// JAL encodes jal rd, offset.
func JAL(rd uint32, offset int32) uint32 {
	imm := uint32(offset)
	bit20 := (imm >> 20) & 0x1
	bits10_1 := (imm >> 1) & 0x3FF
	bit11 := (imm >> 11) & 0x1
	bits19_12 := (imm >> 12) & 0xFF
	var ins uint32
	ins |= 0x6F
	ins |= (rd & 0x1F) << 7
	ins |= bits19_12 << 12
	ins |= bit11 << 20
	ins |= bits10_1 << 21
	ins |= bit20 << 31
	return ins
}

// JALR encodes jalr rd, offset(rs1).
func JALR(rd, rs1 uint32, offset int32) uint32 {
	return rType(0x67, rd, 0, rs1, uint32(offset)&0xFFF)
}
