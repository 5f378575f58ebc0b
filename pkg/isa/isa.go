// Package isa decodes RV32I instruction words into their constituent
// fields and sign-extended immediates. Decode is pure and total: every
// 32-bit word has a well-defined set of fields, regardless of whether its
// opcode is one this simulator understands.
package isa

// Opcode values for the RV32I subset this simulator implements.
const (
	OpR      = 0x33 // register-register ALU ops
	OpImm    = 0x13 // register-immediate ALU ops
	OpLoad   = 0x03 // LB/LH/LW/LBU/LHU
	OpStore  = 0x23 // SB/SH/SW
	OpBranch = 0x63 // BEQ/BNE/BLT/BGE/BLTU/BGEU
	OpJAL    = 0x6F
	OpJALR   = 0x67
)

// funct3 values for OP-IMM / OP. F3SLT/F3SLTU are decoded but SLT/SLTU
// are not among the opcodes EX implements.
const (
	F3ADDSUB  = 0x0
	F3SLL     = 0x1
	F3SLT     = 0x2
	F3SLTU    = 0x3
	F3XOR     = 0x4
	F3SRL_SRA = 0x5
	F3OR      = 0x6
	F3AND     = 0x7
)

// funct3 values for BRANCH.
const (
	F3BEQ  = 0x0
	F3BNE  = 0x1
	F3BLT  = 0x4
	F3BGE  = 0x5
	F3BLTU = 0x6
	F3BGEU = 0x7
)

// funct3 values for LOAD/STORE.
const (
	F3Byte         = 0x0 // LB / SB
	F3Half         = 0x1 // LH / SH
	F3Word         = 0x2 // LW / SW
	F3ByteUnsigned = 0x4 // LBU
	F3HalfUnsigned = 0x5 // LHU
)

// funct7 values distinguishing ADD/SUB and SRL/SRA.
const (
	Funct7Base = 0x00
	Funct7Alt  = 0x20
)

// Fields holds every field a RV32I instruction word decodes to, plus the
// sign-extended immediate appropriate to its format.
type Fields struct {
	Opcode uint32
	Rd     uint32
	Funct3 uint32
	Rs1    uint32
	Rs2    uint32
	Funct7 uint32
	Imm    uint32
}

// Opcode extracts bits [6:0].
func Opcode(ins uint32) uint32 { return ins & 0x7F }

// Rd extracts bits [11:7].
func Rd(ins uint32) uint32 { return (ins >> 7) & 0x1F }

// Funct3 extracts bits [14:12].
func Funct3(ins uint32) uint32 { return (ins >> 12) & 0x7 }

// Rs1 extracts bits [19:15].
func Rs1(ins uint32) uint32 { return (ins >> 15) & 0x1F }

// Rs2 extracts bits [24:20].
func Rs2(ins uint32) uint32 { return (ins >> 20) & 0x1F }

// Funct7 extracts bits [31:25].
func Funct7(ins uint32) uint32 { return (ins >> 25) & 0x7F }

// signExtend sign-extends the low `bits` bits of v to a full 32-bit value.
func signExtend(v uint32, bits uint) uint32 {
	shift := 32 - bits
	return uint32(int32(v<<shift) >> shift)
}

// ImmI decodes the I-type immediate: sext(ins[31:20], 12).
func ImmI(ins uint32) uint32 {
	return signExtend(ins>>20, 12)
}

// ImmS decodes the S-type immediate: sext(ins[31:25]<<5 | ins[11:7], 12).
func ImmS(ins uint32) uint32 {
	v := ((ins >> 25) << 5) | ((ins >> 7) & 0x1F)
	return signExtend(v, 12)
}

// ImmB decodes the B-type immediate. Bit 0 is always 0.
func ImmB(ins uint32) uint32 {
	bit12 := (ins >> 31) & 0x1
	bit11 := (ins >> 7) & 0x1
	bits10_5 := (ins >> 25) & 0x3F
	bits4_1 := (ins >> 8) & 0xF
	v := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return signExtend(v, 13)
}

// ImmJ decodes the J-type immediate using the canonical RV32I bit
// assembly (bit 20, bits 19:12, bit 11, bits 10:1, in that field order).
func ImmJ(ins uint32) uint32 {
	bit20 := (ins >> 31) & 0x1
	bits19_12 := (ins >> 12) & 0xFF
	bit11 := (ins >> 20) & 0x1
	bits10_1 := (ins >> 21) & 0x3FF
	v := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return signExtend(v, 21)
}

// Decode extracts every field of ins and the immediate appropriate to its
// format. Opcodes this simulator doesn't recognize still decode their raw
// fields; it is up to the caller (the EX stage) to treat an unsupported
// opcode/funct combination as fatal.
func Decode(ins uint32) Fields {
	f := Fields{
		Opcode: Opcode(ins),
		Rd:     Rd(ins),
		Funct3: Funct3(ins),
		Rs1:    Rs1(ins),
		Rs2:    Rs2(ins),
		Funct7: Funct7(ins),
	}
	switch f.Opcode {
	case OpImm, OpLoad, OpJALR:
		f.Imm = ImmI(ins)
	case OpStore:
		f.Imm = ImmS(ins)
	case OpBranch:
		f.Imm = ImmB(ins)
	case OpJAL:
		f.Imm = ImmJ(ins)
	}
	return f
}
