package pipeline

import (
	"github.com/mu-riscv/rv32pipe/pkg/isa"
)

// wb is the writeback stage. It retires the instruction in MEM/WB,
// writing its result to both the current and next register-file
// snapshots so that an ID in the same cycle observes the just-committed
// value (write-before-read).
func (e *Engine) wb() {
	if !e.memwb.RegWrite {
		if e.memwb.IR != 0 {
			e.instructionCount++
		}
		return
	}
	rd := isa.Rd(e.memwb.IR)
	var value uint32
	switch isa.Opcode(e.memwb.IR) {
	case isa.OpLoad:
		value = e.memwb.LMD
	default: // OpImm, OpR, OpJAL, OpJALR
		value = e.memwb.ALUOutput
	}
	if rd != 0 {
		e.current.Regs[rd] = value
		e.next.Regs[rd] = value
	}
	e.instructionCount++
}

// mem_ is the memory-access stage (trailing underscore: mem is the
// Engine's memory field).
func (e *Engine) mem_() {
	e.memwb.flush()
	e.memwb.IR = e.exmem.IR
	e.memwb.PC = e.exmem.PC
	e.memwb.ALUOutput = e.exmem.ALUOutput
	e.memwb.RegWrite = e.exmem.RegWrite

	switch isa.Opcode(e.exmem.IR) {
	case isa.OpLoad:
		e.memwb.LMD = e.load(e.exmem.ALUOutput, isa.Funct3(e.exmem.IR))
	case isa.OpStore:
		e.store(e.exmem.ALUOutput, e.exmem.B, isa.Funct3(e.exmem.IR))
	}
}

func (e *Engine) load(addr, funct3 uint32) uint32 {
	switch funct3 {
	case isa.F3Byte:
		v := e.mem.ReadByte(addr)
		return uint32(int32(int8(v)))
	case isa.F3Half:
		v := e.mem.ReadHalf(addr)
		return uint32(int32(int16(v)))
	case isa.F3Word:
		return e.mem.Read32(addr)
	case isa.F3ByteUnsigned:
		return e.mem.ReadByte(addr)
	case isa.F3HalfUnsigned:
		return e.mem.ReadHalf(addr)
	default:
		e.halt(ErrUnknownFunct)
		return 0
	}
}

func (e *Engine) store(addr, value, funct3 uint32) {
	switch funct3 {
	case isa.F3Byte:
		e.mem.WriteByte(addr, value)
	case isa.F3Half:
		e.mem.WriteHalf(addr, value)
	case isa.F3Word:
		e.mem.Write32(addr, value)
	default:
		e.halt(ErrUnknownFunct)
	}
}

// ex is the execute stage: ALU computation, address computation, and
// branch/jump resolution.
func (e *Engine) ex() {
	if e.ifid.JumpDetected {
		e.idex.flush()
		e.flushed = true
	}

	e.exmem.flush()
	e.exmem.IR = e.idex.IR
	e.exmem.PC = e.idex.PC
	e.exmem.RegWrite = e.idex.RegWrite

	switch isa.Opcode(e.idex.IR) {
	case isa.OpLoad, isa.OpStore:
		e.exmem.ALUOutput = e.idex.A + e.idex.Imm
		e.exmem.B = e.idex.B
	case isa.OpImm:
		e.exmem.ALUOutput = e.execOpImm()
	case isa.OpR:
		e.exmem.ALUOutput = e.execOpR()
	case isa.OpJAL:
		e.exmem.ALUOutput = e.idex.PC + 4
		e.next.PC = e.idex.PC + e.idex.Imm
		e.ifid.JumpStallCount = 1
		e.ifid.JumpDetected = true
	case isa.OpJALR:
		e.exmem.ALUOutput = e.idex.PC + 4
		e.next.PC = (e.idex.A + e.idex.Imm) &^ 1
		e.ifid.JumpStallCount = 1
		e.ifid.JumpDetected = true
	case isa.OpBranch:
		e.execBranch()
	default:
		if e.idex.IR != 0 {
			e.halt(ErrUnknownOpcode)
		}
	}
}

func (e *Engine) execOpImm() uint32 {
	a, imm := e.idex.A, e.idex.Imm
	switch isa.Funct3(e.idex.IR) {
	case isa.F3ADDSUB:
		return a + imm
	case isa.F3SLL:
		return a << (imm & 0x1F)
	case isa.F3XOR:
		return a ^ imm
	case isa.F3SRL_SRA:
		shamt := imm & 0x1F
		switch (imm >> 5) & 0x7F {
		case isa.Funct7Base:
			return a >> shamt
		case isa.Funct7Alt:
			return uint32(int32(a) >> shamt)
		default:
			e.halt(ErrUnknownFunct)
			return 0
		}
	case isa.F3OR:
		return a | imm
	case isa.F3AND:
		return a & imm
	default:
		e.halt(ErrUnknownFunct)
		return 0
	}
}

func (e *Engine) execOpR() uint32 {
	a, b := e.idex.A, e.idex.B
	funct3 := isa.Funct3(e.idex.IR)
	funct7 := isa.Funct7(e.idex.IR)
	shamt := b & 0x1F
	switch {
	case funct3 == isa.F3ADDSUB && funct7 == isa.Funct7Base:
		return a + b
	case funct3 == isa.F3ADDSUB && funct7 == isa.Funct7Alt:
		return a - b
	case funct3 == isa.F3SLL && funct7 == isa.Funct7Base:
		return a << shamt
	case funct3 == isa.F3XOR && funct7 == isa.Funct7Base:
		return a ^ b
	case funct3 == isa.F3SRL_SRA && funct7 == isa.Funct7Base:
		return a >> shamt
	case funct3 == isa.F3SRL_SRA && funct7 == isa.Funct7Alt:
		return uint32(int32(a) >> shamt)
	case funct3 == isa.F3OR && funct7 == isa.Funct7Base:
		return a | b
	case funct3 == isa.F3AND && funct7 == isa.Funct7Base:
		return a & b
	default:
		e.halt(ErrUnknownFunct)
		return 0
	}
}

func (e *Engine) execBranch() {
	a, b := e.idex.A, e.idex.B
	var taken bool
	switch isa.Funct3(e.idex.IR) {
	case isa.F3BEQ:
		taken = a == b
	case isa.F3BNE:
		taken = a != b
	case isa.F3BLT:
		taken = int32(a) < int32(b)
	case isa.F3BGE:
		taken = int32(a) >= int32(b)
	case isa.F3BLTU:
		taken = a < b
	case isa.F3BGEU:
		taken = a >= b
	default:
		e.halt(ErrUnknownFunct)
		return
	}
	if taken {
		e.next.PC = e.idex.PC + e.idex.Imm
		e.ifid.JumpDetected = true
	}
	e.ifid.JumpStallCount = 1
}

// id is the decode stage: operand fetch, immediate extraction, and
// hazard detection/forwarding.
func (e *Engine) id() {
	if e.ifid.JumpStallCount > 0 || e.ifid.JumpDetected {
		return
	}

	ins := e.ifid.IR
	e.idex.flush()
	e.idex.IR = e.ifid.IR
	e.idex.PC = e.ifid.PC

	switch isa.Opcode(ins) {
	case isa.OpR:
		rs1, rs2 := isa.Rs1(ins), isa.Rs2(ins)
		e.idex.A = e.current.Regs[rs1]
		e.idex.B = e.current.Regs[rs2]
		e.idex.RegWrite = true
		e.detectHazard(rs1, rs2)
	case isa.OpImm, isa.OpLoad, isa.OpJALR:
		rs1 := isa.Rs1(ins)
		e.idex.A = e.current.Regs[rs1]
		e.idex.Imm = isa.ImmI(ins)
		e.idex.RegWrite = true
		e.detectHazard(rs1, 0)
	case isa.OpStore:
		rs1, rs2 := isa.Rs1(ins), isa.Rs2(ins)
		e.idex.A = e.current.Regs[rs1]
		e.idex.B = e.current.Regs[rs2]
		e.idex.Imm = isa.ImmS(ins)
		e.idex.RegWrite = false
		e.detectHazard(rs1, rs2)
	case isa.OpBranch:
		rs1, rs2 := isa.Rs1(ins), isa.Rs2(ins)
		e.idex.A = e.current.Regs[rs1]
		e.idex.B = e.current.Regs[rs2]
		e.idex.Imm = isa.ImmB(ins)
		e.idex.RegWrite = false
		e.detectHazard(rs1, rs2)
	case isa.OpJAL:
		e.idex.Imm = isa.ImmJ(ins)
		e.idex.RegWrite = true
	}

	if e.ifid.StallCount > 0 {
		e.idex.flush()
	}
}

// detectHazard checks rs (and rt, when nonzero) against the destination
// registers in flight in EX/MEM and MEM/WB, forwarding or stalling as
// configured. rt == 0 means "no second source register to check."
func (e *Engine) detectHazard(rs, rt uint32) {
	exMemRd := isa.Rd(e.exmem.IR)
	memWbRd := isa.Rd(e.memwb.IR)

	e.detectOperand(&e.idex.A, rs, exMemRd, memWbRd)
	if rt != 0 {
		e.detectOperand(&e.idex.B, rt, exMemRd, memWbRd)
	}
}

func (e *Engine) detectOperand(operand *uint32, src, exMemRd, memWbRd uint32) {
	// Closer producer first: its result is in EX/MEM, one stage nearer
	// than anything in MEM/WB.
	exMemHazard := e.exmem.RegWrite && exMemRd != 0 && exMemRd == src
	if exMemHazard {
		if e.forwarding {
			if isa.Opcode(e.exmem.IR) == isa.OpLoad {
				// The load's result isn't computed yet: EX/MEM.ALUOutput
				// is still the memory address, not the loaded value,
				// which only exists in MEM/WB after mem_ runs. Stall one
				// cycle so the MEM/WB-hazard check below can forward LMD
				// once it's ready.
				e.ifid.StallCount = 1
			} else {
				*operand = e.exmem.ALUOutput
			}
		} else {
			e.ifid.StallCount = 3
		}
	}

	// Double-hazard avoidance: if the EX/MEM check above already claimed
	// this operand, the MEM/WB producer (further away, lower priority)
	// must not also forward to it.
	if e.memwb.RegWrite && memWbRd != 0 && !exMemHazard && memWbRd == src {
		if e.forwarding {
			// The producer sitting in MEM/WB is what decides whether LMD
			// or ALUOutput holds its result, not whatever instruction
			// happens to be passing through EX/MEM this cycle.
			if isa.Opcode(e.memwb.IR) == isa.OpLoad {
				*operand = e.memwb.LMD
			} else {
				*operand = e.memwb.ALUOutput
			}
		} else {
			e.ifid.StallCount = 2
		}
	}
}

// ifetch is the fetch stage.
func (e *Engine) ifetch() {
	if e.ifid.JumpStallCount > 0 {
		e.ifid.JumpStallCount--
		return
	}
	if e.ifid.JumpStallCount == 0 && e.ifid.JumpDetected {
		e.ifid.JumpDetected = false
	}
	if e.ifid.StallCount > 0 {
		e.ifid.StallCount--
		e.stalled = true
		return
	}
	e.ifid.IR = e.mem.Read32(e.current.PC)
	e.ifid.PC = e.current.PC
	e.next.PC = e.current.PC + 4
}
