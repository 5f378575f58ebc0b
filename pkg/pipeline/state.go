package pipeline

// NumRegisters is the number of general-purpose architectural registers.
// Register 0 (x0) is hardwired to zero; the engine enforces this by never
// committing a write whose destination is 0 rather than clamping the
// register after the fact.
const NumRegisters = 32

// RegisterFile is one snapshot of the architectural state: the general
// purpose registers, the program counter, and the legacy HI/LO scratch
// registers carried for shell compatibility (unused by the pipeline
// itself).
type RegisterFile struct {
	Regs [NumRegisters]uint32
	PC   uint32
	HI   uint32
	LO   uint32
}

func (r *RegisterFile) reset() {
	*r = RegisterFile{}
}
