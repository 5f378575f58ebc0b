package pipeline

// IFID is the latch between fetch and decode. The control fields
// StallCount, JumpStallCount, and JumpDetected are logically attached to
// the fetch side of the pipeline, but live here alongside IR/PC since
// fetch is the stage that consumes and clears them.
type IFID struct {
	IR             uint32
	PC             uint32
	StallCount     uint8
	JumpStallCount uint8
	JumpDetected   bool
}

func (l *IFID) isBubble() bool { return l.IR == 0 }

// IDEX is the latch between decode and execute.
type IDEX struct {
	IR         uint32
	PC         uint32
	A          uint32
	B          uint32
	Imm        uint32
	ALUOutput  uint32
	LMD        uint32
	RegWrite   bool
}

func (l *IDEX) flush() { *l = IDEX{} }

// EXMEM is the latch between execute and memory.
type EXMEM struct {
	IR        uint32
	PC        uint32
	A         uint32
	B         uint32
	Imm       uint32
	ALUOutput uint32
	RegWrite  bool
}

func (l *EXMEM) flush() { *l = EXMEM{} }

// MEMWB is the latch between memory and writeback.
type MEMWB struct {
	IR        uint32
	PC        uint32
	ALUOutput uint32
	LMD       uint32
	RegWrite  bool
}

func (l *MEMWB) flush() { *l = MEMWB{} }
