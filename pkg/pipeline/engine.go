// Package pipeline implements the five-stage in-order RV32I pipeline: the
// architectural state, the inter-stage latches, the stage functions, and
// the cycle driver that ties them together.
package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mu-riscv/rv32pipe/pkg/memory"
	"github.com/mu-riscv/rv32pipe/pkg/trace"
)

// The following errors may be reported by an Engine.
var (
	// ErrUnknownOpcode indicates EX was asked to execute an opcode this
	// simulator does not implement. This is fatal: Run/RunAll stop after
	// the cycle in which it is raised; instructions still in flight are
	// not drained.
	ErrUnknownOpcode = errors.New("pipeline: unknown opcode")

	// ErrUnknownFunct indicates EX (or MEM, for a load/store) recognized
	// the opcode but not the funct3/funct7 combination. Also fatal.
	ErrUnknownFunct = errors.New("pipeline: unknown funct3/funct7 combination")

	// ErrNoProgram is returned by Run/RunAll if LoadProgram was never
	// called.
	ErrNoProgram = errors.New("pipeline: no program loaded")
)

// Default memory region layout, inherited from the codebase this
// simulator is derived from.
const (
	TextBase  = 0x00400000
	DataBase  = 0x10000000
	StackBase = 0x7FFFFFF0
)

// Engine is one pipeline simulator instance: architectural state, the
// four inter-stage latches, and the memory it executes against. An Engine
// is not goroutine-safe; a single goroutine should drive it between
// cycles.
type Engine struct {
	mem *memory.Memory

	current RegisterFile
	next    RegisterFile

	ifid  IFID
	idex  IDEX
	exmem EXMEM
	memwb MEMWB

	cycleCount       uint64
	instructionCount uint64
	programSize      uint32
	running          bool
	fault            error
	forwarding       bool
	stalled          bool
	flushed          bool

	textBase uint32
	sink     trace.Sink
}

// NewEngine builds an Engine with the default text/data/stack region
// layout and forwarding enabled. textSize, dataSize, and stackSize are in
// bytes.
func NewEngine(textSize, dataSize, stackSize uint32) *Engine {
	text := memory.NewRegion("text", TextBase, textSize)
	data := memory.NewRegion("data", DataBase, dataSize)
	stack := memory.NewRegion("stack", StackBase-stackSize+1, stackSize)
	e := &Engine{
		mem:        memory.New(text, data, stack),
		forwarding: true,
		textBase:   TextBase,
	}
	e.Initialize()
	return e
}

// Initialize zeroes memory (including any program image already loaded),
// the register file, and the four latches, and sets the PC to the text
// base. The cycle and instruction counters are left unchanged.
func (e *Engine) Initialize() {
	e.mem.Reset()
	e.current.reset()
	e.current.PC = e.textBase
	e.next = e.current
	e.ifid = IFID{}
	e.idex = IDEX{}
	e.exmem = EXMEM{}
	e.memwb = MEMWB{}
	e.running = true
	e.fault = nil
}

// Memory exposes the engine's memory subsystem, primarily for tests and
// for a shell's memory-dump commands.
func (e *Engine) Memory() *memory.Memory { return e.mem }

// SetTraceSink installs (or clears, with nil) the per-cycle trace sink.
func (e *Engine) SetTraceSink(sink trace.Sink) { e.sink = sink }

// SetForwarding enables or disables EX/MEM and MEM/WB data forwarding.
// Must only be called between cycles, never mid-Step.
func (e *Engine) SetForwarding(enabled bool) { e.forwarding = enabled }

// Forwarding reports whether data forwarding is currently enabled.
func (e *Engine) Forwarding() bool { return e.forwarding }

// SetRegister sets general-purpose register n in both the current and
// next snapshots, e.g. to seed an argument before running a program.
func (e *Engine) SetRegister(n int, v uint32) {
	if n <= 0 || n >= NumRegisters {
		return
	}
	e.current.Regs[n] = v
	e.next.Regs[n] = v
}

// ReadRegister returns the current value of general-purpose register n.
func (e *Engine) ReadRegister(n int) uint32 {
	if n < 0 || n >= NumRegisters {
		return 0
	}
	return e.current.Regs[n]
}

// SetHi sets the legacy HI scratch register.
func (e *Engine) SetHi(v uint32) { e.current.HI = v; e.next.HI = v }

// SetLo sets the legacy LO scratch register.
func (e *Engine) SetLo(v uint32) { e.current.LO = v; e.next.LO = v }

// PC returns the current program counter.
func (e *Engine) PC() uint32 { return e.current.PC }

// CycleCount returns the number of cycles the cycle driver has executed.
func (e *Engine) CycleCount() uint64 { return e.cycleCount }

// InstructionCount returns the number of instructions retired through WB.
func (e *Engine) InstructionCount() uint64 { return e.instructionCount }

// ProgramSize returns the number of 32-bit words loaded by LoadProgram.
func (e *Engine) ProgramSize() uint32 { return e.programSize }

// Running reports whether the engine may still make progress: false once
// the pipeline has drained or a fatal decode error halted it.
func (e *Engine) Running() bool { return e.running }

// Fault returns the error that caused the engine to halt abnormally, or
// nil if it is still running or drained normally.
func (e *Engine) Fault() error { return e.fault }

// ReadMemoryWord reads a 32-bit word from memory.
func (e *Engine) ReadMemoryWord(addr uint32) uint32 { return e.mem.Read32(addr) }

// IFIDLatch, IDEXLatch, EXMEMLatch, MEMWBLatch return copies of the
// pipeline latches, for inspection between cycles.
func (e *Engine) IFIDLatch() IFID   { return e.ifid }
func (e *Engine) IDEXLatch() IDEX   { return e.idex }
func (e *Engine) EXMEMLatch() EXMEM { return e.exmem }
func (e *Engine) MEMWBLatch() MEMWB { return e.memwb }

// LoadProgram reads a text file containing one 32-bit instruction per
// line, written as a hexadecimal integer with an optional trailing
// comment, and writes each word into the text region starting at its
// base address. It returns the number of words loaded.
func (e *Engine) LoadProgram(r io.Reader) (uint32, error) {
	scanner := bufio.NewScanner(r)
	var count uint32
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexAny(line, "#;"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		word, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return count, fmt.Errorf("pipeline: malformed program word on line %d: %w", count+1, err)
		}
		e.mem.Write32(e.textBase+count*4, uint32(word))
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	e.programSize = count
	return count, nil
}

// Reset zeroes all memory and the register file, reloads the program
// image at the text base, and resets the counters. r should be the same
// program source previously handed to LoadProgram, or nil to reset state
// without reloading.
func (e *Engine) Reset(r io.Reader) error {
	e.mem.Reset()
	e.current.reset()
	e.next.reset()
	e.ifid = IFID{}
	e.idex = IDEX{}
	e.exmem = EXMEM{}
	e.memwb = MEMWB{}
	e.cycleCount = 0
	e.instructionCount = 0
	e.fault = nil
	if r != nil {
		if _, err := e.LoadProgram(r); err != nil {
			return err
		}
	}
	e.current.PC = e.textBase
	e.next = e.current
	e.running = true
	return nil
}

// halt marks the engine as no longer able to make progress, recording err
// if this is a fault rather than a normal drain.
func (e *Engine) halt(err error) {
	e.running = false
	if err != nil && e.fault == nil {
		e.fault = err
	}
}

// Step runs exactly one cycle: WB, MEM, EX, ID, IF in that order, then
// commits next into current and advances CYCLE_COUNT.
func (e *Engine) Step() {
	if !e.running {
		return
	}
	e.stalled = false
	e.flushed = false
	e.wb()
	e.mem_()
	e.ex()
	e.id()
	e.ifetch()

	if e.ifid.isBubble() && e.idex.IR == 0 && e.exmem.IR == 0 && e.memwb.IR == 0 {
		e.halt(nil)
	}

	e.current = e.next
	e.cycleCount++

	if e.sink != nil {
		e.sink(trace.Event{
			Cycle:   e.cycleCount,
			PC:      e.current.PC,
			IR:      e.ifid.IR,
			Stalled: e.stalled,
			Flushed: e.flushed,
		})
	}
}

// Run executes up to n cycles, stopping early if the engine stops
// running (drained or faulted). It returns ErrNoProgram if no program has
// ever been loaded.
func (e *Engine) Run(n int) error {
	if e.programSize == 0 {
		return ErrNoProgram
	}
	for i := 0; i < n && e.running; i++ {
		e.Step()
	}
	return nil
}

// RunAll executes cycles until the engine stops running.
func (e *Engine) RunAll() error {
	if e.programSize == 0 {
		return ErrNoProgram
	}
	for e.running {
		e.Step()
	}
	return nil
}
