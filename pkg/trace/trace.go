// Package trace defines the per-cycle event an external observer (a shell,
// a disassembler) can watch without the simulator core doing any
// formatting or printing of its own: a narrow data type the core reports
// to, never one it renders.
package trace

// Event describes what happened on a single cycle, from the fetch slot's
// point of view.
type Event struct {
	Cycle   uint64
	PC      uint32
	IR      uint32
	Stalled bool
	Flushed bool
}

// Sink receives one Event per cycle. A nil Sink means no tracing: the
// engine must not allocate or format anything when no sink is set.
type Sink func(Event)
