package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mu-riscv/rv32pipe/pkg/pipeline"
	"github.com/mu-riscv/rv32pipe/pkg/trace"
)

func main() {
	log.SetFlags(0)
	filename := flag.String("f", "", "program file to run (one hex instruction word per line)")
	verbose := flag.Bool("v", false, "log PC and IR each cycle")
	forwarding := flag.Bool("forward", true, "enable EX/MEM and MEM/WB data forwarding")
	maxCycles := flag.Int("n", 0, "stop after this many cycles (0 means run to completion)")
	flag.Parse()
	if *filename == "" {
		log.Fatal("usage: rv32pipe [-v] [-forward=false] [-n cycles] -f <program-file>")
	}

	fp, err := os.Open(*filename)
	if err != nil {
		log.Fatal(err)
	}
	defer fp.Close()

	e := pipeline.NewEngine(1<<20, 1<<20, 1<<16)
	e.SetForwarding(*forwarding)
	n, err := e.LoadProgram(fp)
	if err != nil {
		log.Fatal(err)
	}
	if *verbose {
		log.Printf("rv32pipe: loaded %d instruction words from %s", n, *filename)
		e.SetTraceSink(func(ev trace.Event) {
			log.Printf("rv32pipe: cycle=%d pc=%#08x ir=%#08x", ev.Cycle, ev.PC, ev.IR)
		})
	}

	if *maxCycles > 0 {
		err = e.Run(*maxCycles)
	} else {
		err = e.RunAll()
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrNoProgram) {
			log.Fatal(err)
		}
		log.Fatal(err)
	}

	if fault := e.Fault(); fault != nil {
		log.Fatalf("rv32pipe: halted on fault: %v", fault)
	}

	fmt.Printf("cycles=%d instructions=%d pc=%#08x\n", e.CycleCount(), e.InstructionCount(), e.PC())
	for i := 1; i < pipeline.NumRegisters; i++ {
		if v := e.ReadRegister(i); v != 0 {
			fmt.Printf("x%-2d = %#010x (%d)\n", i, v, int32(v))
		}
	}
}
