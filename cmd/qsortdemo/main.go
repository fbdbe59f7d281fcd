// Command qsortdemo assembles a small in-place bubble sort written in
// 68000 assembly, runs it on the machine package's bus/device framework
// and cpu68k core, and prints the sorted array.
package main

import (
	"fmt"
	"log"

	asm "github.com/jenska/m68kasm"

	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/machine"
)

const (
	stackPointer = 0x8000
	startAddress = 0x2000
	arrayBase    = 0x4000
	arrayLen     = 10
)

const program = `
        LEA $4000,A0
        MOVEQ #9,D7
outer:  LEA $4000,A1
        MOVEQ #9,D6
inner:  MOVE.L (A1),D0
        MOVE.L 4(A1),D1
        CMP.L D1,D0
        BLE.S noswap
        MOVE.L D1,(A1)
        MOVE.L D0,4(A1)
noswap: ADDQ.L #4,A1
        SUBQ.W #1,D6
        BNE.S inner
        SUBQ.W #1,D7
        BNE.S outer
        NOP
`

func main() {
	code, err := asm.AssembleString(program)
	if err != nil {
		log.Fatalf("assemble bubble sort: %v", err)
	}

	m, err := machine.New(machine.Config{DefaultQuantum: 10000})
	if err != nil {
		log.Fatalf("construct machine: %v", err)
	}
	if err := m.Bus().AddMemory(0, 0x10000, true, nil, "ram"); err != nil {
		log.Fatalf("map ram: %v", err)
	}

	write := func(addr uint32, width bus.Width, value uint32) {
		if err := m.Bus().Write(addr, width, value); err != nil {
			log.Fatalf("write %#x: %v", addr, err)
		}
	}
	write(0, bus.Width32, stackPointer)
	write(4, bus.Width32, startAddress)
	for i, b := range code {
		write(startAddress+uint32(i), bus.Width8, uint32(b))
	}

	unsorted := []int32{5, 3, 8, 1, 9, 2, 7, 4, 6, 0}
	for i, v := range unsorted {
		write(arrayBase+uint32(i*4), bus.Width32, uint32(v))
	}

	if err := m.Reset(); err != nil {
		log.Fatalf("reset: %v", err)
	}

	endPC := startAddress + uint32(len(code))
	var steps int
	for steps = 0; steps < 100000; steps++ {
		lastPC := m.CPU().Registers().PC
		if err := m.CPU().Step(); err != nil {
			log.Fatalf("execution failed at PC %#04x: %v", lastPC, err)
		}
		if m.CPU().Registers().PC >= endPC {
			break
		}
	}
	if steps == 100000 {
		log.Fatalf("bubble sort did not reach the end of the program; PC=%#04x", m.CPU().Registers().PC)
	}

	fmt.Printf("Sorted array at %#04x:\n", arrayBase)
	for i := 0; i < arrayLen; i++ {
		v, err := m.Bus().Read(arrayBase+uint32(i*4), bus.Width32)
		if err != nil {
			log.Fatalf("read sorted value %d: %v", i, err)
		}
		fmt.Printf("a[%d] = %d\n", i, int32(v))
	}
	fmt.Printf("Completed in %d instructions (%d cycles)\n", steps+1, m.CPU().Cycles())
}
