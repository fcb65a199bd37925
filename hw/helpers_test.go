package hw

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"synacor/emu/log"
)

func init() {
	log.Disable()
}

// register references, for readability.
const (
	r0 = RegBase + iota
	r1
	r2
	r3
	r4
	r5
	r6
	r7
)

/* cpu specific testing helpers */

// newTestCPU returns a cpu with prog loaded at address 0, reading input from
// the given string. It also returns the buffer receiving the output.
func newTestCPU(t *testing.T, input string, prog ...uint16) (*CPU, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	cpu := NewCPU(strings.NewReader(input), &out)
	if err := cpu.LoadProgram(prog); err != nil {
		t.Fatal(err)
	}
	return cpu, &out
}

func run(t *testing.T, cpu *CPU) {
	t.Helper()

	if err := cpu.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func step(t *testing.T, cpu *CPU, n int) {
	t.Helper()

	for range n {
		if err := cpu.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
}

func wantReg(t *testing.T, cpu *CPU, idx int, want uint16) {
	t.Helper()

	if got := cpu.Regs[idx]; got != want {
		t.Errorf("r%d = $%04X want $%04X", idx, got, want)
	}
}

func wantPC(t *testing.T, cpu *CPU, want uint16) {
	t.Helper()

	if cpu.PC != want {
		t.Errorf("PC = $%04X want $%04X", cpu.PC, want)
	}
}

func wantFault(t *testing.T, err error, target error) *Fault {
	t.Helper()

	var f *Fault
	if !errors.As(err, &f) {
		t.Fatalf("got error %v, want a *Fault", err)
	}
	if !errors.Is(err, target) {
		t.Fatalf("got fault %v, want %v", err, target)
	}
	return f
}
