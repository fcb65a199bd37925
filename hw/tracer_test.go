package hw

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestTraceFormat(t *testing.T) {
	want := []string{
		`0000  add 0x8000 0x8001 0x3c    R0:0000 R1:0002 R2:0000 R3:0000 R4:0000 R5:0000 R6:0000 R7:0000 S:0 CYC:0`,
		`0004  push 0x8000               R0:003E R1:0002 R2:0000 R3:0000 R4:0000 R5:0000 R6:0000 R7:0000 S:0 CYC:1`,
		`0006  halt                      R0:003E R1:0002 R2:0000 R3:0000 R4:0000 R5:0000 R6:0000 R7:0000 S:1 CYC:2`,
	}

	var out bytes.Buffer
	cpu, _ := newTestCPU(t, "", 9, r0, r1, 60, 2, r0, 0)
	cpu.Regs[1] = 2
	cpu.SetTraceOutput(&out)
	run(t, cpu)

	wantstr := strings.Join(want, "\n") + "\n"
	if out.String() != wantstr {
		t.Fatalf("trace differs\ngot:\n%s\nwant:\n%s\n", out.String(), wantstr)
	}
}

func BenchmarkTraceFormat(b *testing.B) {
	cpu := NewCPU(nil, nil)
	tr := tracer{w: io.Discard}
	op := Op{Code: OpAdd, Args: [3]uint16{r0, r1, 60}}

	for range b.N {
		tr.write(cpu, op)
	}
}
