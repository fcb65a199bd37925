package hw

import (
	"math/rand/v2"
	"testing"
)

func TestAllOpcodesHaveNames(t *testing.T) {
	for code := range numOpcodes {
		name := code.String()
		if name == "" || name == "invalid" {
			t.Errorf("opcode %d has no name", code)
		}
		if got, ok := OpcodeByName(name); !ok || got != code {
			t.Errorf("OpcodeByName(%q) = %v, %t", name, got, ok)
		}
	}
}

// exec2 runs the 3 operands instruction code r0, x, y and returns r0.
func exec2(t *testing.T, code Opcode, x, y uint16) uint16 {
	t.Helper()

	cpu, _ := newTestCPU(t, "", uint16(code), r0, r1, r2)
	cpu.Regs[0] = 0xdead
	cpu.Regs[1] = x
	cpu.Regs[2] = y
	step(t, cpu, 1)
	return cpu.Regs[0]
}

func TestArithmeticProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	word := func() uint16 { return uint16(rng.IntN(Modulus)) }

	// Edge values first, then random ones.
	pairs := [][2]uint16{
		{0, 0}, {MaxWord, MaxWord}, {MaxWord, 1}, {1, MaxWord}, {0x4000, 2}, {12, 5},
	}
	for range 500 {
		pairs = append(pairs, [2]uint16{word(), word()})
	}

	for _, p := range pairs {
		x, y := p[0], p[1]

		if got, want := exec2(t, OpAdd, x, y), uint16((uint32(x)+uint32(y))%Modulus); got != want {
			t.Errorf("add %d %d = %d, want %d", x, y, got, want)
		}
		if got, want := exec2(t, OpMult, x, y), uint16((uint32(x)*uint32(y))%Modulus); got != want {
			t.Errorf("mult %d %d = %d, want %d", x, y, got, want)
		}
		if y != 0 {
			if got, want := exec2(t, OpMod, x, y), x%y; got != want {
				t.Errorf("mod %d %d = %d, want %d", x, y, got, want)
			}
		}
		if got, want := exec2(t, OpAnd, x, y), x&y; got != want {
			t.Errorf("and %d %d = %d, want %d", x, y, got, want)
		}
		if got, want := exec2(t, OpOr, x, y), x|y; got != want {
			t.Errorf("or %d %d = %d, want %d", x, y, got, want)
		}

		eq := exec2(t, OpEq, x, y)
		gt := exec2(t, OpGt, x, y)
		if eq > 1 || gt > 1 {
			t.Fatalf("eq/gt must store 0 or 1, got eq=%d gt=%d", eq, gt)
		}
		if (eq == 1) != (x == y) {
			t.Errorf("eq %d %d = %d", x, y, eq)
		}
		if (gt == 1) != (x > y) {
			t.Errorf("gt %d %d = %d", x, y, gt)
		}

		cpu, _ := newTestCPU(t, "", uint16(OpNot), r0, x)
		step(t, cpu, 1)
		wantReg(t, cpu, 0, ^x&0x7fff)
	}
}
