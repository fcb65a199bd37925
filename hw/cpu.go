package hw

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"synacor/emu/log"
)

type CPU struct {
	Mem   [MemSize]uint16
	Regs  [NumRegs]uint16
	Stack []uint16
	PC    uint16

	in  io.ByteReader
	out io.Writer

	// Result of an input read left pending by an interrupted in.
	pending chan readResult

	// Set while Run executes, so that blocking input can be interrupted.
	ctx context.Context

	// Non-nil when execution tracing is enabled.
	tracer *tracer
	dbg    Debugger

	// Number of executed instructions.
	Cycles int64

	halted bool
	fault  *Fault
}

// NewCPU creates a new CPU at power-up state: memory, registers and stack are
// zeroed, and execution starts at address 0. The in instruction reads from in,
// and out writes to out.
func NewCPU(in io.Reader, out io.Writer) *CPU {
	c := &CPU{
		out: out,
		dbg: nopDebugger{},
	}
	if in != nil {
		if br, ok := in.(io.ByteReader); ok {
			c.in = br
		} else {
			c.in = bufio.NewReader(in)
		}
	}
	return c
}

// LoadProgram copies prog at the start of memory.
func (c *CPU) LoadProgram(prog []uint16) error {
	if len(prog) > MemSize {
		return fmt.Errorf("program too large: %d words", len(prog))
	}
	copy(c.Mem[:], prog)
	return nil
}

// Halted reports whether the machine stopped, either normally or after a
// fault. Once halted, a machine stays halted (unless a snapshot is loaded).
func (c *CPU) Halted() bool {
	return c.halted
}

func (c *CPU) halt() {
	c.halted = true
}

// Reg returns the value of register i.
func (c *CPU) Reg(i int) (uint16, error) {
	if i < 0 || i >= NumRegs {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRegister, i)
	}
	return c.Regs[i], nil
}

// SetReg sets the value of register i.
func (c *CPU) SetReg(i int, val uint16) error {
	if i < 0 || i >= NumRegs {
		return fmt.Errorf("%w: %d", ErrInvalidRegister, i)
	}
	c.Regs[i] = val
	return nil
}

// Resolve returns the value denoted by w: w itself for a literal, the content
// of the register for a register reference.
func (c *CPU) Resolve(w uint16) (uint16, error) {
	if IsLiteral(w) {
		return w, nil
	}
	idx, err := RegIndex(w)
	if err != nil {
		return 0, err
	}
	return c.Regs[idx], nil
}

// Step executes a single instruction. It returns a *Fault if the instruction
// can't be executed, the machine is then halted and any later Step returns
// the same fault.
func (c *CPU) Step() error {
	if c.fault != nil {
		return c.fault
	}
	if c.halted {
		return nil
	}

	pc := c.PC
	if pc >= MemSize {
		return c.setFault(&Fault{PC: pc, Op: OpInvalid, Word: pc, Err: ErrInvalidAddress})
	}

	op := c.Decode(pc)
	c.traceOp(op)

	// pc points to the next instruction before the current one executes, call
	// pushes it and jumps just overwrite it.
	c.PC += op.Len()
	c.Cycles++

	if err := c.execute(op); err != nil {
		if errors.Is(err, errInterrupted) {
			// The instruction didn't happen.
			c.PC = pc
			c.Cycles--
			return err
		}
		var word uint16
		var f *operandError
		if errors.As(err, &f) {
			word, err = f.word, f.err
		}
		return c.setFault(&Fault{PC: pc, Op: op.Code, Word: word, Err: err})
	}
	return nil
}

func (c *CPU) setFault(f *Fault) error {
	c.fault = f
	c.halted = true
	return f
}

// Run executes instructions until the machine halts, a fault occurs or ctx is
// done. Before each instruction, the attached debugger gets a chance to
// inspect the machine and possibly block execution. An in instruction waiting
// for input is abandoned when ctx is done, leaving pc on it.
func (c *CPU) Run(ctx context.Context) error {
	if c.fault != nil {
		return c.fault
	}

	c.ctx = ctx
	defer func() { c.ctx = nil }()

	for !c.halted {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.dbg.Trace(c.PC)
		err := c.Step()
		if errors.Is(err, errInterrupted) {
			return ctx.Err()
		}
		if err != nil {
			log.ModCPU.ErrorZ("CPU fault").
				Error("err", err).
				End()
			return err
		}
	}

	log.ModCPU.InfoZ("CPU halted").
		Hex16("PC", c.PC).
		Int("cycles", int(c.Cycles)).
		End()
	return nil
}

/* stack operations */

func (c *CPU) push(val uint16) {
	c.Stack = append(c.Stack, val)
}

func (c *CPU) pop() (uint16, bool) {
	if len(c.Stack) == 0 {
		return 0, false
	}
	val := c.Stack[len(c.Stack)-1]
	c.Stack = c.Stack[:len(c.Stack)-1]
	return val, true
}

/* tracing / debugging */

func (c *CPU) traceOp(op Op) {
	if c.tracer != nil {
		c.tracer.write(c, op)
	}
}

func (c *CPU) SetTraceOutput(w io.Writer) {
	c.tracer = &tracer{w: w}
}

func (c *CPU) SetDebugger(dbg Debugger) {
	if dbg == nil {
		dbg = nopDebugger{}
	}
	c.dbg = dbg
}

type nopDebugger struct{}

func (nopDebugger) Trace(pc uint16) {}
