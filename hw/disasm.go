package hw

import (
	"fmt"
	"io"
)

// DisasmOp is the disassembly of a single instruction.
type DisasmOp struct {
	PC uint16
	Op Op
}

func (d DisasmOp) String() string {
	return fmt.Sprintf("0x%04x: %s", d.PC, d.Op)
}

// Disasm decodes the instruction at pc without executing it.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	return DisasmOp{PC: pc, Op: c.Decode(pc)}
}

// DisasmRange writes the disassembly of count consecutive instructions,
// starting at start. Instructions have variable lengths so the address of
// each one depends on the previous one. It stops at the end of memory.
func (c *CPU) DisasmRange(w io.Writer, start uint16, count int) error {
	pc := uint32(start)
	for i := 0; i < count && pc < MemSize; i++ {
		d := c.Disasm(uint16(pc))
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
		pc += uint32(d.Op.Len())
	}
	return nil
}

// DisasmAll writes the disassembly of the whole memory.
func (c *CPU) DisasmAll(w io.Writer) error {
	return c.DisasmRange(w, 0, MemSize)
}
