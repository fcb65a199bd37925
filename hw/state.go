package hw

import (
	"fmt"

	"synacor/hw/snapshot"
)

func (c *CPU) State() *snapshot.Machine {
	return &snapshot.Machine{
		PC:    c.PC,
		Regs:  c.Regs,
		Mem:   c.Mem,
		Stack: append([]uint16(nil), c.Stack...),
	}
}

func (c *CPU) SetState(m *snapshot.Machine) {
	c.PC = m.PC
	c.Regs = m.Regs
	c.Mem = m.Mem
	c.Stack = append(c.Stack[:0], m.Stack...)
	c.halted = false
	c.fault = nil
}

// SaveSnapshot serializes the machine state.
func (c *CPU) SaveSnapshot() []byte {
	return snapshot.Encode(c.State())
}

// LoadSnapshot restores the machine state from buf. The machine is left
// untouched if buf is not a valid snapshot.
func (c *CPU) LoadSnapshot(buf []byte) error {
	m, err := snapshot.Decode(buf)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	c.SetState(m)
	return nil
}
