// Package snapshot implements the serialization of the machine state.
//
// A snapshot is a sequence of little-endian 16-bit words, in this order: the
// program counter, the 8 registers, the 32768 words of memory and then the
// stack, from bottom to top. The stack depth is not stored, it's deduced
// from the size of the snapshot.
package snapshot

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"synacor/emu/log"
)

const (
	NumRegs = 8
	MemSize = 0x8000

	// HeaderSize is the size in bytes of the fixed part of a snapshot.
	HeaderSize = 2 * (1 + NumRegs + MemSize)
)

// ErrMalformed is returned when decoding a buffer which doesn't follow the
// snapshot layout.
var ErrMalformed = errors.New("malformed snapshot")

type Machine struct {
	PC    uint16
	Regs  [NumRegs]uint16
	Mem   [MemSize]uint16
	Stack []uint16
}

// Size returns the encoded size of m in bytes.
func (m *Machine) Size() int {
	return HeaderSize + 2*len(m.Stack)
}

// Encode serializes m.
func Encode(m *Machine) []byte {
	buf := make([]byte, 0, m.Size())
	buf = binary.LittleEndian.AppendUint16(buf, m.PC)
	for _, r := range m.Regs {
		buf = binary.LittleEndian.AppendUint16(buf, r)
	}
	for _, w := range m.Mem {
		buf = binary.LittleEndian.AppendUint16(buf, w)
	}
	for _, w := range m.Stack {
		buf = binary.LittleEndian.AppendUint16(buf, w)
	}
	return buf
}

// Decode deserializes a machine state. It returns ErrMalformed if buf is too
// short or if the stack has an odd number of bytes.
func Decode(buf []byte) (*Machine, error) {
	if len(buf) < HeaderSize {
		return nil, errors.Wrapf(ErrMalformed, "%d bytes, need at least %d", len(buf), HeaderSize)
	}
	if len(buf)%2 != 0 {
		return nil, errors.Wrapf(ErrMalformed, "odd stack size (%d bytes)", len(buf)-HeaderSize)
	}

	m := new(Machine)
	word := func() uint16 {
		w := binary.LittleEndian.Uint16(buf)
		buf = buf[2:]
		return w
	}

	m.PC = word()
	for i := range m.Regs {
		m.Regs[i] = word()
	}
	for i := range m.Mem {
		m.Mem[i] = word()
	}
	m.Stack = make([]uint16, len(buf)/2)
	for i := range m.Stack {
		m.Stack[i] = word()
	}
	return m, nil
}

// WriteFile writes a snapshot buffer to path.
func WriteFile(path string, buf []byte) error {
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	log.ModMem.DebugZ("snapshot written").String("path", path).Int("size", len(buf)).End()
	return nil
}

// ReadFile reads a snapshot buffer from path.
func ReadFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	log.ModMem.DebugZ("snapshot read").String("path", path).Int("size", len(buf)).End()
	return buf, nil
}
