package hw

import (
	"strconv"
	"strings"
)

// Opcode identifies an instruction.
type Opcode uint16

const (
	OpHalt Opcode = iota
	OpSet
	OpPush
	OpPop
	OpEq
	OpGt
	OpJmp
	OpJt
	OpJf
	OpAdd
	OpMult
	OpMod
	OpAnd
	OpOr
	OpNot
	OpRmem
	OpWmem
	OpCall
	OpRet
	OpOut
	OpIn
	OpNoop

	numOpcodes

	// OpInvalid marks any word that isn't a known opcode.
	OpInvalid Opcode = 0xFFFF
)

var opNames = [numOpcodes]string{
	"halt", "set", "push", "pop", "eq", "gt", "jmp", "jt", "jf", "add", "mult",
	"mod", "and", "or", "not", "rmem", "wmem", "call", "ret", "out", "in", "noop",
}

// number of operands per opcode.
var opArity = [numOpcodes]uint8{
	0, 2, 1, 1, 3, 3, 1, 2, 2, 3, 3, 3, 3, 3, 2, 2, 2, 1, 0, 1, 1, 0,
}

func (op Opcode) String() string {
	if op < numOpcodes {
		return opNames[op]
	}
	return "invalid"
}

// Arity returns the number of operands of op.
func (op Opcode) Arity() int {
	if op < numOpcodes {
		return int(opArity[op])
	}
	return 0
}

// OpcodeByName returns the opcode with the given mnemonic.
func OpcodeByName(name string) (Opcode, bool) {
	for i, s := range opNames {
		if s == name {
			return Opcode(i), true
		}
	}
	return OpInvalid, false
}

// An Op is a decoded instruction. Operands are kept raw, each instruction
// decides whether they're resolved or used as register references.
type Op struct {
	Code Opcode
	Args [3]uint16

	// Raw holds the opcode word as found in memory, only meaningful for
	// invalid instructions.
	Raw uint16
}

// Len returns the number of words the instruction occupies.
func (op Op) Len() uint16 {
	return uint16(op.Code.Arity()) + 1
}

// Operands returns the operands actually used by the instruction.
func (op Op) Operands() []uint16 {
	return op.Args[:op.Code.Arity()]
}

func (op Op) String() string {
	if op.Code == OpInvalid {
		return "invalid " + hex(op.Raw)
	}

	var sb strings.Builder
	sb.WriteString(op.Code.String())
	for _, a := range op.Operands() {
		sb.WriteByte(' ')
		sb.WriteString(hex(a))
	}
	return sb.String()
}

func hex(w uint16) string {
	return "0x" + strconv.FormatUint(uint64(w), 16)
}

// Decode decodes the instruction at addr. The 3 words following the opcode
// are always read, even if the instruction doesn't use them. Words past the
// end of memory read as zero.
func (c *CPU) Decode(addr uint16) Op {
	code := c.peek(addr)
	op := Op{
		Code: OpInvalid,
		Raw:  code,
		Args: [3]uint16{
			c.peek(addr + 1),
			c.peek(addr + 2),
			c.peek(addr + 3),
		},
	}
	if code < uint16(numOpcodes) {
		op.Code = Opcode(code)
	}
	return op
}

func (c *CPU) peek(addr uint16) uint16 {
	if addr >= MemSize {
		return 0
	}
	return c.Mem[addr]
}
