package hw

import (
	"errors"
	"io"

	"synacor/emu/log"
)

// operandError ties an execution error to the operand word that caused it.
type operandError struct {
	word uint16
	err  error
}

func (e *operandError) Error() string { return e.err.Error() }
func (e *operandError) Unwrap() error { return e.err }

func badWord(w uint16, err error) error {
	return &operandError{word: w, err: err}
}

// val resolves operand w.
func (c *CPU) val(w uint16) (uint16, error) {
	v, err := c.Resolve(w)
	if err != nil {
		return 0, badWord(w, ErrInvalidRegister)
	}
	return v, nil
}

// vals resolves the 2 operands b and c.
func (c *CPU) vals(b, cc uint16) (uint16, uint16, error) {
	x, err := c.val(b)
	if err != nil {
		return 0, 0, err
	}
	y, err := c.val(cc)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// store writes val into the register referenced by w.
func (c *CPU) store(w uint16, val uint16) error {
	idx, err := RegIndex(w)
	if err != nil {
		return badWord(w, ErrInvalidRegister)
	}
	c.Regs[idx] = val
	return nil
}

func checkAddr(addr uint16) error {
	if addr >= MemSize {
		return badWord(addr, ErrInvalidAddress)
	}
	return nil
}

func b2w(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

func (c *CPU) execute(op Op) error {
	a, b, cc := op.Args[0], op.Args[1], op.Args[2]

	switch op.Code {
	case OpHalt:
		c.halt()

	case OpSet:
		v, err := c.val(b)
		if err != nil {
			return err
		}
		return c.store(a, v)

	case OpPush:
		v, err := c.val(a)
		if err != nil {
			return err
		}
		c.push(v)

	case OpPop:
		v, ok := c.pop()
		if !ok {
			return ErrStackUnderflow
		}
		return c.store(a, v)

	case OpEq, OpGt, OpAdd, OpMult, OpMod, OpAnd, OpOr:
		x, y, err := c.vals(b, cc)
		if err != nil {
			return err
		}
		res, err := alu(op.Code, x, y)
		if err != nil {
			return badWord(cc, err)
		}
		return c.store(a, res)

	case OpNot:
		v, err := c.val(b)
		if err != nil {
			return err
		}
		return c.store(a, ^v&MaxWord)

	case OpJmp:
		addr, err := c.val(a)
		if err != nil {
			return err
		}
		c.PC = addr

	case OpJt, OpJf:
		cond, addr, err := c.vals(a, b)
		if err != nil {
			return err
		}
		if (cond != 0) == (op.Code == OpJt) {
			c.PC = addr
		}

	case OpRmem:
		addr, err := c.val(b)
		if err != nil {
			return err
		}
		if err := checkAddr(addr); err != nil {
			return err
		}
		return c.store(a, c.Mem[addr])

	case OpWmem:
		addr, v, err := c.vals(a, b)
		if err != nil {
			return err
		}
		if err := checkAddr(addr); err != nil {
			return err
		}
		c.Mem[addr] = v

	case OpCall:
		addr, err := c.val(a)
		if err != nil {
			return err
		}
		c.push(c.PC)
		c.PC = addr

	case OpRet:
		addr, ok := c.pop()
		if !ok {
			// Returning with an empty stack is how programs terminate.
			c.halt()
			return nil
		}
		c.PC = addr

	case OpOut:
		v, err := c.val(a)
		if err != nil {
			return err
		}
		if v > 0xff {
			return badWord(v, ErrCannotPrint)
		}
		return c.write(byte(v))

	case OpIn:
		if _, err := RegIndex(a); err != nil {
			return badWord(a, ErrInvalidRegister)
		}
		v, err := c.read()
		if errors.Is(err, io.EOF) {
			log.ModIO.WarnZ("input closed, halting").End()
			c.halt()
			return nil
		}
		if err != nil {
			return err
		}
		return c.store(a, uint16(v))

	case OpNoop:

	default:
		return badWord(op.Raw, ErrInvalidOpcode)
	}

	return nil
}

// alu computes the result of the 2-operands arithmetic and logic opcodes.
func alu(code Opcode, x, y uint16) (uint16, error) {
	switch code {
	case OpEq:
		return b2w(x == y), nil
	case OpGt:
		return b2w(x > y), nil
	case OpAdd:
		return uint16((uint32(x) + uint32(y)) % Modulus), nil
	case OpMult:
		return uint16((uint32(x) * uint32(y)) % Modulus), nil
	case OpMod:
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		return x % y, nil
	case OpAnd:
		return x & y, nil
	case OpOr:
		return x | y, nil
	}
	panic("unexpected opcode " + code.String())
}
