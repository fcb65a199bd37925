package hw

import (
	"errors"
	"fmt"
)

// Fatal conditions. A program triggering one of these has violated its
// contract, the machine cannot go on.
var (
	ErrInvalidOpcode   = errors.New("invalid opcode")
	ErrInvalidRegister = errors.New("invalid register")
	ErrInvalidAddress  = errors.New("invalid memory address")
	ErrStackUnderflow  = errors.New("pop with empty stack")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrCannotPrint     = errors.New("cannot print value")
)

// A Fault is a fatal execution error. It records the address of the
// instruction that caused it.
type Fault struct {
	PC   uint16 // address of the faulting instruction
	Op   Opcode
	Word uint16 // offending word
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at $%04X (%s): %#x", f.Err, f.PC, f.Op, f.Word)
}

func (f *Fault) Unwrap() error { return f.Err }
