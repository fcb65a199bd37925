package hw

import "fmt"

const (
	MemSize = 0x8000 // number of words in memory
	NumRegs = 8      // number of registers

	MaxWord = 0x7fff // largest literal value
	Modulus = 0x8000 // arithmetic is performed modulo 32768
	RegBase = 0x8000 // word denoting register 0
	RegEnd  = RegBase + NumRegs
)

// IsLiteral reports whether w denotes itself.
func IsLiteral(w uint16) bool { return w <= MaxWord }

// IsRegister reports whether w is a register reference.
func IsRegister(w uint16) bool { return w >= RegBase && w < RegEnd }

// RegIndex returns the index of the register referenced by w.
func RegIndex(w uint16) (int, error) {
	if !IsRegister(w) {
		return 0, fmt.Errorf("%w: %#x", ErrInvalidRegister, w)
	}
	return int(w - RegBase), nil
}
