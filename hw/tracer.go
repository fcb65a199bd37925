package hw

import (
	"fmt"
	"io"
)

type tracer struct {
	w   io.Writer
	buf []byte
}

func hexEncode(dst []byte, v uint16) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>12&0x0f]
	dst[1] = hextable[v>>8&0x0f]
	dst[2] = hextable[v>>4&0x0f]
	dst[3] = hextable[v&0x0f]
}

// write the execution trace for the instruction about to be executed.
func (t *tracer) write(c *CPU, op Op) {
	const opcol = 32

	buf := fmt.Appendf(t.buf[:0], "%04X  %s", c.PC, op)
	for len(buf) < opcol {
		buf = append(buf, ' ')
	}

	var reg [4]byte
	for i := range c.Regs {
		buf = append(buf, 'R', byte('0'+i), ':')
		hexEncode(reg[:], c.Regs[i])
		buf = append(buf, reg[:]...)
		buf = append(buf, ' ')
	}

	buf = fmt.Appendf(buf, "S:%d CYC:%d\n", len(c.Stack), c.Cycles)
	t.w.Write(buf)
	t.buf = buf
}
