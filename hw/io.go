package hw

import (
	"errors"
	"io"
)

type flusher interface {
	Flush() error
}

// errInterrupted is returned by read when Run's context is done while
// waiting for input.
var errInterrupted = errors.New("input interrupted")

// write outputs a single character, flushing it right away so that
// interactive sessions see it immediately.
func (c *CPU) write(ch byte) error {
	if c.out == nil {
		return nil
	}
	if _, err := c.out.Write([]byte{ch}); err != nil {
		return err
	}
	if f, ok := c.out.(flusher); ok {
		return f.Flush()
	}
	return nil
}

type readResult struct {
	b   byte
	err error
}

// read blocks until an input byte is available. It returns io.EOF when no
// input is connected or the input is closed: no byte will ever come, so the in
// instruction halts the machine rather than blocking forever. When called from
// Run, read gives up with errInterrupted as soon as Run's context is done.
func (c *CPU) read() (byte, error) {
	if c.in == nil {
		return 0, io.EOF
	}

	buffered := false
	if br, ok := c.in.(interface{ Buffered() int }); ok {
		buffered = br.Buffered() > 0
	}
	if c.pending == nil && (c.ctx == nil || buffered) {
		return c.in.ReadByte()
	}

	// An interrupted read keeps running, its byte goes to the next read.
	if c.pending == nil {
		c.pending = make(chan readResult, 1)
		go func(in io.ByteReader, res chan<- readResult) {
			b, err := in.ReadByte()
			res <- readResult{b, err}
		}(c.in, c.pending)
	}

	var done <-chan struct{}
	if c.ctx != nil {
		done = c.ctx.Done()
	}
	select {
	case r := <-c.pending:
		c.pending = nil
		return r.b, r.err
	case <-done:
		return 0, errInterrupted
	}
}
