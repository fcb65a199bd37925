package emu

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"synacor/emu/log"
	"synacor/hw"
	"synacor/rom"
)

var imagePath = flag.String("image", "", "program image to load for BenchmarkCPUSpeed")

func init() {
	log.Disable()
}

const timeout = 5 * time.Second

type bufCloser struct{ bytes.Buffer }

func (*bufCloser) Close() error { return nil }

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	dir := t.TempDir()
	cfg.Debugger.Socket = filepath.Join(dir, "dbg.sock")
	cfg.Debugger.Snapshot = filepath.Join(dir, "state.bin")
	return cfg
}

func launch(t *testing.T, cfg Config, input string, prog ...uint16) (*Emulator, *strings.Builder) {
	t.Helper()

	var out strings.Builder
	e, err := Launch(&rom.Image{Words: prog}, cfg, strings.NewReader(input), &out)
	if err != nil {
		t.Fatal(err)
	}
	return e, &out
}

func TestRun(t *testing.T) {
	// in r0; add r0 r0 1; out r0; halt
	e, out := launch(t, testConfig(t), "a", 20, 0x8000, 9, 0x8000, 0x8000, 1, 19, 0x8000, 0)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "b" {
		t.Errorf("output = %q, want %q", out.String(), "b")
	}
}

func TestRunFault(t *testing.T) {
	// noop; invalid opcode
	e, _ := launch(t, testConfig(t), "", 21, 0x42)

	err := e.Run(context.Background())
	var f *hw.Fault
	if !errors.As(err, &f) {
		t.Fatalf("got error %v, want a *hw.Fault", err)
	}
	if !errors.Is(err, hw.ErrInvalidOpcode) || f.PC != 1 {
		t.Errorf("got fault %v at %#x, want %v at 0x1", err, f.PC, hw.ErrInvalidOpcode)
	}
}

func TestRunInterrupted(t *testing.T) {
	// jmp 0
	e, _ := launch(t, testConfig(t), "", 6, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := e.Run(ctx); err != nil {
		t.Errorf("Run: %v, want nil on interruption", err)
	}
}

func TestRunTrace(t *testing.T) {
	cfg := testConfig(t)
	trace := &bufCloser{}
	cfg.TraceOut = trace

	// noop; halt
	e, _ := launch(t, cfg, "", 21, 0)
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(trace.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d trace lines, want 2:\n%s", len(lines), trace.String())
	}
	if !strings.HasPrefix(lines[0], "0000  noop") || !strings.HasPrefix(lines[1], "0001  halt") {
		t.Errorf("unexpected trace:\n%s", trace.String())
	}
}

// dial connects to the debugger socket, once it's available.
func dial(t *testing.T, path string) net.Conn {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.SetDeadline(time.Now().Add(timeout))
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("can't connect to debugger: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func debug(ctx context.Context, e *Emulator) <-chan error {
	done := make(chan error, 1)
	go func() { done <- e.Debug(ctx) }()
	return done
}

func waitDebug(t *testing.T, done <-chan error) {
	t.Helper()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Debug: %v", err)
		}
	case <-time.After(timeout):
		t.Fatal("Debug didn't return")
	}
}

func TestDebugSession(t *testing.T) {
	cfg := testConfig(t)

	// out 'A'; halt
	e, out := launch(t, cfg, "", 19, 'A', 0)
	done := debug(context.Background(), e)

	conn := dial(t, cfg.Debugger.Socket)
	defer conn.Close()
	r := bufio.NewReader(conn)

	readPrompt := func() {
		t.Helper()
		buf := make([]byte, len(cfg.Debugger.Prompt))
		if _, err := io.ReadFull(r, buf); err != nil {
			t.Fatal(err)
		}
		if string(buf) != cfg.Debugger.Prompt {
			t.Fatalf("got prompt %q, want %q", buf, cfg.Debugger.Prompt)
		}
	}

	readPrompt()
	io.WriteString(conn, "set 0 65\n")
	answer, err := r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Set reg 0 to 0x41\n" {
		t.Errorf("got answer %q", answer)
	}
	readPrompt()

	// Nothing executed yet.
	if out.Len() != 0 {
		t.Errorf("got output %q before continuing", out.String())
	}

	io.WriteString(conn, "c\n")
	waitDebug(t, done)

	if out.String() != "A" {
		t.Errorf("output = %q, want %q", out.String(), "A")
	}
	if e.CPU.Regs[0] != 65 {
		t.Errorf("r0 = %#x, want 0x41", e.CPU.Regs[0])
	}
	if _, err := os.Stat(cfg.Debugger.Socket); !os.IsNotExist(err) {
		t.Errorf("socket file should be removed, got %v", err)
	}
}

func TestDebugClientDisconnects(t *testing.T) {
	cfg := testConfig(t)

	// out 'O'; out 'K'; halt
	e, out := launch(t, cfg, "", 19, 'O', 19, 'K', 0)
	done := debug(context.Background(), e)

	conn := dial(t, cfg.Debugger.Socket)
	conn.Close()
	waitDebug(t, done)

	if out.String() != "OK" {
		t.Errorf("output = %q, want %q", out.String(), "OK")
	}
}

func TestRunInterruptedInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	// in r0; halt
	e, err := Launch(&rom.Image{Words: []uint16{20, 0x8000, 0}}, testConfig(t), pr, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v, want nil on interruption", err)
		}
	case <-time.After(timeout):
		t.Fatal("Run didn't return while waiting for input")
	}
}

func TestDebugInterruptedInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	cfg := testConfig(t)
	// in r0; halt
	e, err := Launch(&rom.Image{Words: []uint16{20, 0x8000, 0}}, cfg, pr, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := debug(ctx, e)

	conn := dial(t, cfg.Debugger.Socket)
	defer conn.Close()
	io.WriteString(conn, "c\n")

	time.Sleep(20 * time.Millisecond)
	cancel()
	waitDebug(t, done)

	if _, err := os.Stat(cfg.Debugger.Socket); !os.IsNotExist(err) {
		t.Errorf("socket file should be removed, got %v", err)
	}
	if e.CPU.Halted() {
		t.Errorf("cpu should not be halted")
	}
}

func BenchmarkCPUSpeed(b *testing.B) {
	img := &rom.Image{
		// set r0 1000; add r0 r0 32767; jt r0 3; jmp 0
		Words: []uint16{1, 0x8000, 1000, 9, 0x8000, 0x8000, 32767, 7, 0x8000, 3, 6, 0},
	}
	if *imagePath != "" {
		var err error
		if img, err = rom.Open(*imagePath); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	for b.Loop() {
		e, err := Launch(img, DefaultConfig(), nil, io.Discard)
		if err != nil {
			b.Fatal(err)
		}
		for range 100_000 {
			if err := e.CPU.Step(); err != nil {
				b.Fatal(err)
			}
		}
	}
}
