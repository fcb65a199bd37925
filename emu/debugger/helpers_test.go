package debugger

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"synacor/emu/log"
	"synacor/hw"
)

func init() {
	log.Disable()
}

const (
	r0 = hw.RegBase + iota
	r1
)

const timeout = 5 * time.Second

// newTestDebugger returns a debugger attached to a cpu with prog loaded. It's
// meant to test commands directly, without running the cpu.
func newTestDebugger(t *testing.T, prog ...uint16) *Debugger {
	t.Helper()

	cpu := hw.NewCPU(nil, io.Discard)
	if err := cpu.LoadProgram(prog); err != nil {
		t.Fatal(err)
	}
	snap := filepath.Join(t.TempDir(), "state.bin")
	return New(context.Background(), cpu, nil, nil, snap)
}

func execCmd(t *testing.T, d *Debugger, line string) string {
	t.Helper()

	answer, step := d.exec(line)
	if step {
		t.Fatalf("exec(%q) should not step", line)
	}
	return answer
}

// A session runs a cpu under the control of a debugger in a goroutine, the
// test plays the role of the client.
type session struct {
	t       *testing.T
	cmds    chan string
	answers chan string
	out     *strings.Builder
	snap    string
	done    chan error
	cancel  context.CancelFunc
}

func newSession(t *testing.T, prog ...uint16) *session {
	t.Helper()

	s := &session{
		t:       t,
		cmds:    make(chan string),
		answers: make(chan string),
		out:     &strings.Builder{},
		snap:    filepath.Join(t.TempDir(), "state.bin"),
		done:    make(chan error, 1),
	}

	cpu := hw.NewCPU(nil, s.out)
	if err := cpu.LoadProgram(prog); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	New(ctx, cpu, s.cmds, s.answers, s.snap)

	go func() { s.done <- cpu.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-s.done:
		case <-time.After(timeout):
			t.Errorf("cpu still running after cancellation")
		}
	})
	return s
}

// send sends a command and returns its answer.
func (s *session) send(cmd string) string {
	s.t.Helper()

	select {
	case s.cmds <- cmd:
	case <-time.After(timeout):
		s.t.Fatalf("command %q not received", cmd)
	}

	select {
	case answer := <-s.answers:
		return answer
	case <-time.After(timeout):
		s.t.Fatalf("no answer to %q", cmd)
	}
	return ""
}

// wait waits for the cpu to return from Run.
func (s *session) wait() error {
	s.t.Helper()

	select {
	case err := <-s.done:
		s.done <- err
		return err
	case <-time.After(timeout):
		s.t.Fatalf("cpu still running")
	}
	return nil
}

type machineInfo struct {
	PC          uint16   `json:"pc"`
	Status      string   `json:"status"`
	Halted      bool     `json:"halted"`
	Regs        []uint16 `json:"regs"`
	StackDepth  int      `json:"stack_depth"`
	Breakpoints []uint16 `json:"breakpoints"`
	Watchpoints []uint16 `json:"watchpoints"`
}

func (s *session) info() machineInfo {
	s.t.Helper()

	var nfo machineInfo
	answer := s.send("info")
	if err := json.Unmarshal([]byte(answer), &nfo); err != nil {
		s.t.Fatalf("invalid info answer %q: %v", answer, err)
	}
	return nfo
}

// waitStopped polls the debugger until the cpu gets stopped.
func (s *session) waitStopped() machineInfo {
	s.t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if nfo := s.info(); nfo.Status == "stopped" {
			return nfo
		}
	}
	s.t.Fatalf("cpu not stopped")
	return machineInfo{}
}
