package debugger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"golang.org/x/sys/unix"

	"synacor/emu/log"
)

// Server is the debugger transport. It listens on a unix socket, accepts a
// single client and turns its lines of text into commands. Each command
// waits for its answer before the next line is read.
type Server struct {
	ln     net.Listener
	path   string
	prompt string

	cmds    chan string
	answers chan string
}

// Listen creates the unix socket at path, removing any stale socket file
// left there by a previous run.
func Listen(path, prompt string) (*Server, error) {
	if err := unix.Unlink(path); err != nil && !errors.Is(err, unix.ENOENT) {
		return nil, fmt.Errorf("failed to remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}

	log.ModDbg.InfoZ("debugger server listening").String("path", path).End()
	return &Server{
		ln:      ln,
		path:    path,
		prompt:  prompt,
		cmds:    make(chan string),
		answers: make(chan string),
	}, nil
}

// Commands returns the channel on which client commands are sent. It's closed
// when the client disconnects.
func (s *Server) Commands() <-chan string { return s.cmds }

// Answers returns the channel on which command answers must be sent.
func (s *Server) Answers() chan<- string { return s.answers }

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// Serve accepts a single client and serves it until it disconnects or ctx is
// done. Any exchange in flight when ctx is done is abandoned.
func (s *Server) Serve(ctx context.Context) error {
	defer close(s.cmds)

	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()

	conn, err := s.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.ModDbg.Errorf("accept failed on %s: %v", s.path, err)
		return fmt.Errorf("accept: %w", err)
	}
	defer conn.Close()

	log.ModDbg.InfoZ("debugger client connected").End()

	stopConn := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopConn()

	err = s.drive(ctx, conn)
	if ctx.Err() != nil {
		return nil
	}

	log.ModDbg.InfoZ("debugger client disconnected").Error("err", err).End()
	return err
}

func (s *Server) drive(ctx context.Context, rw io.ReadWriter) error {
	w := bufio.NewWriter(rw)
	sc := bufio.NewScanner(rw)

	writePrompt := func() error {
		w.WriteString(s.prompt)
		return w.Flush()
	}

	if err := writePrompt(); err != nil {
		return err
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")

		select {
		case s.cmds <- line:
		case <-ctx.Done():
			return ctx.Err()
		}

		var answer string
		select {
		case answer = <-s.answers:
		case <-ctx.Done():
			return ctx.Err()
		}

		w.WriteString(answer)
		w.WriteByte('\n')
		if err := writePrompt(); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Close stops listening and removes the socket file.
func (s *Server) Close() error {
	err := s.ln.Close()
	if err != nil && errors.Is(err, net.ErrClosed) {
		err = nil
	}
	if uerr := unix.Unlink(s.path); uerr != nil && !errors.Is(uerr, unix.ENOENT) {
		err = errors.Join(err, uerr)
	}
	return err
}
