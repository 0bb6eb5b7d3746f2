package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/MrWong99/guildmcp/internal/jsonrpc"
)

// Stdio is a [Transport] that serves exactly one session over the
// process's standard input and output, one JSON frame per line.
type Stdio struct {
	In  io.Reader
	Out io.Writer
}

// NewStdio returns a [Stdio] transport reading from in and writing to out.
func NewStdio(in io.Reader, out io.Writer) *Stdio {
	return &Stdio{In: in, Out: out}
}

// Connect implements [Transport]. Stdio has exactly one session: Connect
// must be called at most once.
func (t *Stdio) Connect(context.Context) (Connection, error) {
	return &stdioConn{
		scanner: bufio.NewScanner(t.In),
		out:     bufio.NewWriter(t.Out),
		closed:  make(chan struct{}),
	}, nil
}

type stdioConn struct {
	scanner *bufio.Scanner
	out     *bufio.Writer

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  chan struct{}
	done    bool
}

func (c *stdioConn) Read(ctx context.Context) (*jsonrpc.Frame, error) {
	type result struct {
		frame *jsonrpc.Frame
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		for {
			if !c.scanner.Scan() {
				if err := c.scanner.Err(); err != nil {
					ch <- result{nil, fmt.Errorf("stdio: read line: %w", err)}
					return
				}
				ch <- result{nil, io.EOF}
				return
			}
			line := c.scanner.Bytes()
			if len(line) == 0 {
				// Blank separator line between frames; not a protocol
				// error, just nothing to decode yet.
				continue
			}
			frame, err := jsonrpc.Decode(line)
			ch <- result{frame, err}
			return
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.frame, r.err
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *stdioConn) Write(ctx context.Context, frame *jsonrpc.Frame) error {
	data, err := jsonrpc.Encode(frame)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.out.Write(data); err != nil {
		return fmt.Errorf("stdio: write frame: %w", err)
	}
	if err := c.out.WriteByte('\n'); err != nil {
		return fmt.Errorf("stdio: write newline: %w", err)
	}
	if err := c.out.Flush(); err != nil {
		return fmt.Errorf("stdio: flush: %w", err)
	}
	return nil
}

func (c *stdioConn) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.done {
		return nil
	}
	c.done = true
	close(c.closed)
	slog.Debug("stdio: connection closed")
	return nil
}
