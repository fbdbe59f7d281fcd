package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// rawTerm reads single key presses from stdin without waiting for a
// newline, restoring the terminal's original mode on Close.
type rawTerm struct {
	state   *term.State
	keys    chan byte
	readErr error
}

func newRawTerm() (*rawTerm, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("monitor: stdin is not a terminal")
	}
	state, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("monitor: setting stdin to raw: %w", err)
	}

	r := &rawTerm{state: state, keys: make(chan byte)}
	go r.readLoop()
	return r, nil
}

func (r *rawTerm) readLoop() {
	in := bufio.NewReader(os.Stdin)
	buf := make([]byte, 1)
	for {
		if _, err := in.Read(buf); err != nil {
			r.readErr = err
			close(r.keys)
			return
		}
		r.keys <- buf[0]
	}
}

// Close restores the terminal's original mode. Reporting its error
// matters: a failed restore leaves the user's shell in raw mode.
func (r *rawTerm) Close() error {
	return term.Restore(int(os.Stdin.Fd()), r.state)
}

// ReadKey blocks for the next key press, or returns ok=false once stdin
// is closed.
func (r *rawTerm) ReadKey() (byte, bool) {
	k, ok := <-r.keys
	return k, ok
}

// KeyPressed reports whether a key is available without blocking.
func (r *rawTerm) KeyPressed() (byte, bool) {
	select {
	case k, ok := <-r.keys:
		return k, ok
	default:
		return 0, false
	}
}
