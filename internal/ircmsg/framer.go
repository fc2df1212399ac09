package ircmsg

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ErrEncoding is returned by Framer.Push when a chunk contains bytes that do
// not decode as UTF-8. Per the framer contract this is fatal to the
// connection: the caller sends 451 and closes.
var ErrEncoding = errors.New("ircmsg: invalid UTF-8 in input")

// Framer splits a cumulative byte stream into CRLF-terminated lines. It
// retains a trailing partial line between Push calls so that a single
// protocol message arriving across multiple reads is still recognized.
type Framer struct {
	buf []byte
}

// Push appends a freshly-read chunk of bytes and returns every complete line
// it can now extract. Empty segments (a single CRLF immediately following an
// earlier CRLF, or the first CRLF at position zero) are discarded silently.
// A complete line that is not valid UTF-8 is an encoding error: Push stops
// there and returns the lines extracted before it together with ErrEncoding.
// A trailing partial line is not checked until its CRLF arrives.
func (f *Framer) Push(chunk []byte) ([]string, error) {
	f.buf = append(f.buf, chunk...)

	var lines []string
	for {
		idx := indexCRLF(f.buf)
		if idx < 0 {
			break
		}

		segment := f.buf[:idx]
		f.buf = f.buf[idx+2:]

		if len(segment) == 0 {
			continue
		}

		if !utf8.Valid(segment) {
			return lines, ErrEncoding
		}

		lines = append(lines, string(segment))
	}

	return lines, nil
}

func indexCRLF(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}
