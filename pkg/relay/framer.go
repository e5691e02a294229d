package relay

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxFrameBytes caps the size of a single undelimited frame.
const MaxFrameBytes = 1 << 20

// ErrFrameTooLarge is returned when the upstream sends more than
// MaxFrameBytes without a frame delimiter.
var ErrFrameTooLarge = errors.New("sse frame exceeds size limit")

var frameDelimiter = []byte("\n\n")

// Framer splits an event stream into blank-line separated frames.
//
// Bytes are decoded as UTF-8 incrementally, so a multi-byte rune split
// across two reads is reassembled; invalid sequences become U+FFFD. CRLF and
// lone CR line endings are normalized to LF before splitting. Incomplete
// trailing data is kept until more bytes arrive or Flush is called.
type Framer struct {
	r     io.Reader
	chunk []byte
	buf   []byte
	err   error

	// skipLF drops the LF of a CRLF pair whose CR was already emitted.
	skipLF bool
}

// NewFramer reads frames from r.
func NewFramer(r io.Reader) *Framer {
	return &Framer{
		r:     transform.NewReader(r, unicode.UTF8.NewDecoder()),
		chunk: make([]byte, 4096),
	}
}

// Next returns the next complete frame. Frames consisting only of
// whitespace are skipped. At end of input it returns io.EOF; the trailing
// remainder is then available from Flush.
func (f *Framer) Next() (string, error) {
	for {
		if i := bytes.Index(f.buf, frameDelimiter); i >= 0 {
			frame := string(f.buf[:i])
			f.buf = f.buf[i+len(frameDelimiter):]
			if strings.TrimSpace(frame) == "" {
				continue
			}
			return frame, nil
		}

		if len(f.buf) > MaxFrameBytes {
			f.buf = nil
			f.err = ErrFrameTooLarge
		}
		if f.err != nil {
			return "", f.err
		}

		n, err := f.r.Read(f.chunk)
		if n > 0 {
			f.append(f.chunk[:n])
		}
		if err != nil {
			f.err = err
		}
	}
}

// Flush returns the buffered remainder that was never terminated by a
// blank line and clears it. ok is false when the remainder is empty or
// whitespace.
func (f *Framer) Flush() (frame string, ok bool) {
	rest := string(f.buf)
	f.buf = nil
	if strings.TrimSpace(rest) == "" {
		return "", false
	}
	return strings.TrimRight(rest, "\n"), true
}

func (f *Framer) append(p []byte) {
	for _, b := range p {
		if f.skipLF {
			f.skipLF = false
			if b == '\n' {
				continue
			}
		}
		if b == '\r' {
			f.buf = append(f.buf, '\n')
			f.skipLF = true
			continue
		}
		f.buf = append(f.buf, b)
	}
}
