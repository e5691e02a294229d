package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"hohl-rocks/relay/pkg/providers"
)

// frameResult is one item handed from the reader goroutine to Next.
type frameResult struct {
	frame string
	err   error
}

// Stream is the decoded upstream sequence of one provider attempt. It owns
// the response body; Close must be called once the caller is done.
type Stream struct {
	provider providers.Name
	adapter  providers.Adapter
	body     io.ReadCloser
	idle     time.Duration

	frames    chan frameResult
	done      chan struct{}
	closeOnce sync.Once
	finished  bool
}

// NewStream starts decoding body with adapter. idle bounds the wait for each
// upstream frame; zero disables it.
func NewStream(adapter providers.Adapter, body io.ReadCloser, idle time.Duration) *Stream {
	s := &Stream{
		provider: adapter.Name(),
		adapter:  adapter,
		body:     body,
		idle:     idle,
		frames:   make(chan frameResult),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Provider returns the provider the stream is reading from.
func (s *Stream) Provider() providers.Name {
	return s.provider
}

// readLoop moves frames from the body to Next. It exits when the body ends
// or the stream is closed.
func (s *Stream) readLoop() {
	defer close(s.frames)

	send := func(r frameResult) bool {
		select {
		case s.frames <- r:
			return true
		case <-s.done:
			return false
		}
	}

	framer := NewFramer(s.body)
	for {
		frame, err := framer.Next()
		if errors.Is(err, io.EOF) {
			if rest, ok := framer.Flush(); ok {
				send(frameResult{frame: rest})
			}
			return
		}
		if err != nil {
			send(frameResult{err: err})
			return
		}
		if !send(frameResult{frame: frame}) {
			return
		}
	}
}

// Next returns the next non-empty text delta in arrival order.
//
// It returns io.EOF after the vendor's terminal sentinel or a clean end of
// the body. Frames the adapter does not recognize are skipped. An in-band
// vendor error or a broken connection is a *providers.StreamError; an idle
// upstream is a *providers.TimeoutError. Context errors are returned as is.
func (s *Stream) Next(ctx context.Context) (providers.Fragment, error) {
	if s.finished {
		return providers.Fragment{}, io.EOF
	}

	var idle <-chan time.Time
	var timer *time.Timer
	if s.idle > 0 {
		timer = time.NewTimer(s.idle)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return providers.Fragment{}, ctx.Err()

		case <-idle:
			return providers.Fragment{}, &providers.TimeoutError{
				Provider: string(s.provider),
				Timeout:  s.idle,
				Phase:    "idle",
			}

		case r, ok := <-s.frames:
			if !ok {
				s.finished = true
				return providers.Fragment{}, io.EOF
			}
			if r.err != nil {
				return providers.Fragment{}, &providers.StreamError{
					Provider: string(s.provider),
					Message:  fmt.Sprintf("upstream stream interrupted: %v", r.err),
					Cause:    r.err,
				}
			}

			frag, ok := s.adapter.ParseStreamFrame(r.frame)
			if timer != nil {
				timer.Reset(s.idle)
			}
			if !ok {
				continue
			}

			switch frag.Kind() {
			case providers.KindError:
				return providers.Fragment{}, &providers.StreamError{
					Provider: string(s.provider),
					Message:  frag.ErrorMessage,
				}
			case providers.KindDone:
				s.finished = true
				return providers.Fragment{}, io.EOF
			}
			if frag.Text == "" {
				continue
			}
			return frag, nil
		}
	}
}

// Close stops the reader and releases the upstream connection. It is safe
// to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.body.Close()
	})
	return err
}
