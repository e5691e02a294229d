package relay

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

// readAll drains f and appends the flushed remainder.
func readAll(t *testing.T, f *Framer) []string {
	t.Helper()
	var frames []string
	for {
		frame, err := f.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		frames = append(frames, frame)
	}
	if rest, ok := f.Flush(); ok {
		frames = append(frames, rest)
	}
	return frames
}

// splitReader returns data in the given chunk sizes.
type splitReader struct {
	data  []byte
	sizes []int
}

func (r *splitReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := len(r.data)
	if len(r.sizes) > 0 {
		n = min(r.sizes[0], n)
		r.sizes = r.sizes[1:]
	}
	n = copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestFramer_Frames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "two frames",
			input: "data: a\n\ndata: b\n\n",
			want:  []string{"data: a", "data: b"},
		},
		{
			name:  "crlf normalized",
			input: "event: x\r\ndata: a\r\n\r\ndata: b\r\n\r\n",
			want:  []string{"event: x\ndata: a", "data: b"},
		},
		{
			name:  "lone cr",
			input: "data: a\r\rdata: b\r\r",
			want:  []string{"data: a", "data: b"},
		},
		{
			name:  "empty frames skipped",
			input: "\n\n\n\ndata: a\n\n\n\n",
			want:  []string{"data: a"},
		},
		{
			name:  "trailing remainder flushed",
			input: "data: a\n\ndata: b",
			want:  []string{"data: a", "data: b"},
		},
		{
			name:  "trailing single newline",
			input: "data: a\n\ndata: b\n",
			want:  []string{"data: a", "data: b"},
		},
		{
			name:  "nothing",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, NewFramer(strings.NewReader(tt.input)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("frames = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFramer_ByteSplitsDoNotChangeFrames(t *testing.T) {
	input := "event: content_block_delta\r\ndata: {\"text\":\"Grüße 👋 aus Zürich\"}\r\n\r\n" +
		"data: {\"text\":\"naïve → ok\"}\n\n" +
		"data: [DONE]\n\n"

	want := readAll(t, NewFramer(strings.NewReader(input)))
	if len(want) != 3 {
		t.Fatalf("baseline produced %d frames: %q", len(want), want)
	}

	t.Run("one byte reads", func(t *testing.T) {
		got := readAll(t, NewFramer(iotest.OneByteReader(strings.NewReader(input))))
		if !reflect.DeepEqual(got, want) {
			t.Errorf("frames = %q, want %q", got, want)
		}
	})

	t.Run("every two-chunk split", func(t *testing.T) {
		for i := 1; i < len(input); i++ {
			r := &splitReader{data: []byte(input), sizes: []int{i}}
			got := readAll(t, NewFramer(r))
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("split at byte %d: frames = %q, want %q", i, got, want)
			}
		}
	})
}

func TestFramer_LoneCRFrameWithoutMoreData(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	f := NewFramer(pr)
	got := make(chan string)
	go func() {
		defer close(got)
		for {
			frame, err := f.Next()
			if err != nil {
				return
			}
			got <- frame
		}
	}()

	for _, step := range []struct{ write, want string }{
		{"data: a\r\r", "data: a"},
		{"data: b\r\n\r\n", "data: b"},
	} {
		if _, err := pw.Write([]byte(step.write)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		select {
		case frame := <-got:
			if frame != step.want {
				t.Errorf("frame = %q, want %q", frame, step.want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %q not delivered while the stream is still open", step.want)
		}
	}
}

func TestFramer_InvalidUTF8(t *testing.T) {
	got := readAll(t, NewFramer(strings.NewReader("data: a\xffb\n\n")))
	if len(got) != 1 || got[0] != "data: a\uFFFDb" {
		t.Errorf("frames = %q", got)
	}
}

func TestFramer_ReaderError(t *testing.T) {
	boom := errors.New("connection reset")
	f := NewFramer(io.MultiReader(strings.NewReader("data: a\n\n"), iotest.ErrReader(boom)))

	frame, err := f.Next()
	if err != nil || frame != "data: a" {
		t.Fatalf("Next() = %q, %v", frame, err)
	}
	if _, err := f.Next(); !errors.Is(err, boom) {
		t.Errorf("Next() error = %v, want %v", err, boom)
	}
}

func TestFramer_FrameTooLarge(t *testing.T) {
	f := NewFramer(strings.NewReader("data: " + strings.Repeat("x", MaxFrameBytes+10)))
	for {
		_, err := f.Next()
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrFrameTooLarge) {
			t.Errorf("error = %v, want ErrFrameTooLarge", err)
		}
		return
	}
}

func BenchmarkFramer(b *testing.B) {
	input := strings.Repeat("data: {\"choices\":[{\"delta\":{\"content\":\"token\"}}]}\n\n", 200)
	b.SetBytes(int64(len(input)))
	for b.Loop() {
		f := NewFramer(strings.NewReader(input))
		for {
			if _, err := f.Next(); err != nil {
				break
			}
		}
	}
}
