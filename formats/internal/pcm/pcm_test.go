// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
)

type fakeReader struct {
	data []int
	pos  int
	err  error
}

func (f *fakeReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if f.err != nil && f.pos >= len(f.data) {
		return 0, f.err
	}
	n := copy(buf.Data, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func TestSource_Scaling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		depth    int
		unsigned bool
		in       []int
		want     []float32
	}{
		{"16 bit", 16, false, []int{0, 16384, -32768}, []float32{0, 0.5, -1}},
		{"24 bit", 24, false, []int{4194304, -8388608}, []float32{0.5, -1}},
		{"32 bit", 32, false, []int{-1073741824}, []float32{-0.5}},
		{"8 bit signed", 8, false, []int{64, -128}, []float32{0.5, -1}},
		{"8 bit unsigned", 8, true, []int{128, 192, 0}, []float32{0, 0.5, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSource(&fakeReader{data: tt.in}, 8000, 1, tt.depth, tt.unsigned)
			dst := make([]float32, 8)

			n, err := s.ReadSamples(dst)
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}
			if n != len(tt.want) {
				t.Fatalf("n = %d, want %d", n, len(tt.want))
			}
			for i, w := range tt.want {
				if dst[i] != w {
					t.Errorf("dst[%d] = %v, want %v", i, dst[i], w)
				}
			}

			if n, err := s.ReadSamples(dst); n != 0 || !errors.Is(err, io.EOF) {
				t.Errorf("after end: %d, %v, want 0, EOF", n, err)
			}
		})
	}
}

func TestSource_FrameAlignment(t *testing.T) {
	t.Parallel()

	s := NewSource(&fakeReader{data: []int{1, 2, 3, 4, 5, 6}}, 8000, 2, 16, false)
	if s.Channels() != 2 || s.SampleRate() != 8000 {
		t.Fatalf("metadata = %d ch @ %d", s.Channels(), s.SampleRate())
	}

	n, err := s.ReadSamples(make([]float32, 5))
	if n != 4 || err != nil {
		t.Errorf("ReadSamples(5) = %d, %v, want 4 samples", n, err)
	}
	if n, err := s.ReadSamples(make([]float32, 1)); n != 0 || err != nil {
		t.Errorf("ReadSamples(1) = %d, %v, want 0, nil", n, err)
	}
}

func TestSource_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad chunk")
	s := NewSource(&fakeReader{err: boom}, 8000, 1, 16, false)

	if _, err := s.ReadSamples(make([]float32, 4)); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestReadSeeker(t *testing.T) {
	t.Parallel()

	br := bytes.NewReader([]byte("abc"))
	rs, err := ReadSeeker(br)
	if err != nil || rs != io.ReadSeeker(br) {
		t.Errorf("seekable input was not passed through")
	}

	rs, err = ReadSeeker(struct{ io.Reader }{strings.NewReader("xyz")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rs.Seek(1, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	rest, _ := io.ReadAll(rs)
	if string(rest) != "yz" {
		t.Errorf("read %q after seek, want yz", rest)
	}
}

func TestSupportedDepth(t *testing.T) {
	t.Parallel()

	for depth, want := range map[int]bool{8: true, 16: true, 24: true, 32: true, 12: false, 64: false, 0: false} {
		if got := SupportedDepth(depth); got != want {
			t.Errorf("SupportedDepth(%d) = %v, want %v", depth, got, want)
		}
	}
}
