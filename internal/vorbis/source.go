// Package vorbis is the Vorbis source adapter: open a compressed file,
// report channel count and sample rate, seek by PCM position or by time in
// seconds, and read a bounded number of bytes of 16-bit interleaved PCM.
//
// The real Source wraps github.com/jfreymuth/oggvorbis.Reader directly
// (rather than going through gopxl/beep/vorbis) because the engine needs
// exactly the primitives oggvorbis.Reader already exposes in frame units:
// Position/SetPosition for PCM-frame seek and tell, and Read for decode.
package vorbis

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/supergoongaming/sg-sound/internal/sounderr"
)

// Source is the contract the stream player and SFX mixer decode against.
// It is satisfied by *File (the real adapter) and by test fakes such as
// ToneSource.
type Source interface {
	ChannelCount() int
	SampleRate() int
	TotalPCMFrames() int64
	SeekSeconds(t float64) error
	SeekPCMFrames(n int64) error
	TellPCMFrames() int64
	// Read fills dst with decoded 16-bit signed little-endian interleaved
	// PCM and returns the number of bytes written. A return of (0, nil)
	// means end of file; dst's length need not be a multiple of the
	// frame size, but writes stop short of any partial frame.
	Read(dst []byte) (int, error)
	Close() error
}

// File is the real Source, backed by an Ogg Vorbis file on disk.
type File struct {
	f       *os.File
	r       *oggvorbis.Reader
	channel int
	rate    int

	// scratch holds float32 samples decoded from the reader before they
	// are converted to int16 PCM bytes; reused across Read calls.
	scratch []float32
}

// Open opens path and validates its channel count. On success the file is
// positioned at PCM frame 0.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vorbis: open %s: %w", path, err)
	}
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vorbis: decode header %s: %w", path, err)
	}
	channels := r.Channels()
	if channels != 1 && channels != 2 {
		f.Close()
		return nil, fmt.Errorf("%w: %d channels in %s", sounderr.UnsupportedChannelCount, channels, path)
	}
	return &File{
		f:       f,
		r:       r,
		channel: channels,
		rate:    r.SampleRate(),
	}, nil
}

func (s *File) ChannelCount() int { return s.channel }
func (s *File) SampleRate() int   { return s.rate }

func (s *File) TotalPCMFrames() int64 { return s.r.Length() }

func (s *File) SeekSeconds(t float64) error {
	frame := int64(t*float64(s.rate) + 0.5)
	return s.SeekPCMFrames(frame)
}

func (s *File) SeekPCMFrames(n int64) error {
	if err := s.r.SetPosition(n); err != nil {
		return fmt.Errorf("vorbis: seek: %w", err)
	}
	return nil
}

func (s *File) TellPCMFrames() int64 { return s.r.Position() }

// Read decodes into dst. It never returns a partial frame's worth of
// trailing bytes: dst is effectively truncated to a multiple of
// ChannelCount()*2 bytes before decoding.
func (s *File) Read(dst []byte) (int, error) {
	bytesPerFrame := s.channel * 2
	usable := (len(dst) / bytesPerFrame) * bytesPerFrame
	if usable == 0 {
		return 0, nil
	}
	wantValues := usable / 2 // int16 values == float32 values needed
	if cap(s.scratch) < wantValues {
		s.scratch = make([]float32, wantValues)
	}
	buf := s.scratch[:wantValues]

	n, err := s.r.Read(buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("vorbis: read: %w", err)
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(floatToInt16(buf[i])))
	}
	return n * 2, nil
}

func (s *File) Close() error {
	return s.f.Close()
}

// floatToInt16 converts a normalized [-1,1] sample to int16: it scales by
// 32767, then clamps the result to the int16 range.
func floatToInt16(sample float32) int16 {
	scaled := sample * 32767
	if scaled > 32767 {
		scaled = 32767
	} else if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}
