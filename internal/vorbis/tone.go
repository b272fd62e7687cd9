package vorbis

import (
	"encoding/binary"
	"math"
)

// ToneSource is a synthetic Source that generates a sine tone instead of
// decoding a file. It exists purely for tests that need a deterministic,
// file-free stand-in for the stream player and SFX mixer to decode
// against, the same role a synthetic tone generator plays in audio tests
// elsewhere.
type ToneSource struct {
	channels   int
	rate       int
	totalFrame int64 // 0 means unbounded (never reports EOF)
	frequency  float64

	pos int64 // current PCM-frame position
}

// NewToneSource returns a Source producing a frequency Hz sine wave at the
// given rate/channels. totalFrames bounds the stream length; 0 means the
// tone plays forever (Read never returns (0, nil)).
func NewToneSource(channels, rate int, totalFrames int64, frequency float64) *ToneSource {
	return &ToneSource{channels: channels, rate: rate, totalFrame: totalFrames, frequency: frequency}
}

func (t *ToneSource) ChannelCount() int      { return t.channels }
func (t *ToneSource) SampleRate() int        { return t.rate }
func (t *ToneSource) TotalPCMFrames() int64  { return t.totalFrame }
func (t *ToneSource) TellPCMFrames() int64   { return t.pos }

func (t *ToneSource) SeekSeconds(s float64) error {
	return t.SeekPCMFrames(int64(s*float64(t.rate) + 0.5))
}

func (t *ToneSource) SeekPCMFrames(n int64) error {
	t.pos = n
	return nil
}

func (t *ToneSource) Read(dst []byte) (int, error) {
	bytesPerFrame := t.channels * 2
	usable := (len(dst) / bytesPerFrame) * bytesPerFrame
	if usable == 0 {
		return 0, nil
	}
	framesWanted := usable / bytesPerFrame
	if t.totalFrame > 0 {
		remaining := t.totalFrame - t.pos
		if remaining <= 0 {
			return 0, nil
		}
		if int64(framesWanted) > remaining {
			framesWanted = int(remaining)
		}
	}
	for f := 0; f < framesWanted; f++ {
		sample := int16(math.Sin(2*math.Pi*t.frequency*float64(t.pos)/float64(t.rate)) * 16000)
		for c := 0; c < t.channels; c++ {
			off := f*bytesPerFrame + c*2
			binary.LittleEndian.PutUint16(dst[off:], uint16(sample))
		}
		t.pos++
	}
	return framesWanted * bytesPerFrame, nil
}

func (t *ToneSource) Close() error { return nil }
