// Package sfxmixer implements the fixed-capacity one-shot SFX mixer: a
// pool of ten voices handed out LIFO, each playing exactly one pre-decoded
// PCM blob to completion before retiring back to the pool. Grounded on the
// original C SfxPlayer in original_source/src/SupergoonSound/sound/
// openal.c (NewSfxPlayer, PlaySfxOneShot, UpdateSfxPlayer), reimplemented
// against internal/backend.Device and internal/vorbis.Source.
package sfxmixer

import (
	"fmt"

	"github.com/supergoongaming/sg-sound/internal/backend"
	"github.com/supergoongaming/sg-sound/internal/metrics"
	"github.com/supergoongaming/sg-sound/internal/ratelog"
	"github.com/supergoongaming/sg-sound/internal/sounderr"
	"github.com/supergoongaming/sg-sound/internal/soundcfg"
	"github.com/supergoongaming/sg-sound/internal/voicepool"
	"github.com/supergoongaming/sg-sound/internal/vorbis"
)

// Asset is a fully-decoded PCM blob ready for one-shot playback. Created
// by Load, released by Unload. Immutable once loaded.
type Asset struct {
	pcm          []byte
	format       backend.FormatTag
	sampleRate   int
	channelCount int
}

// Opener opens a Vorbis source by path, the same injection point
// internal/stream.Player uses, so tests can substitute a fake source.
type Opener func(path string) (vorbis.Source, error)

// Mixer owns the fixed pool of SFX voices and their buffers.
type Mixer struct {
	dev    backend.Device
	opener Opener

	voices    []backend.VoiceHandle
	voiceBufs []backend.BufferHandle // one buffer per voice, index-aligned
	free      *voicepool.FreePool
	active    *voicepool.ActiveSet

	warn *ratelog.Limiter
}

// New allocates N_SFX voices and one buffer per voice on dev.
func New(dev backend.Device, opener Opener) (*Mixer, error) {
	n := soundcfg.NumSfxVoices
	voices, err := dev.CreateVoices(n)
	if err != nil {
		return nil, fmt.Errorf("sfxmixer: create voices: %w", err)
	}
	bufs, err := dev.CreateBuffers(n)
	if err != nil {
		return nil, fmt.Errorf("sfxmixer: create buffers: %w", err)
	}
	m := &Mixer{
		dev:       dev,
		opener:    opener,
		voices:    voices,
		voiceBufs: bufs,
		free:      voicepool.New(n),
		active:    voicepool.NewActiveSet(n),
		warn:      ratelog.New(1),
	}
	for _, v := range voices {
		if err := dev.SetVoiceSpatial(v); err != nil {
			m.logBackend("set voice spatial", err)
		}
	}
	return m, nil
}

func (m *Mixer) logBackend(op string, err error) {
	metrics.BackendErrorsTotal.WithLabelValues(op).Inc()
	m.warn.Printf("sfxmixer: backend error during %s: %v", op, err)
}

// Load opens path, classifies its channel count, and reads the entire
// decoded PCM stream into memory as one Asset.
func (m *Mixer) Load(path string) (*Asset, error) {
	src, err := m.opener(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", sounderr.AudioOpenFailed, path, err)
	}
	defer src.Close()

	channels := src.ChannelCount()
	var tag backend.FormatTag
	switch channels {
	case 1:
		tag = backend.FormatMono16
	case 2:
		tag = backend.FormatStereo16
	default:
		return nil, fmt.Errorf("%w: %d channels in %s", sounderr.UnsupportedChannelCount, channels, path)
	}

	totalBytes := src.TotalPCMFrames() * int64(channels) * 2
	pcm := make([]byte, 0, totalBytes)
	chunk := make([]byte, soundcfg.VorbisRequestSize)
	for {
		n, err := src.Read(chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", sounderr.AudioOpenFailed, path, err)
		}
		if n == 0 {
			break
		}
		pcm = append(pcm, chunk[:n]...)
	}

	return &Asset{
		pcm:          pcm,
		format:       tag,
		sampleRate:   src.SampleRate(),
		channelCount: channels,
	}, nil
}

// Unload releases an asset's backing PCM memory. The caller must not play
// the asset afterward.
func (m *Mixer) Unload(asset *Asset) {
	asset.pcm = nil
}

// Play pops a free voice and starts asset playing on it at gain. It
// reports false (not played, not an error) if the free pool is empty.
func (m *Mixer) Play(asset *Asset, gain float64) (bool, error) {
	idx, ok := m.free.Pop()
	if !ok {
		metrics.SfxDroppedTotal.Inc()
		m.warn.Printf("sfxmixer: buffers are empty, dropping one-shot")
		return false, nil
	}

	v := m.voices[idx]
	buf := m.voiceBufs[idx]

	if err := m.dev.Rewind(v); err != nil {
		m.logBackend("rewind", err)
	}
	if err := m.dev.ClearQueue(v); err != nil {
		m.logBackend("clear queue", err)
	}
	if err := m.dev.SetGain(v, gain); err != nil {
		m.logBackend("set gain", err)
	}
	if err := m.dev.UploadPCM(buf, asset.format, asset.sampleRate, asset.pcm); err != nil {
		m.free.Push(idx)
		return false, fmt.Errorf("%w: upload sfx: %v", sounderr.BackendError, err)
	}
	if err := m.dev.QueueBuffers(v, []backend.BufferHandle{buf}); err != nil {
		m.free.Push(idx)
		return false, fmt.Errorf("%w: queue sfx: %v", sounderr.BackendError, err)
	}
	if err := m.dev.Play(v); err != nil {
		m.free.Push(idx)
		return false, fmt.Errorf("%w: start sfx: %v", sounderr.BackendError, err)
	}

	m.active.Append(idx)
	metrics.SfxVoicesActive.Set(float64(m.active.Len()))
	return true, nil
}

// Tick retires every active voice whose single queued buffer has been
// consumed, returning it to the free pool.
func (m *Mixer) Tick() {
	var retired []int
	for _, idx := range m.active.Values() {
		v := m.voices[idx]
		processed, err := m.dev.BuffersProcessed(v)
		if err != nil {
			m.logBackend("query buffers processed", err)
			continue
		}
		if processed == 0 {
			continue
		}
		if _, err := m.dev.DequeueConsumed(v, processed); err != nil {
			m.logBackend("dequeue consumed", err)
			continue
		}
		retired = append(retired, idx)
	}
	for _, idx := range retired {
		m.active.Remove(idx)
		m.free.Push(idx)
	}
	metrics.SfxVoicesActive.Set(float64(m.active.Len()))
}

// Close destroys every voice and buffer the mixer owns.
func (m *Mixer) Close() {
	m.dev.DestroyVoices(m.voices)
	m.dev.DestroyBuffers(m.voiceBufs)
}

// FreeCount and ActiveCount expose pool occupancy for tests asserting the
// headcount and LIFO invariants.
func (m *Mixer) FreeCount() int   { return m.free.Len() }
func (m *Mixer) ActiveCount() int { return m.active.Len() }
