// Package beepdevice is the real backend.Device, built on top of
// gopxl/beep and its speaker package the way github.com/go-musicfox/
// go-musicfox/internal/player/beep_player.go drives them: speaker.Init
// once, speaker.Play to add a streamer to the live mix, and a Streamer
// that reports ok=false to fall out of the mix.
//
// Each voice is its own beep.Streamer producing frames by draining its
// queued buffers; the speaker's internal mixer sums every registered
// voice, which is exactly the "one shared output device" the sound
// facade requires. This backend never resamples: every
// buffer uploaded to it is assumed to already be at the device's native
// sample rate (a Non-goal of the engine, not of this adapter).
package beepdevice

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/supergoongaming/sg-sound/internal/backend"
)

// Device is the gopxl/beep-backed backend.Device.
type Device struct {
	mu sync.Mutex

	sampleRate beep.SampleRate
	nextBuffer backend.BufferHandle
	nextVoice  backend.VoiceHandle

	buffers map[backend.BufferHandle]*bufferData
	voices  map[backend.VoiceHandle]*voice
}

type bufferData struct {
	pcm []byte
	tag backend.FormatTag
}

// New initializes the speaker at sampleRate and returns a ready Device.
// bufferSize is the number of samples buffered between this process and
// the driver, in the same units as speaker.Init's second argument.
func New(sampleRate int, bufferSize int) (*Device, error) {
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, bufferSize); err != nil {
		return nil, fmt.Errorf("%w: speaker init: %v", backend.ErrBackend, err)
	}
	return &Device{
		sampleRate: sr,
		buffers:    make(map[backend.BufferHandle]*bufferData),
		voices:     make(map[backend.VoiceHandle]*voice),
	}, nil
}

// Close drops every currently registered streamer from the speaker's mix
// with speaker.Clear. The underlying driver context is left open, and the
// Device keeps accepting calls afterwards.
func (d *Device) Close() {
	speaker.Clear()
}

func (d *Device) CreateBuffers(n int) ([]backend.BufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]backend.BufferHandle, n)
	for i := range out {
		d.nextBuffer++
		d.buffers[d.nextBuffer] = &bufferData{}
		out[i] = d.nextBuffer
	}
	return out, nil
}

func (d *Device) CreateVoices(n int) ([]backend.VoiceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]backend.VoiceHandle, n)
	for i := range out {
		d.nextVoice++
		d.voices[d.nextVoice] = newVoice()
		out[i] = d.nextVoice
	}
	return out, nil
}

func (d *Device) DestroyBuffers(bufs []backend.BufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range bufs {
		delete(d.buffers, b)
	}
	return nil
}

func (d *Device) DestroyVoices(voices []backend.VoiceHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range voices {
		if vv, ok := d.voices[v]; ok {
			vv.stop()
		}
		delete(d.voices, v)
	}
	return nil
}

func (d *Device) lookupVoice(v backend.VoiceHandle) (*voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	vv, ok := d.voices[v]
	if !ok {
		return nil, fmt.Errorf("%w: unknown voice %d", backend.ErrBackend, v)
	}
	return vv, nil
}

func (d *Device) lookupBuffer(b backend.BufferHandle) (*bufferData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bd, ok := d.buffers[b]
	if !ok {
		return nil, fmt.Errorf("%w: unknown buffer %d", backend.ErrBackend, b)
	}
	return bd, nil
}

// SetVoiceSpatial is a no-op: this backend mixes every voice at the
// origin already, since the engine never requests anything else.
func (d *Device) SetVoiceSpatial(v backend.VoiceHandle) error {
	_, err := d.lookupVoice(v)
	return err
}

func (d *Device) SetGain(v backend.VoiceHandle, gain float64) error {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return err
	}
	vv.setGain(gain)
	return nil
}

func (d *Device) UploadPCM(buf backend.BufferHandle, tag backend.FormatTag, sampleRate int, pcm []byte) error {
	bd, err := d.lookupBuffer(buf)
	if err != nil {
		return err
	}
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	bd.pcm = cp
	bd.tag = tag
	return nil
}

func (d *Device) QueueBuffers(v backend.VoiceHandle, bufs []backend.BufferHandle) error {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return err
	}
	entries := make([]queuedBuffer, 0, len(bufs))
	for _, b := range bufs {
		bd, err := d.lookupBuffer(b)
		if err != nil {
			return err
		}
		entries = append(entries, queuedBuffer{handle: b, pcm: bd.pcm, tag: bd.tag})
	}
	vv.enqueue(entries)
	return nil
}

func (d *Device) DequeueConsumed(v backend.VoiceHandle, max int) ([]backend.BufferHandle, error) {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return nil, err
	}
	return vv.dequeueConsumed(max), nil
}

func (d *Device) ClearQueue(v backend.VoiceHandle) error {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return err
	}
	vv.clearQueue()
	return nil
}

func (d *Device) VoiceState(v backend.VoiceHandle) (backend.VoiceState, error) {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return backend.StateInitial, err
	}
	return vv.getState(), nil
}

func (d *Device) BuffersProcessed(v backend.VoiceHandle) (int, error) {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return 0, err
	}
	return vv.processedCount(), nil
}

func (d *Device) BuffersQueued(v backend.VoiceHandle) (int, error) {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return 0, err
	}
	return vv.queuedCount(), nil
}

func (d *Device) Play(v backend.VoiceHandle) error {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return err
	}
	if vv.markPlayingAndRegister() {
		speaker.Play(vv)
	}
	return nil
}

func (d *Device) Pause(v backend.VoiceHandle) error {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return err
	}
	vv.pause()
	return nil
}

func (d *Device) Stop(v backend.VoiceHandle) error {
	vv, err := d.lookupVoice(v)
	if err != nil {
		return err
	}
	vv.stop()
	return nil
}

// Rewind only validates v: it does not reset the read position of the
// buffers already queued on it.
func (d *Device) Rewind(v backend.VoiceHandle) error {
	_, err := d.lookupVoice(v)
	return err
}

// queuedBuffer is one buffer bound into a voice's playback queue.
type queuedBuffer struct {
	handle backend.BufferHandle
	pcm    []byte
	tag    backend.FormatTag
	pos    int // bytes already streamed out of pcm
}

func bytesPerFrame(tag backend.FormatTag) int {
	if tag == backend.FormatMono16 {
		return 2
	}
	return 4
}

// voice is one playback channel. It implements beep.Streamer so it can be
// registered directly with the speaker's mixer.
type voice struct {
	mu         sync.Mutex
	state      backend.VoiceState
	gain       float64
	queue      []queuedBuffer
	pending    []backend.BufferHandle
	registered bool
	stopping   bool // one-shot: next Stream() call reports ok=false
}

func newVoice() *voice {
	return &voice{state: backend.StateInitial, gain: 1.0}
}

func (v *voice) setGain(g float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gain = g
}

func (v *voice) enqueue(entries []queuedBuffer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue = append(v.queue, entries...)
}

func (v *voice) dequeueConsumed(max int) []backend.BufferHandle {
	v.mu.Lock()
	defer v.mu.Unlock()
	if max > len(v.pending) {
		max = len(v.pending)
	}
	out := append([]backend.BufferHandle(nil), v.pending[:max]...)
	v.pending = v.pending[max:]
	return out
}

func (v *voice) clearQueue() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue = nil
	v.pending = nil
}

func (v *voice) getState() backend.VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *voice) processedCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}

func (v *voice) queuedCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.queue) + len(v.pending)
}

// markPlayingAndRegister flips the voice to Playing and reports whether
// the caller must additionally call speaker.Play (only true the first
// time, or after an explicit Stop dropped it from the mix).
func (v *voice) markPlayingAndRegister() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = backend.StatePlaying
	v.stopping = false
	if v.registered {
		return false
	}
	v.registered = true
	return true
}

func (v *voice) pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = backend.StatePaused
}

func (v *voice) stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = backend.StateStopped
	v.queue = nil
	v.pending = nil
	if v.registered {
		v.stopping = true
	}
}

// Stream implements beep.Streamer. It is invoked on the speaker's mixing
// goroutine, never on the caller's goroutine that drives tick().
func (v *voice) Stream(samples [][2]float64) (n int, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stopping {
		v.stopping = false
		v.registered = false
		return 0, false
	}

	if v.state == backend.StatePaused {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}

	i := 0
	for i < len(samples) {
		if len(v.queue) == 0 {
			break
		}
		cur := &v.queue[0]
		bpf := bytesPerFrame(cur.tag)
		remainingFrames := (len(cur.pcm) - cur.pos) / bpf
		if remainingFrames == 0 {
			v.pending = append(v.pending, cur.handle)
			v.queue = v.queue[1:]
			continue
		}
		toCopy := remainingFrames
		if toCopy > len(samples)-i {
			toCopy = len(samples) - i
		}
		for f := 0; f < toCopy; f++ {
			off := cur.pos + f*bpf
			left := int16(binary.LittleEndian.Uint16(cur.pcm[off:]))
			right := left
			if cur.tag == backend.FormatStereo16 {
				right = int16(binary.LittleEndian.Uint16(cur.pcm[off+2:]))
			}
			samples[i+f] = [2]float64{
				float64(left) / 32768 * v.gain,
				float64(right) / 32768 * v.gain,
			}
		}
		cur.pos += toCopy * bpf
		i += toCopy
		if cur.pos >= len(cur.pcm) {
			v.pending = append(v.pending, cur.handle)
			v.queue = v.queue[1:]
		}
	}

	if i < len(samples) {
		for ; i < len(samples); i++ {
			samples[i] = [2]float64{}
		}
		if v.state == backend.StatePlaying {
			v.state = backend.StateStopped
		}
	}

	return len(samples), true
}
