// Package testdevice is a deterministic, in-memory backend.Device used by
// this module's own tests. It does no real audio I/O; playback time is
// driven explicitly by the test via Consume, rather than by a real clock,
// so refill/retirement logic can be asserted step by step.
//
// It plays the same role a no-op streamer plays for a game server: a
// do-nothing stand-in that satisfies the real interface so the rest of the
// system can run without a real device.
package testdevice

import (
	"fmt"

	"github.com/supergoongaming/sg-sound/internal/backend"
)

type voice struct {
	state   backend.VoiceState
	gain    float64
	queue   []backend.BufferHandle // queued, not yet consumed, front-to-back
	pending []backend.BufferHandle // consumed, waiting for DequeueConsumed
}

// Device is a fake backend.Device for tests.
type Device struct {
	nextBuffer backend.BufferHandle
	nextVoice  backend.VoiceHandle

	buffers map[backend.BufferHandle][]byte
	voices  map[backend.VoiceHandle]*voice

	// FailUpload, when true, makes UploadPCM return backend.ErrBackend.
	FailUpload bool
}

// New returns an empty Device.
func New() *Device {
	return &Device{
		buffers: make(map[backend.BufferHandle][]byte),
		voices:  make(map[backend.VoiceHandle]*voice),
	}
}

func (d *Device) CreateBuffers(n int) ([]backend.BufferHandle, error) {
	out := make([]backend.BufferHandle, n)
	for i := range out {
		d.nextBuffer++
		d.buffers[d.nextBuffer] = nil
		out[i] = d.nextBuffer
	}
	return out, nil
}

func (d *Device) CreateVoices(n int) ([]backend.VoiceHandle, error) {
	out := make([]backend.VoiceHandle, n)
	for i := range out {
		d.nextVoice++
		d.voices[d.nextVoice] = &voice{state: backend.StateInitial, gain: 1.0}
		out[i] = d.nextVoice
	}
	return out, nil
}

func (d *Device) DestroyBuffers(bufs []backend.BufferHandle) error {
	for _, b := range bufs {
		delete(d.buffers, b)
	}
	return nil
}

func (d *Device) DestroyVoices(voices []backend.VoiceHandle) error {
	for _, v := range voices {
		delete(d.voices, v)
	}
	return nil
}

func (d *Device) mustVoice(v backend.VoiceHandle) (*voice, error) {
	vv, ok := d.voices[v]
	if !ok {
		return nil, fmt.Errorf("%w: unknown voice %d", backend.ErrBackend, v)
	}
	return vv, nil
}

func (d *Device) SetVoiceSpatial(v backend.VoiceHandle) error {
	_, err := d.mustVoice(v)
	return err
}

func (d *Device) SetGain(v backend.VoiceHandle, gain float64) error {
	vv, err := d.mustVoice(v)
	if err != nil {
		return err
	}
	vv.gain = gain
	return nil
}

// Gain returns the last gain set on a voice, for test assertions.
func (d *Device) Gain(v backend.VoiceHandle) float64 {
	vv, ok := d.voices[v]
	if !ok {
		return 0
	}
	return vv.gain
}

func (d *Device) UploadPCM(buf backend.BufferHandle, tag backend.FormatTag, sampleRate int, pcm []byte) error {
	if d.FailUpload {
		return fmt.Errorf("%w: upload failed", backend.ErrBackend)
	}
	if _, ok := d.buffers[buf]; !ok {
		return fmt.Errorf("%w: unknown buffer %d", backend.ErrBackend, buf)
	}
	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	d.buffers[buf] = cp
	return nil
}

// BufferLen returns the number of bytes last uploaded to a buffer.
func (d *Device) BufferLen(buf backend.BufferHandle) int {
	return len(d.buffers[buf])
}

func (d *Device) QueueBuffers(v backend.VoiceHandle, bufs []backend.BufferHandle) error {
	vv, err := d.mustVoice(v)
	if err != nil {
		return err
	}
	vv.queue = append(vv.queue, bufs...)
	return nil
}

func (d *Device) DequeueConsumed(v backend.VoiceHandle, max int) ([]backend.BufferHandle, error) {
	vv, err := d.mustVoice(v)
	if err != nil {
		return nil, err
	}
	if max > len(vv.pending) {
		max = len(vv.pending)
	}
	out := vv.pending[:max]
	vv.pending = vv.pending[max:]
	return out, nil
}

func (d *Device) ClearQueue(v backend.VoiceHandle) error {
	vv, err := d.mustVoice(v)
	if err != nil {
		return err
	}
	vv.queue = nil
	vv.pending = nil
	return nil
}

func (d *Device) VoiceState(v backend.VoiceHandle) (backend.VoiceState, error) {
	vv, err := d.mustVoice(v)
	if err != nil {
		return backend.StateInitial, err
	}
	return vv.state, nil
}

func (d *Device) BuffersProcessed(v backend.VoiceHandle) (int, error) {
	vv, err := d.mustVoice(v)
	if err != nil {
		return 0, err
	}
	return len(vv.pending), nil
}

func (d *Device) BuffersQueued(v backend.VoiceHandle) (int, error) {
	vv, err := d.mustVoice(v)
	if err != nil {
		return 0, err
	}
	return len(vv.queue) + len(vv.pending), nil
}

func (d *Device) Play(v backend.VoiceHandle) error {
	vv, err := d.mustVoice(v)
	if err != nil {
		return err
	}
	vv.state = backend.StatePlaying
	return nil
}

func (d *Device) Pause(v backend.VoiceHandle) error {
	vv, err := d.mustVoice(v)
	if err != nil {
		return err
	}
	vv.state = backend.StatePaused
	return nil
}

func (d *Device) Stop(v backend.VoiceHandle) error {
	vv, err := d.mustVoice(v)
	if err != nil {
		return err
	}
	vv.state = backend.StateStopped
	vv.queue = nil
	vv.pending = nil
	return nil
}

func (d *Device) Rewind(v backend.VoiceHandle) error {
	_, err := d.mustVoice(v)
	return err
}

// Consume simulates n buffers of playback completing on a voice: it moves
// up to n buffers from the front of the queue into the pending-dequeue
// list, and, if the queue drains completely, flips the voice to Stopped,
// mirroring what a real device reports when a source starves.
func (d *Device) Consume(v backend.VoiceHandle, n int) error {
	vv, err := d.mustVoice(v)
	if err != nil {
		return err
	}
	if n > len(vv.queue) {
		n = len(vv.queue)
	}
	vv.pending = append(vv.pending, vv.queue[:n]...)
	vv.queue = vv.queue[n:]
	if len(vv.queue) == 0 && len(vv.pending) > 0 && vv.state == backend.StatePlaying {
		vv.state = backend.StateStopped
	}
	return nil
}
