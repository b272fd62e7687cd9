// Package sgsound is the public façade: one Engine per caller, holding
// exactly one streaming BGM player and one SFX mixer against a single
// shared output device, matching the original "one BGM, one mixer"
// process-wide design but as an ordinary object instead of package-level
// globals, so a test (or a host embedding multiple audio contexts) can
// construct more than one.
package sgsound

import (
	"fmt"

	"github.com/supergoongaming/sg-sound/internal/backend"
	"github.com/supergoongaming/sg-sound/internal/backend/beepdevice"
	"github.com/supergoongaming/sg-sound/internal/sfxmixer"
	"github.com/supergoongaming/sg-sound/internal/sounderr"
	"github.com/supergoongaming/sg-sound/internal/soundcfg"
	"github.com/supergoongaming/sg-sound/internal/stream"
	"github.com/supergoongaming/sg-sound/internal/vorbis"
)

// Engine is the engine object design notes call for: one BGM player, one
// SFX mixer, one output device, all owned by this value rather than by
// process-wide state.
type Engine struct {
	dev    backend.Device
	player *stream.Player
	mixer  *sfxmixer.Mixer

	assets      map[int]*sfxmixer.Asset
	nextAssetID int
}

func vorbisOpener(path string) (vorbis.Source, error) {
	return vorbis.Open(path)
}

// New initializes the output device at cfg's sample rate and buffer size
// and allocates the stream player's and SFX mixer's buffers and voices on
// it. This is the façade's `initialize()`.
func New(cfg soundcfg.EngineConfig) (*Engine, error) {
	dev, err := beepdevice.New(cfg.SampleRate, cfg.DeviceBufferSize)
	if err != nil {
		return nil, fmt.Errorf("sgsound: initialize output device: %w", err)
	}
	return newEngine(dev, vorbisOpener)
}

// newEngine builds the engine against an arbitrary backend.Device and
// Vorbis opener, so tests can substitute testdevice.Device and
// vorbis.ToneSource for the real output device and decoder.
func newEngine(dev backend.Device, opener func(path string) (vorbis.Source, error)) (*Engine, error) {
	player, err := stream.New(dev, opener)
	if err != nil {
		return nil, fmt.Errorf("sgsound: initialize stream player: %w", err)
	}
	mixer, err := sfxmixer.New(dev, opener)
	if err != nil {
		return nil, fmt.Errorf("sgsound: initialize sfx mixer: %w", err)
	}
	return &Engine{
		dev:    dev,
		player: player,
		mixer:  mixer,
		assets: make(map[int]*sfxmixer.Asset),
	}, nil
}

// LoadBgm validates loop points and returns a descriptor for later use
// with PlayBgm. It performs no file I/O; opening happens at PlayBgm time.
func (e *Engine) LoadBgm(path string, loopBeginSeconds, loopEndSeconds *float64) (BgmDescriptor, error) {
	if loopBeginSeconds != nil && loopEndSeconds != nil && *loopBeginSeconds >= *loopEndSeconds {
		return BgmDescriptor{}, fmt.Errorf("sgsound: loop begin (%.3fs) must be before loop end (%.3fs)", *loopBeginSeconds, *loopEndSeconds)
	}
	return BgmDescriptor{
		Path:             path,
		LoopBeginSeconds: loopBeginSeconds,
		LoopEndSeconds:   loopEndSeconds,
	}, nil
}

// PlayBgm opens and prebakes descriptor's file and starts it playing at
// gain. Any BGM already playing is closed first (S6 in the testable
// properties: re-open closes the prior source).
func (e *Engine) PlayBgm(descriptor BgmDescriptor, gain float64) error {
	loops := stream.LoopPoints{
		Begin: descriptor.LoopBeginSeconds,
		End:   descriptor.LoopEndSeconds,
	}
	if err := e.player.Prebake(descriptor.Path, loops, gain); err != nil {
		return err
	}
	return e.player.Start()
}

// StopBgm stops playback and closes the underlying file. It reports false
// if no BGM was loaded.
func (e *Engine) StopBgm() bool {
	if e.player.State() == stream.StateEmpty {
		return false
	}
	e.player.Stop()
	return true
}

// PauseBgm pauses the BGM if it is currently playing. It is a no-op
// (returns false) otherwise, including when no BGM is loaded (S4).
func (e *Engine) PauseBgm() bool {
	return e.player.Pause()
}

// UnpauseBgm resumes the BGM. It fails with ErrNoBgmLoaded if no file has
// been prebaked.
func (e *Engine) UnpauseBgm() error {
	if e.player.State() == stream.StateEmpty {
		return sounderr.NoBgmLoaded
	}
	return e.player.Unpause()
}

// LoadSfx decodes path entirely into memory and returns a handle for
// later PlaySfxOneShot/UnloadSfx calls.
func (e *Engine) LoadSfx(path string) (SfxHandle, error) {
	asset, err := e.mixer.Load(path)
	if err != nil {
		return SfxHandle{}, err
	}
	e.nextAssetID++
	id := e.nextAssetID
	e.assets[id] = asset
	return SfxHandle{id: id}, nil
}

// UnloadSfx releases an SFX asset's memory. It reports false if handle is
// unknown (already unloaded, or never loaded by this engine).
func (e *Engine) UnloadSfx(handle SfxHandle) bool {
	asset, ok := e.assets[handle.id]
	if !ok {
		return false
	}
	e.mixer.Unload(asset)
	delete(e.assets, handle.id)
	return true
}

// PlaySfxOneShot starts handle's asset playing at gain on a free voice. It
// reports false, with no error, if the voice pool is saturated
// (ErrNoFreeVoice territory, but not an error in the taxonomy sense).
func (e *Engine) PlaySfxOneShot(handle SfxHandle, gain float64) (bool, error) {
	asset, ok := e.assets[handle.id]
	if !ok {
		return false, fmt.Errorf("sgsound: play handle %d: %w", handle.id, sounderr.SfxNotLoaded)
	}
	return e.mixer.Play(asset, gain)
}

// Tick runs one frame: the BGM refill, then SFX voice retirement, in that
// order, so a one-shot fired this frame can't retire before the BGM has
// had its own chance to refill.
func (e *Engine) Tick() {
	e.player.Tick()
	e.mixer.Tick()
}

// Shutdown destroys every buffer and voice owned by the BGM player and
// SFX mixer and releases the output device.
func (e *Engine) Shutdown() {
	e.player.Close()
	e.mixer.Close()
	if closer, ok := e.dev.(interface{ Close() }); ok {
		closer.Close()
	}
}
