// Package sounderr holds the engine's error-kind sentinels, shared
// between internal/stream, internal/sfxmixer, and the public sgsound
// facade so all three compare against (and wrap) the same values.
package sounderr

import "errors"

var (
	// AudioOpenFailed: the path or decoder rejected a file.
	AudioOpenFailed = errors.New("audio open failed")
	// UnsupportedChannelCount: a file has neither one nor two channels.
	UnsupportedChannelCount = errors.New("unsupported channel count")
	// BackendError: the output device returned an error on upload,
	// queue, or a playback transition.
	BackendError = errors.New("backend error")
	// NoFreeVoice: PlaySfxOneShot was called with the free pool empty.
	NoFreeVoice = errors.New("no free sfx voice")
	// NoBgmLoaded: UnpauseBgm was called with no BGM prebaked.
	NoBgmLoaded = errors.New("no bgm loaded")
	// SfxNotLoaded: PlaySfxOneShot was called with a handle the engine
	// never loaded (or already unloaded). UnloadSfx reports that case as
	// false instead.
	SfxNotLoaded = errors.New("sfx not loaded")
)
