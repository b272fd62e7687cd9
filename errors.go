package sgsound

import "github.com/supergoongaming/sg-sound/internal/sounderr"

// Error kinds from the engine's error taxonomy, re-exported so callers
// never need to import an internal package to use errors.Is against them.
var (
	ErrAudioOpenFailed         = sounderr.AudioOpenFailed
	ErrUnsupportedChannelCount = sounderr.UnsupportedChannelCount
	ErrBackendError            = sounderr.BackendError
	ErrNoFreeVoice             = sounderr.NoFreeVoice
	ErrNoBgmLoaded             = sounderr.NoBgmLoaded
	ErrSfxNotLoaded            = sounderr.SfxNotLoaded
)
