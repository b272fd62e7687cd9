package sgsound

// BgmDescriptor names a BGM file and its loop points. It is immutable
// once created and is only ever read by the engine, never mutated.
type BgmDescriptor struct {
	Path string

	// LoopBeginSeconds and LoopEndSeconds are optional: nil means "start
	// of file" and "end of file" respectively. When both are set,
	// LoopBeginSeconds must be less than LoopEndSeconds.
	LoopBeginSeconds *float64
	LoopEndSeconds   *float64
}

// NewBgmDescriptor builds a descriptor with unspecified loop points
// (the whole file loops).
func NewBgmDescriptor(path string) BgmDescriptor {
	return BgmDescriptor{Path: path}
}

// WithLoopPoints returns a copy of d with explicit loop-begin/loop-end
// timestamps, in seconds.
func (d BgmDescriptor) WithLoopPoints(beginSeconds, endSeconds float64) BgmDescriptor {
	d.LoopBeginSeconds = &beginSeconds
	d.LoopEndSeconds = &endSeconds
	return d
}

// SfxHandle identifies a loaded SfxAsset the caller holds across
// LoadSfx/PlaySfxOneShot/UnloadSfx calls.
type SfxHandle struct {
	id int
}
