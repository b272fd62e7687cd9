// Package stream implements the streaming BGM player: a decoder state
// machine that keeps a ring of four decoded PCM buffers queued on one
// output voice, refills consumed buffers on each tick, and handles the
// loop-point discontinuity without gaps or overruns, grounded on the
// original C implementation's StreamPlayer in
// original_source/src/SupergoonSound/sound/openal.c (PreBakeBgm,
// UpdatePlayer, LoadBufferData, RestartStream), reimplemented against
// internal/backend.Device and internal/vorbis.Source instead of raw
// OpenAL/libvorbisfile calls.
package stream

import (
	"fmt"

	"github.com/supergoongaming/sg-sound/internal/backend"
	"github.com/supergoongaming/sg-sound/internal/metrics"
	"github.com/supergoongaming/sg-sound/internal/ratelog"
	"github.com/supergoongaming/sg-sound/internal/sounderr"
	"github.com/supergoongaming/sg-sound/internal/soundcfg"
	"github.com/supergoongaming/sg-sound/internal/vorbis"
)

// FillOutcome is produced by each decode-into-scratch call.
type FillOutcome int

const (
	FillNormal FillOutcome = iota
	FillReachedEndOfFile
	FillReachedLoopEnd
)

// State is the player's lifecycle state.
type State int

const (
	StateEmpty State = iota
	StatePrebaked
	StatePlaying
	StatePaused
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StatePrebaked:
		return "Prebaked"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateDrained:
		return "Drained"
	default:
		return "Unknown"
	}
}

// Opener opens a Vorbis source by path. The real facade passes
// vorbis.Open; tests pass a fake that ignores the path.
type Opener func(path string) (vorbis.Source, error)

// LoopPoints are the optional caller-supplied loop boundaries, in seconds.
// A nil pointer means "start of file" (Begin) or "end of file" (End).
type LoopPoints struct {
	Begin *float64
	End   *float64
}

// Player is the BGM stream player. Exactly one is expected per engine.
type Player struct {
	dev    backend.Device
	opener Opener

	buffers [soundcfg.BgmNumBuffers]backend.BufferHandle
	voice   backend.VoiceHandle

	src          vorbis.Source
	channelCount int
	sampleRate   int
	format       backend.FormatTag

	loopBeginFrames int64
	loopEndBytes    int64
	bytesReadLoop   int64

	scratch []byte

	state State

	warn *ratelog.Limiter
}

// New allocates the player's four buffers and one voice on dev. The
// player starts in StateEmpty.
func New(dev backend.Device, opener Opener) (*Player, error) {
	bufs, err := dev.CreateBuffers(soundcfg.BgmNumBuffers)
	if err != nil {
		return nil, fmt.Errorf("stream: create buffers: %w", err)
	}
	voices, err := dev.CreateVoices(1)
	if err != nil {
		return nil, fmt.Errorf("stream: create voice: %w", err)
	}
	p := &Player{
		dev:     dev,
		opener:  opener,
		voice:   voices[0],
		scratch: make([]byte, soundcfg.BgmBufferBytes),
		state:   StateEmpty,
		warn:    ratelog.New(1),
	}
	copy(p.buffers[:], bufs)
	if err := dev.SetVoiceSpatial(p.voice); err != nil {
		logBackend(p, "set voice spatial", err)
	}
	return p, nil
}

func logBackend(p *Player, op string, err error) {
	metrics.BackendErrorsTotal.WithLabelValues(op).Inc()
	p.warn.Printf("stream: backend error during %s: %v", op, err)
}

// State reports the player's current lifecycle state.
func (p *Player) State() State { return p.state }

// Open opens path, classifying its channel count and resolving loop
// points. If a file is currently loaded it is closed first. The voice is
// left stopped with an empty queue.
func (p *Player) Open(path string, loops LoopPoints) error {
	if p.src != nil {
		p.closeFile()
	}
	p.state = StateEmpty
	if err := p.dev.Stop(p.voice); err != nil {
		logBackend(p, "stop", err)
	}
	if err := p.dev.ClearQueue(p.voice); err != nil {
		logBackend(p, "clear queue", err)
	}

	src, err := p.opener(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", sounderr.AudioOpenFailed, path, err)
	}

	channels := src.ChannelCount()
	var tag backend.FormatTag
	switch channels {
	case 1:
		tag = backend.FormatMono16
	case 2:
		tag = backend.FormatStereo16
	default:
		src.Close()
		return fmt.Errorf("%w: %d channels in %s", sounderr.UnsupportedChannelCount, channels, path)
	}

	p.src = src
	p.channelCount = channels
	p.sampleRate = src.SampleRate()
	p.format = tag
	p.bytesReadLoop = 0

	if err := p.resolveLoopPoints(loops); err != nil {
		src.Close()
		p.src = nil
		return err
	}

	p.state = StateEmpty
	return nil
}

// resolveLoopPoints resolves the loop-begin PCM frame and loop-end byte
// ceiling from the caller-supplied (optional) timestamps.
func (p *Player) resolveLoopPoints(loops LoopPoints) error {
	movedFromStart := false

	if loops.Begin != nil {
		if err := p.src.SeekSeconds(*loops.Begin); err != nil {
			return fmt.Errorf("%w: seek loop begin: %v", sounderr.AudioOpenFailed, err)
		}
		p.loopBeginFrames = p.src.TellPCMFrames()
		movedFromStart = true
	} else {
		p.loopBeginFrames = p.src.TellPCMFrames()
	}

	bytesPerFrame := int64(p.channelCount * 2)
	if loops.End != nil {
		if err := p.src.SeekSeconds(*loops.End); err != nil {
			return fmt.Errorf("%w: seek loop end: %v", sounderr.AudioOpenFailed, err)
		}
		p.loopEndBytes = p.src.TellPCMFrames() * bytesPerFrame
		movedFromStart = true
	} else {
		p.loopEndBytes = p.src.TotalPCMFrames() * bytesPerFrame
	}

	if movedFromStart {
		if err := p.src.SeekPCMFrames(0); err != nil {
			return fmt.Errorf("%w: rewind after loop resolution: %v", sounderr.AudioOpenFailed, err)
		}
	}
	return nil
}

// Prebake opens path, rewinds the voice, sets its gain, and fills+queues
// all four buffers.
func (p *Player) Prebake(path string, loops LoopPoints, gain float64) error {
	if err := p.Open(path, loops); err != nil {
		return err
	}

	if err := p.dev.Rewind(p.voice); err != nil {
		logBackend(p, "rewind", err)
	}
	if err := p.dev.ClearQueue(p.voice); err != nil {
		logBackend(p, "clear queue", err)
	}
	if err := p.dev.SetGain(p.voice, gain); err != nil {
		logBackend(p, "set gain", err)
	}

	toQueue := make([]backend.BufferHandle, 0, soundcfg.BgmNumBuffers)
	for _, buf := range p.buffers {
		n, outcome := p.decodeIntoScratch()
		if err := p.dev.UploadPCM(buf, p.format, p.sampleRate, p.scratch[:n]); err != nil {
			p.closeFile()
			return fmt.Errorf("%w: upload during prebake: %v", sounderr.BackendError, err)
		}
		toQueue = append(toQueue, buf)
		if outcome == FillReachedEndOfFile || outcome == FillReachedLoopEnd {
			p.restartLoop()
		}
	}
	if err := p.dev.QueueBuffers(p.voice, toQueue); err != nil {
		p.closeFile()
		return fmt.Errorf("%w: queue during prebake: %v", sounderr.BackendError, err)
	}

	p.state = StatePrebaked
	return nil
}

// Start transitions the voice to Playing.
func (p *Player) Start() error {
	if err := p.dev.Play(p.voice); err != nil {
		p.closeFile()
		return fmt.Errorf("%w: start: %v", sounderr.BackendError, err)
	}
	p.state = StatePlaying
	return nil
}

// Stop stops the voice, clears its buffer binding, and closes the file.
func (p *Player) Stop() {
	p.dev.Stop(p.voice)
	p.dev.ClearQueue(p.voice)
	p.closeFile()
	p.state = StateEmpty
}

// Pause pauses the voice if it is Playing. It returns false and does
// nothing otherwise.
func (p *Player) Pause() bool {
	st, err := p.dev.VoiceState(p.voice)
	if err != nil {
		logBackend(p, "query voice state", err)
		return false
	}
	if st != backend.StatePlaying {
		return false
	}
	if err := p.dev.Pause(p.voice); err != nil {
		logBackend(p, "pause", err)
		return false
	}
	p.state = StatePaused
	return true
}

// Unpause resumes playback: if the voice is Paused it resumes, otherwise
// it plays from the current position.
func (p *Player) Unpause() error {
	st, err := p.dev.VoiceState(p.voice)
	if err != nil {
		return fmt.Errorf("%w: query voice state: %v", sounderr.BackendError, err)
	}
	if st == backend.StatePaused {
		if err := p.dev.Play(p.voice); err != nil {
			return fmt.Errorf("%w: unpause: %v", sounderr.BackendError, err)
		}
		p.state = StatePlaying
		return nil
	}
	if err := p.dev.Play(p.voice); err != nil {
		return fmt.Errorf("%w: unpause: %v", sounderr.BackendError, err)
	}
	p.state = StatePlaying
	return nil
}

// Close closes any open file and destroys the player's buffers and voice.
// It is legal from any state.
func (p *Player) Close() {
	p.closeFile()
	p.dev.DestroyBuffers(p.buffers[:])
	p.dev.DestroyVoices([]backend.VoiceHandle{p.voice})
}

func (p *Player) closeFile() {
	if p.src != nil {
		p.src.Close()
		p.src = nil
	}
	p.bytesReadLoop = 0
}

// Tick runs the per-frame refill routine: consumed buffers are
// re-decoded and re-queued, and a starved voice is restarted.
func (p *Player) Tick() {
	if p.state != StatePlaying && p.state != StatePaused {
		return
	}

	st, err := p.dev.VoiceState(p.voice)
	if err != nil {
		logBackend(p, "query voice state", err)
		return
	}
	queued, err := p.dev.BuffersQueued(p.voice)
	if err != nil {
		logBackend(p, "query buffers queued", err)
		return
	}
	if st == backend.StateStopped && queued == 0 {
		p.state = StateDrained
		return
	}
	if st == backend.StatePaused {
		return
	}

	processed, err := p.dev.BuffersProcessed(p.voice)
	if err != nil {
		logBackend(p, "query buffers processed", err)
		return
	}

	for processed > 0 {
		consumed, err := p.dev.DequeueConsumed(p.voice, 1)
		if err != nil {
			logBackend(p, "dequeue consumed", err)
			return
		}
		if len(consumed) == 0 {
			break
		}
		buf := consumed[0]

		n, outcome := p.decodeIntoScratch()
		if err := p.dev.UploadPCM(buf, p.format, p.sampleRate, p.scratch[:n]); err != nil {
			logBackend(p, "upload", err)
		}
		// buf always goes back on the queue, upload error or not: dropping
		// it here would shrink the ring by one slot per backend hiccup
		// until the voice starves with no buffers left to refill.
		if err := p.dev.QueueBuffers(p.voice, []backend.BufferHandle{buf}); err != nil {
			logBackend(p, "queue", err)
		}
		if outcome == FillReachedEndOfFile || outcome == FillReachedLoopEnd {
			p.restartLoop()
		}
		processed--
	}

	st, err = p.dev.VoiceState(p.voice)
	if err != nil {
		logBackend(p, "query voice state", err)
		return
	}
	if st != backend.StatePlaying && st != backend.StatePaused {
		metrics.BgmStarvedTotal.Inc()
		if err := p.dev.Play(p.voice); err != nil {
			logBackend(p, "restart playback", err)
			p.state = StateDrained
			return
		}
	}
	p.state = StatePlaying
}

// decodeIntoScratch fills the scratch buffer with up to BgmBufferBytes of
// PCM, honoring the loop-end byte ceiling.
func (p *Player) decodeIntoScratch() (int, FillOutcome) {
	outcome := FillNormal
	total := 0
	const req = soundcfg.VorbisRequestSize

	for total < soundcfg.BgmBufferBytes {
		request := req
		if total+request > soundcfg.BgmBufferBytes {
			request = soundcfg.BgmBufferBytes - total
		}
		if p.bytesReadLoop+int64(total+request) > p.loopEndBytes {
			request = int(p.loopEndBytes - (p.bytesReadLoop + int64(total)))
		}
		if request <= 0 {
			outcome = FillReachedLoopEnd
			break
		}

		n, err := p.src.Read(p.scratch[total : total+request])
		if err != nil {
			// Read errors beyond EOF are not part of the taxonomy; treat
			// as end of file so playback degrades gracefully.
			outcome = FillReachedEndOfFile
			break
		}
		if n == 0 {
			outcome = FillReachedEndOfFile
			break
		}
		total += n
	}

	p.bytesReadLoop += int64(total)
	return total, outcome
}

// restartLoop seeks back to the loop-begin point and recomputes
// bytesReadLoop from the decoder's actual post-seek position, since some
// codecs round seeks to block boundaries.
func (p *Player) restartLoop() {
	metrics.BgmLoopRestartsTotal.Inc()
	if err := p.src.SeekPCMFrames(p.loopBeginFrames); err != nil {
		logBackend(p, "loop restart seek", err)
		return
	}
	p.bytesReadLoop = p.src.TellPCMFrames() * int64(p.channelCount) * 2
}

// LoopPointBeginFrames and LoopPointEndBytes expose the resolved loop
// points, primarily for tests asserting loop-boundary behavior.
func (p *Player) LoopPointBeginFrames() int64 { return p.loopBeginFrames }
func (p *Player) LoopPointEndBytes() int64    { return p.loopEndBytes }
func (p *Player) BytesReadThisLoop() int64    { return p.bytesReadLoop }
