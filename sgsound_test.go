package sgsound

import (
	"errors"
	"testing"

	"github.com/supergoongaming/sg-sound/internal/backend/testdevice"
	"github.com/supergoongaming/sg-sound/internal/stream"
	"github.com/supergoongaming/sg-sound/internal/vorbis"
)

func newTestEngine(t *testing.T, totalFrames int64) (*Engine, *testdevice.Device) {
	t.Helper()
	dev := testdevice.New()
	opener := func(path string) (vorbis.Source, error) {
		return vorbis.NewToneSource(2, 44100, totalFrames, 440), nil
	}
	e, err := newEngine(dev, opener)
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	return e, dev
}

func TestPlayBgmThenTickKeepsPlaying(t *testing.T) {
	e, _ := newTestEngine(t, 1_000_000)

	desc, err := e.LoadBgm("song.ogg", nil, nil)
	if err != nil {
		t.Fatalf("LoadBgm: %v", err)
	}
	if err := e.PlayBgm(desc, 0.8); err != nil {
		t.Fatalf("PlayBgm: %v", err)
	}

	for i := 0; i < 10; i++ {
		e.Tick()
	}
	if st := e.player.State(); st != stream.StatePlaying {
		t.Errorf("expected BGM still playing after ticks, got %v", st)
	}

	if !e.StopBgm() {
		t.Error("expected StopBgm to report true after a loaded BGM")
	}
	if e.StopBgm() {
		t.Error("expected a second StopBgm to report false")
	}
}

func TestLoadBgmRejectsInvertedLoopPoints(t *testing.T) {
	e, _ := newTestEngine(t, 1_000_000)

	begin, end := 10.0, 5.0
	if _, err := e.LoadBgm("song.ogg", &begin, &end); err == nil {
		t.Error("expected LoadBgm to reject loop_begin >= loop_end")
	}
}

func TestUnpauseBgmWithoutLoadFails(t *testing.T) {
	e, _ := newTestEngine(t, 1_000_000)

	if err := e.UnpauseBgm(); err == nil {
		t.Error("expected UnpauseBgm to fail with no BGM loaded")
	}
}

func TestSfxLoadPlayUnload(t *testing.T) {
	e, dev := newTestEngine(t, 1_000_000)

	handle, err := e.LoadSfx("blip.ogg")
	if err != nil {
		t.Fatalf("LoadSfx: %v", err)
	}

	played, err := e.PlaySfxOneShot(handle, 1.0)
	if err != nil {
		t.Fatalf("PlaySfxOneShot: %v", err)
	}
	if !played {
		t.Fatal("expected the one-shot to play")
	}

	e.Tick() // nothing to retire yet, should not panic
	_ = dev

	if !e.UnloadSfx(handle) {
		t.Error("expected UnloadSfx to succeed")
	}
	if e.UnloadSfx(handle) {
		t.Error("expected a second UnloadSfx to fail")
	}
}

func TestPlaySfxOneShotUnknownHandle(t *testing.T) {
	e, _ := newTestEngine(t, 1_000_000)

	if _, err := e.PlaySfxOneShot(SfxHandle{}, 1.0); !errors.Is(err, ErrSfxNotLoaded) {
		t.Errorf("expected ErrSfxNotLoaded, got %v", err)
	}
}

func TestShutdownReleasesResources(t *testing.T) {
	e, _ := newTestEngine(t, 1_000_000)
	desc, _ := e.LoadBgm("song.ogg", nil, nil)
	if err := e.PlayBgm(desc, 1.0); err != nil {
		t.Fatalf("PlayBgm: %v", err)
	}
	e.Shutdown() // must not panic even with BGM still playing
}
