package sfxmixer

import (
	"testing"

	"github.com/supergoongaming/sg-sound/internal/backend/testdevice"
	"github.com/supergoongaming/sg-sound/internal/soundcfg"
	"github.com/supergoongaming/sg-sound/internal/vorbis"
)

func toneOpener(totalFrames int64, channels int) Opener {
	return func(path string) (vorbis.Source, error) {
		return vorbis.NewToneSource(channels, 44100, totalFrames, 880), nil
	}
}

func newTestMixer(t *testing.T, dev *testdevice.Device) *Mixer {
	t.Helper()
	m, err := New(dev, toneOpener(4410, 2)) // a short, bounded blip
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestLoadDecodesEntireAsset(t *testing.T) {
	dev := testdevice.New()
	m := newTestMixer(t, dev)

	asset, err := m.Load("blip.ogg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantBytes := 4410 * 2 * 2 // frames * channels * bytes-per-sample
	if len(asset.pcm) != wantBytes {
		t.Errorf("expected %d decoded bytes, got %d", wantBytes, len(asset.pcm))
	}
	if asset.channelCount != 2 {
		t.Errorf("expected stereo asset, got channel count %d", asset.channelCount)
	}
}

// TestPlayPopsAFreeVoice verifies a successful one-shot moves a voice
// from the free pool to the active set.
func TestPlayPopsAFreeVoice(t *testing.T) {
	dev := testdevice.New()
	m := newTestMixer(t, dev)
	asset, err := m.Load("blip.ogg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	played, err := m.Play(asset, 1.0)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !played {
		t.Fatal("expected Play to succeed")
	}
	if m.FreeCount() != soundcfg.NumSfxVoices-1 {
		t.Errorf("expected %d free voices remaining, got %d", soundcfg.NumSfxVoices-1, m.FreeCount())
	}
	if m.ActiveCount() != 1 {
		t.Errorf("expected 1 active voice, got %d", m.ActiveCount())
	}
}

// TestSfxPoolSaturation covers S3: ten plays succeed, the eleventh is
// dropped, and after the active voices retire the pool refills.
func TestSfxPoolSaturation(t *testing.T) {
	dev := testdevice.New()
	m := newTestMixer(t, dev)
	asset, err := m.Load("blip.ogg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i := 0; i < soundcfg.NumSfxVoices; i++ {
		played, err := m.Play(asset, 1.0)
		if err != nil {
			t.Fatalf("play %d: %v", i, err)
		}
		if !played {
			t.Fatalf("play %d: expected success before saturation", i)
		}
	}

	played, err := m.Play(asset, 1.0)
	if err != nil {
		t.Fatalf("eleventh play: unexpected error %v", err)
	}
	if played {
		t.Fatal("expected the eleventh play to be dropped")
	}

	// Simulate every voice's single queued buffer finishing, then retire.
	for _, idx := range m.active.Values() {
		if err := dev.Consume(m.voices[idx], 1); err != nil {
			t.Fatalf("consume voice %d: %v", idx, err)
		}
	}
	m.Tick()

	if m.FreeCount() != soundcfg.NumSfxVoices {
		t.Fatalf("expected all voices retired, free=%d", m.FreeCount())
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("expected no active voices after retirement, got %d", m.ActiveCount())
	}

	for i := 0; i < soundcfg.NumSfxVoices; i++ {
		played, err := m.Play(asset, 1.0)
		if err != nil {
			t.Fatalf("post-retirement play %d: %v", i, err)
		}
		if !played {
			t.Fatalf("post-retirement play %d: expected success", i)
		}
	}
}

// TestPoolLIFO covers testable property 6: repeatedly playing and
// immediately retiring one SFX always yields the same voice index.
func TestPoolLIFO(t *testing.T) {
	dev := testdevice.New()
	m := newTestMixer(t, dev)
	asset, err := m.Load("blip.ogg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var lastIdx = -1
	for i := 0; i < 5; i++ {
		if _, err := m.Play(asset, 1.0); err != nil {
			t.Fatalf("play %d: %v", i, err)
		}
		active := m.active.Values()
		if len(active) != 1 {
			t.Fatalf("expected exactly 1 active voice, got %d", len(active))
		}
		idx := active[0]
		if lastIdx != -1 && idx != lastIdx {
			t.Errorf("iteration %d: expected voice %d again, got %d", i, lastIdx, idx)
		}
		lastIdx = idx

		if err := dev.Consume(m.voices[idx], 1); err != nil {
			t.Fatalf("consume: %v", err)
		}
		m.Tick()
	}
}

func TestUnloadReleasesPCM(t *testing.T) {
	dev := testdevice.New()
	m := newTestMixer(t, dev)
	asset, err := m.Load("blip.ogg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.Unload(asset)
	if asset.pcm != nil {
		t.Error("expected Unload to release the asset's PCM buffer")
	}
}
