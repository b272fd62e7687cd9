// Package soundcfg is the single source of truth for the engine's
// tunables, with a Default.../FromEnv() pair: hardcoded defaults and
// environment-variable overrides layered over them.
package soundcfg

import (
	"os"
	"strconv"
)

// Protocol-level constants fixed by the engine design; these are not
// configurable, unlike the tunables below.
const (
	// BgmBufferBytes is the size of one BGM decode/upload chunk.
	BgmBufferBytes = 8192
	// VorbisRequestSize is the per-call ceiling passed to the Vorbis
	// source's Read.
	VorbisRequestSize = 4096
	// BgmNumBuffers is the size of the BGM voice's buffer ring.
	BgmNumBuffers = 4
	// NumSfxVoices is the fixed SFX voice pool size.
	NumSfxVoices = 10
)

// EngineConfig holds the tunables that do vary by deployment: the output
// device's native sample rate and its driver buffer size.
type EngineConfig struct {
	SampleRate       int // native output sample rate in Hz
	DeviceBufferSize int // samples buffered between engine and driver
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		SampleRate:       44100,
		DeviceBufferSize: 4410, // ~100ms at 44100 Hz
	}
}

// EngineFromEnv returns the engine configuration with environment variable
// overrides layered over the defaults.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if sr := getEnvInt("SG_SOUND_SAMPLE_RATE", 0); sr > 0 {
		cfg.SampleRate = sr
	}
	if bs := getEnvInt("SG_SOUND_DEVICE_BUFFER", 0); bs > 0 {
		cfg.DeviceBufferSize = bs
	}

	return cfg
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
