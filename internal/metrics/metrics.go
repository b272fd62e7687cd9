// Package metrics wires the engine's few health signals into
// prometheus/client_golang, registering each with promauto.New....
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SfxVoicesActive tracks how many of the fixed SFX voices are
	// currently playing a one-shot.
	SfxVoicesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sg_sound_sfx_voices_active",
		Help: "Number of SFX voices currently playing a one-shot",
	})

	// SfxDroppedTotal counts PlaySfxOneShot calls that found the free
	// pool empty.
	SfxDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sg_sound_sfx_dropped_total",
		Help: "SFX one-shots dropped because no free voice was available",
	})

	// BgmLoopRestartsTotal counts how many times the stream player has
	// restarted at the loop-begin point.
	BgmLoopRestartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sg_sound_bgm_loop_restarts_total",
		Help: "Number of times BGM playback restarted at the loop point",
	})

	// BgmStarvedTotal counts ticks where the BGM voice drained faster
	// than it was refilled and had to be restarted mid-stream.
	BgmStarvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sg_sound_bgm_starved_total",
		Help: "Number of times the BGM voice starved and had to be replayed",
	})

	// BackendErrorsTotal counts non-fatal errors reported by the output
	// backend adapter, bucketed by the operation that failed. Label
	// values are the fixed operation names written at the stream player's
	// and SFX mixer's call sites (such as "upload", "queue", "rewind"),
	// never free-form strings, to keep cardinality bounded.
	BackendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sg_sound_backend_errors_total",
		Help: "Non-fatal backend errors logged by the stream player and SFX mixer",
	}, []string{"op"})
)
