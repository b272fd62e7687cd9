// Command demo is a headless tick-loop harness for the sound engine: it
// loads a BGM and, optionally, an SFX, plays them, and drives Tick() on a
// timer until interrupted. It owns no windowing or graphics; that's the
// host's job, out of scope per the engine's own design.
//
// USAGE:
//
//	go run ./cmd/demo -bgm assets/bgm/song.ogg -loop-begin 20.397 -loop-end 43.08
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/supergoongaming/sg-sound"
	"github.com/supergoongaming/sg-sound/internal/soundcfg"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	bgmPath := flag.String("bgm", getEnvWithDefault("SG_SOUND_BGM_PATH", "assets/bgm/song.ogg"), "path to the BGM Ogg Vorbis file")
	sfxPath := flag.String("sfx", getEnvWithDefault("SG_SOUND_SFX_PATH", ""), "optional path to an SFX Ogg Vorbis file, replayed every few seconds")
	loopBegin := flag.Float64("loop-begin", getEnvFloat("SG_SOUND_LOOP_BEGIN", -1), "loop-begin timestamp in seconds; negative means start of file")
	loopEnd := flag.Float64("loop-end", getEnvFloat("SG_SOUND_LOOP_END", -1), "loop-end timestamp in seconds; negative means end of file")
	bgmGain := flag.Float64("bgm-gain", getEnvFloat("SG_SOUND_BGM_GAIN", 0.5), "BGM gain multiplier")
	sfxGain := flag.Float64("sfx-gain", getEnvFloat("SG_SOUND_SFX_GAIN", 1.0), "SFX gain multiplier")
	tickHz := flag.Int("tick-hz", getEnvInt("SG_SOUND_TICK_HZ", 60), "ticks per second")
	sfxIntervalSeconds := flag.Float64("sfx-interval", getEnvFloat("SG_SOUND_SFX_INTERVAL", 2.0), "seconds between SFX replays")
	flag.Parse()

	log.Println("================================")
	log.Println("  sg-sound demo")
	log.Println("================================")

	cfg := soundcfg.EngineFromEnv()
	engine, err := sgsound.New(cfg)
	if err != nil {
		log.Fatalf("initialize engine: %v", err)
	}
	defer engine.Shutdown()

	descriptor, err := loadBgmDescriptor(engine, *bgmPath, *loopBegin, *loopEnd)
	if err != nil {
		log.Fatalf("load bgm: %v", err)
	}
	if err := engine.PlayBgm(descriptor, *bgmGain); err != nil {
		log.Fatalf("play bgm: %v", err)
	}
	log.Printf("playing %s (loop begin=%v end=%v) at gain %.2f", *bgmPath, descriptor.LoopBeginSeconds, descriptor.LoopEndSeconds, *bgmGain)

	var sfxHandle sgsound.SfxHandle
	haveSfx := *sfxPath != ""
	if haveSfx {
		sfxHandle, err = engine.LoadSfx(*sfxPath)
		if err != nil {
			log.Fatalf("load sfx: %v", err)
		}
		log.Printf("loaded sfx %s", *sfxPath)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	tickInterval := time.Second / time.Duration(*tickHz)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	sfxInterval := time.Duration(*sfxIntervalSeconds * float64(time.Second))
	nextSfxAt := time.Now().Add(sfxInterval)

	log.Println("ticking, press Ctrl+C to stop")
	for {
		select {
		case <-sigCh:
			log.Println("shutting down")
			return
		case now := <-ticker.C:
			engine.Tick()
			if haveSfx && !now.Before(nextSfxAt) {
				if played, err := engine.PlaySfxOneShot(sfxHandle, *sfxGain); err != nil {
					log.Printf("play sfx: %v", err)
				} else if !played {
					log.Println("sfx dropped: no free voice")
				}
				nextSfxAt = now.Add(sfxInterval)
			}
		}
	}
}

func loadBgmDescriptor(engine *sgsound.Engine, path string, loopBegin, loopEnd float64) (sgsound.BgmDescriptor, error) {
	var beginPtr, endPtr *float64
	if loopBegin >= 0 {
		beginPtr = &loopBegin
	}
	if loopEnd >= 0 {
		endPtr = &loopEnd
	}
	return engine.LoadBgm(path, beginPtr, endPtr)
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
