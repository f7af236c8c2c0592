// Package audio plays short synthesized effects for bubble pops and spawns.
// Audio is optional: when the device cannot be opened the player stays
// silent and every method is a no-op.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/pthm-cable/bubbles/config"
)

// referenceRadius is the radius that pops at the base frequency.
const referenceRadius = 20.0

// Player owns the speaker and mixes effect streams into it.
type Player struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	popDuration time.Duration
	baseFreq    float64
	enabled     bool
	mixer       *beep.Mixer
	initialized bool
}

// NewPlayer creates a player from the audio config. Init must be called
// before anything is heard.
func NewPlayer(cfg config.AudioConfig) *Player {
	return &Player{
		rate:        beep.SampleRate(cfg.SampleRate),
		popDuration: time.Duration(cfg.PopMillis) * time.Millisecond,
		baseFreq:    cfg.BaseFreq,
		enabled:     cfg.Enabled,
		mixer:       &beep.Mixer{},
	}
}

// Init opens the speaker. A disabled player returns nil without touching
// the device.
func (p *Player) Init() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized || !p.enabled {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(time.Second/10)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Active reports whether sound is being produced.
func (p *Player) Active() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// PlayPop plays a pop whose pitch falls with bubble size.
func (p *Player) PlayPop(radius float64) {
	if !p.Active() {
		return
	}
	n := p.rate.N(p.popDuration)
	p.add(beep.Take(n, NewPopGenerator(p.rate, PopFrequency(p.baseFreq, radius), n)))
}

// PlayBlip plays a short tone for a new bubble.
func (p *Player) PlayBlip() {
	if !p.Active() {
		return
	}
	sine, err := generators.SineTone(p.rate, p.baseFreq*1.5)
	if err != nil {
		return
	}
	p.add(beep.Take(p.rate.N(25*time.Millisecond), &quiet{Streamer: sine, gain: 0.15}))
}

func (p *Player) add(s beep.Streamer) {
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Close stops every playing stream.
func (p *Player) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// PopFrequency maps a bubble radius to a pop pitch. Larger bubbles are lower;
// the result is kept within two octaves of base.
func PopFrequency(base, radius float64) float64 {
	if radius <= 0 {
		return base * 2
	}
	f := base * math.Sqrt(referenceRadius/radius)
	return math.Max(base/2, math.Min(base*2, f))
}

// PopGenerator is a sine that drops an octave over its length with a fast
// exponential decay.
type PopGenerator struct {
	sr     beep.SampleRate
	freq   float64
	length int
	pos    int
	phase  float64
}

// NewPopGenerator creates a pop of length samples starting at freq.
func NewPopGenerator(sr beep.SampleRate, freq float64, length int) *PopGenerator {
	return &PopGenerator{sr: sr, freq: freq, length: length}
}

func (g *PopGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		progress := float64(g.pos) / float64(max(g.length, 1))
		freq := g.freq * (1 - 0.5*progress)
		g.phase += 2 * math.Pi * freq / float64(g.sr)

		envelope := math.Exp(-6 * progress)
		attack := math.Min(float64(g.pos)/float64(g.sr)/0.002, 1.0)
		sample := 0.35 * envelope * attack * math.Sin(g.phase)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *PopGenerator) Err() error {
	return nil
}

// quiet scales a streamer's amplitude.
type quiet struct {
	beep.Streamer
	gain float64
}

func (q *quiet) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = q.Streamer.Stream(samples)
	for i := range samples[:n] {
		samples[i][0] *= q.gain
		samples[i][1] *= q.gain
	}
	return n, ok
}
