// Package simulation owns the bubble population and drives it frame by frame:
// environment forces, per-bubble physics, splitting, spawning and the cap.
package simulation

import (
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bubbles/bubble"
	"github.com/pthm-cable/bubbles/config"
)

// Rand is the random source shared by the simulation and every bubble it creates.
type Rand = bubble.Rand

// Origin says how a bubble entered the population.
type Origin int

const (
	OriginSpawn    Origin = iota // random, mouse or burst spawn
	OriginSplit                  // offspring of a split
	OriginFragment               // debris of an exploded bubble
)

func (o Origin) String() string {
	switch o {
	case OriginSpawn:
		return "spawn"
	case OriginSplit:
		return "split"
	case OriginFragment:
		return "fragment"
	}
	return "unknown"
}

// Recorder receives population events. telemetry.Collector implements it.
type Recorder interface {
	RecordBirth(origin Origin)
	RecordDeath(cause bubble.Cause)
	RecordPop()
	RecordEviction(n int)
}

// PhaseTimer receives phase boundaries of Update. telemetry.PerfCollector implements it.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Phase names reported to the PhaseTimer.
const (
	PhaseWind      = "wind"
	PhasePhysics   = "physics"
	PhaseLifecycle = "lifecycle"
	PhaseSpawn     = "spawn"
	PhaseCull      = "cull"
)

// Simulation owns every bubble and the environment acting on them.
// It is not safe for concurrent use.
type Simulation struct {
	cfg *config.Config
	rng Rand

	width, height float64
	maxBubbles    int
	spawnRate     float64
	palette       []bubble.Color

	bubbles []*bubble.Bubble
	mouse   r2.Vec

	windDir      r2.Vec
	windStrength float64
	windTimer    float64

	repulsionStrength float64
	repulsionRadius   float64

	recorder Recorder
	timer    PhaseTimer
}

// New creates an empty simulation sized to the configured screen.
// A nil rng falls back to a time-seeded source.
func New(cfg *config.Config, rng Rand) *Simulation {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	palette := make([]bubble.Color, len(cfg.Spawn.Palette))
	for i, c := range cfg.Spawn.Palette {
		palette[i] = bubble.Color{R: c[0], G: c[1], B: c[2]}
	}

	s := &Simulation{
		cfg:        cfg,
		rng:        rng,
		width:      cfg.Derived.WorldW,
		height:     cfg.Derived.WorldH,
		maxBubbles: cfg.Population.MaxBubbles,
		spawnRate:  cfg.Population.SpawnRate,
		palette:    palette,
		mouse:      r2.Vec{X: float64(cfg.Screen.Width / 2), Y: float64(cfg.Screen.Height / 2)},
	}
	s.resetEnvironment()
	return s
}

// resetEnvironment restores wind and repulsion to their configured values.
func (s *Simulation) resetEnvironment() {
	s.windDir = r2.Vec{X: 1}
	s.windStrength = s.cfg.Wind.Strength
	s.windTimer = 0
	s.repulsionStrength = s.cfg.Repulsion.Strength
	s.repulsionRadius = s.cfg.Repulsion.Radius
}

// Reset clears the population, restores the environment and seeds the
// configured number of random bubbles.
func (s *Simulation) Reset() error {
	s.Clear()
	s.resetEnvironment()
	for i := 0; i < s.cfg.Population.Initial; i++ {
		if _, err := s.AddRandomBubble(); err != nil {
			return err
		}
	}
	return nil
}

// SetRecorder attaches a population event recorder. nil detaches.
func (s *Simulation) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetPhaseTimer attaches a phase timer. nil detaches.
func (s *Simulation) SetPhaseTimer(t PhaseTimer) {
	s.timer = t
}

func (s *Simulation) phase(name string) {
	if s.timer != nil {
		s.timer.StartPhase(name)
	}
}

func (s *Simulation) recordBirth(origin Origin) {
	if s.recorder != nil {
		s.recorder.RecordBirth(origin)
	}
}

// Update advances the simulation by dt. The caller is expected to clamp dt.
func (s *Simulation) Update(dt float64) {
	s.phase(PhaseWind)
	s.updateWind(dt)

	// Every bubble collides against this frame's list; bubbles updated
	// earlier in the loop have already moved.
	s.phase(PhasePhysics)
	current := s.bubbles
	alive := make([]bool, len(current))
	for i, b := range current {
		s.ApplyMouseRepulsion(b)
		s.ApplyWindEffect(b, dt)
		s.applyTurbulence(b, dt)
		alive[i] = b.Update(current, dt)
	}

	s.phase(PhaseLifecycle)
	survivors := make([]*bubble.Bubble, 0, len(current))
	var offspring []*bubble.Bubble
	for i, b := range current {
		if !alive[i] {
			if s.recorder != nil {
				s.recorder.RecordDeath(b.Cause())
			}
			continue
		}
		if b.ToSplit {
			child, err := b.Split()
			if err != nil {
				slog.Warn("split_failed", "bubble", b.String(), "error", err)
				if s.recorder != nil {
					s.recorder.RecordDeath(bubble.CauseSplitFailed)
				}
				continue
			}
			offspring = append(offspring, child)
			s.recordBirth(OriginSplit)
		}
		survivors = append(survivors, b)
	}
	s.bubbles = append(survivors, offspring...)

	s.phase(PhaseSpawn)
	if len(s.bubbles) < s.maxBubbles && s.rng.Float64() < s.spawnRate*dt {
		if _, err := s.AddRandomBubble(); err != nil {
			slog.Warn("spawn_failed", "error", err)
		}
	}

	s.phase(PhaseCull)
	s.enforceCap()
}

// enforceCap keeps the youngest maxBubbles bubbles. Ties keep list order.
func (s *Simulation) enforceCap() {
	if len(s.bubbles) <= s.maxBubbles {
		return
	}
	sort.SliceStable(s.bubbles, func(i, j int) bool {
		return s.bubbles[i].Age < s.bubbles[j].Age
	})
	evicted := len(s.bubbles) - s.maxBubbles
	for i := s.maxBubbles; i < len(s.bubbles); i++ {
		s.bubbles[i] = nil
	}
	s.bubbles = s.bubbles[:s.maxBubbles]
	if s.recorder != nil {
		s.recorder.RecordEviction(evicted)
	}
}

// Clear removes every bubble.
func (s *Simulation) Clear() {
	clear(s.bubbles)
	s.bubbles = s.bubbles[:0]
}

// Count returns the population size.
func (s *Simulation) Count() int {
	return len(s.bubbles)
}

// Bubbles returns the current population. Callers must not modify the slice
// and must not hold it across Update.
func (s *Simulation) Bubbles() []*bubble.Bubble {
	return s.bubbles
}

// MaxBubbles returns the population cap.
func (s *Simulation) MaxBubbles() int {
	return s.maxBubbles
}

// Size returns the world dimensions.
func (s *Simulation) Size() (width, height float64) {
	return s.width, s.height
}

// UpdateMousePosition sets the cursor position used by repulsion.
func (s *Simulation) UpdateMousePosition(x, y float64) {
	s.mouse = r2.Vec{X: x, Y: y}
}

// MousePosition returns the last cursor position.
func (s *Simulation) MousePosition() r2.Vec {
	return s.mouse
}
