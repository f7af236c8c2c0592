// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Population PopulationConfig `yaml:"population"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	MouseSpawn MouseSpawnConfig `yaml:"mouse_spawn"`
	Fragments  FragmentConfig   `yaml:"fragments"`
	Burst      BurstConfig      `yaml:"burst"`
	Repulsion  RepulsionConfig  `yaml:"repulsion"`
	Wind       WindConfig       `yaml:"wind"`
	Turbulence TurbulenceConfig `yaml:"turbulence"`
	Input      InputConfig      `yaml:"input"`
	Render     RenderConfig     `yaml:"render"`
	Audio      AudioConfig      `yaml:"audio"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings. The simulated world has the same size.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds frame timing.
type PhysicsConfig struct {
	DT    float64 `yaml:"dt"`     // fixed step for headless runs
	MaxDT float64 `yaml:"max_dt"` // drivers clamp frame time to this
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial    int     `yaml:"initial"`
	MaxBubbles int     `yaml:"max_bubbles"`
	SpawnRate  float64 `yaml:"spawn_rate"` // expected random spawns per second
}

// Range is a closed interval [min, max].
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// SpawnConfig holds parameters for randomly spawned bubbles.
type SpawnConfig struct {
	Margin    float64      `yaml:"margin"` // keep spawns this far from the edges
	Radius    Range        `yaml:"radius"`
	SpeedX    Range        `yaml:"speed_x"`
	SpeedY    Range        `yaml:"speed_y"`
	MinRadius float64      `yaml:"min_radius"`
	MaxSpeed  float64      `yaml:"max_speed"`
	Density   float64      `yaml:"density"`
	Palette   [][3]float32 `yaml:"palette"`
}

// MouseSpawnConfig holds parameters for bubbles spawned at the cursor.
type MouseSpawnConfig struct {
	Offset     Range   `yaml:"offset"`
	AwayFactor float64 `yaml:"away_factor"`
	JitterX    Range   `yaml:"jitter_x"`
	JitterY    Range   `yaml:"jitter_y"`
	Radius     Range   `yaml:"radius"`
}

// FragmentConfig holds parameters for the debris of an exploded bubble.
type FragmentConfig struct {
	Count          Range   `yaml:"count"`
	Spread         float64 `yaml:"spread"` // max offset in original radii
	Speed          Range   `yaml:"speed"`
	MinSize        float64 `yaml:"min_size"`        // lower bound of fragment radius
	RadiusFraction float64 `yaml:"radius_fraction"` // upper bound, fraction of original radius
	MinRadius      float64 `yaml:"min_radius"`
	MaxSpeed       float64 `yaml:"max_speed"`
	Density        float64 `yaml:"density"`
	ColorVariation float64 `yaml:"color_variation"`
}

// BurstConfig holds parameters for the ring of bubbles added by a burst.
type BurstConfig struct {
	Count       int     `yaml:"count"`        // right click
	CenterCount int     `yaml:"center_count"` // E key
	AngleJitter float64 `yaml:"angle_jitter"`
	Distance    Range   `yaml:"distance"`
	Speed       Range   `yaml:"speed"`
	Radius      Range   `yaml:"radius"`
}

// RepulsionConfig holds the cursor repulsion field.
type RepulsionConfig struct {
	Strength    float64 `yaml:"strength"`
	Radius      float64 `yaml:"radius"`
	MinRadius   float64 `yaml:"min_radius"`
	MaxRadius   float64 `yaml:"max_radius"`
	MinStrength float64 `yaml:"min_strength"`
	MaxStrength float64 `yaml:"max_strength"`
	DeadZone    float64 `yaml:"dead_zone"`   // no force this close to the cursor
	Softening   float64 `yaml:"softening"`   // added to distance in the falloff
	MinFalloff  float64 `yaml:"min_falloff"` // floor on distance/radius
	TickScale   float64 `yaml:"tick_scale"`  // radial impulse per call
	SwirlScale  float64 `yaml:"swirl_scale"` // perpendicular impulse per call
	StepUp      float64 `yaml:"step_up"`     // UP / RIGHT multiplier
	StepDown    float64 `yaml:"step_down"`   // DOWN / LEFT multiplier
}

// WindConfig holds the wandering wind.
type WindConfig struct {
	Strength      float64 `yaml:"strength"`  // before the first change
	Interval      float64 `yaml:"interval"`  // seconds between changes
	StrengthRange Range   `yaml:"strength_range"`
	SizeBias      float64 `yaml:"size_bias"` // effect = strength * (1 + size_bias/radius)
}

// TurbulenceConfig holds the ambient turbulence applied by the simulation.
type TurbulenceConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// InputConfig holds interactive control parameters.
type InputConfig struct {
	SpawnBatch        int     `yaml:"spawn_batch"`         // SPACE
	DragSpawnInterval float64 `yaml:"drag_spawn_interval"` // seconds between spawns while dragging
	DragPokeEvery     int     `yaml:"drag_poke_every"`     // frames between explode-or-spawn while dragging
}

// RenderConfig holds metaball renderer settings.
type RenderConfig struct {
	MaxSlots   int        `yaml:"max_slots"` // uniform array size in the shader
	Background [3]float32 `yaml:"background"`
	Threshold  float64    `yaml:"threshold"` // iso level of the field
}

// AudioConfig holds pop sound settings.
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate int     `yaml:"sample_rate"`
	PopMillis  int     `yaml:"pop_millis"`
	BaseFreq   float64 `yaml:"base_freq"` // frequency for a 20px bubble
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW        float64 // Screen.Width as float64
	WorldH        float64 // Screen.Height as float64
	ScreenW32     float32
	ScreenH32     float32
	TicksPerStats int32 // stats window in fixed-dt ticks
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the simulation cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return fmt.Errorf("screen size %dx%d must be positive", c.Screen.Width, c.Screen.Height)
	case c.Physics.DT <= 0 || c.Physics.MaxDT <= 0:
		return fmt.Errorf("physics dt %v / max_dt %v must be positive", c.Physics.DT, c.Physics.MaxDT)
	case c.Population.MaxBubbles <= 0:
		return fmt.Errorf("population.max_bubbles %d must be positive", c.Population.MaxBubbles)
	case c.Population.Initial < 0:
		return fmt.Errorf("population.initial %d must not be negative", c.Population.Initial)
	case len(c.Spawn.Palette) == 0:
		return fmt.Errorf("spawn.palette must not be empty")
	case c.Repulsion.MinRadius > c.Repulsion.MaxRadius:
		return fmt.Errorf("repulsion radius clamp [%v, %v] is inverted", c.Repulsion.MinRadius, c.Repulsion.MaxRadius)
	case c.Repulsion.MinStrength > c.Repulsion.MaxStrength:
		return fmt.Errorf("repulsion strength clamp [%v, %v] is inverted", c.Repulsion.MinStrength, c.Repulsion.MaxStrength)
	case c.Fragments.Count.Min < 1 || c.Fragments.Count.Max < c.Fragments.Count.Min:
		return fmt.Errorf("fragments.count [%v, %v] is invalid", c.Fragments.Count.Min, c.Fragments.Count.Max)
	case c.Render.MaxSlots <= 0:
		return fmt.Errorf("render.max_slots %d must be positive", c.Render.MaxSlots)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WorldW = float64(c.Screen.Width)
	c.Derived.WorldH = float64(c.Screen.Height)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	ticks := int32(c.Telemetry.StatsWindow / c.Physics.DT)
	if ticks < 1 {
		ticks = 1
	}
	c.Derived.TicksPerStats = ticks
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
