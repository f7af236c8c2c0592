// Shader debug tool - renders the metaball shader for a seeded population to a
// PNG file for inspection.
//
// Usage: go run ./cmd/shaderdebug -seed 7 -warmup 2 -out debug.png
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/renderer"
	"github.com/pthm-cable/bubbles/simulation"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file (empty = use defaults)")
	outPath := flag.String("out", "debug.png", "Output PNG path")
	seed := flag.Int64("seed", 1, "Random seed for the population")
	warmup := flag.Float64("warmup", 0, "Simulated seconds to run before capturing")
	threshold := flag.Float64("threshold", 0, "Field threshold override (0 = config value)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *threshold > 0 {
		cfg.Render.Threshold = *threshold
	}

	sim := simulation.New(cfg, rand.New(rand.NewSource(*seed)))
	if err := sim.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed population: %v\n", err)
		os.Exit(1)
	}
	for t := 0.0; t < *warmup; t += cfg.Physics.DT {
		sim.Update(cfg.Physics.DT)
	}

	width, height := int32(cfg.Screen.Width), int32(cfg.Screen.Height)

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(width, height, "Shader Debug")
	defer rl.CloseWindow()

	metaballs := renderer.NewMetaballRenderer(width, height, cfg.Render.MaxSlots, cfg.Render.Threshold, cfg.Render.Background)
	metaballs.Init()
	defer metaballs.Unload()

	target := rl.LoadRenderTexture(width, height)
	defer rl.UnloadRenderTexture(target)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	metaballs.Draw(sim.Bubbles(), float32(*warmup))
	rl.EndTextureMode()

	// Get image from texture and flip it (OpenGL convention)
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)

	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if !success {
		fmt.Fprintf(os.Stderr, "Failed to export image to %s\n", *outPath)
		os.Exit(1)
	}

	fmt.Printf("Rendered %d bubbles to %s (%dx%d)\n", sim.Count(), *outPath, width, height)
}
