// Model artifact generator - writes a descriptor and randomly initialized
// weights for the in-process backend.
//
// Usage: go run ./cmd/mkweights -dir weights -name short40_default
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/regrow/config"
	"github.com/pthm-cable/regrow/neural"
)

func main() {
	dir := flag.String("dir", "weights", "Output directory")
	name := flag.String("name", "short40_default", "Model name")
	channels := flag.Int("channels", 16, "Channel count (CH_ALL)")
	hidden := flag.Int("hidden", 128, "Hidden layer width")
	fireRate := flag.Float64("fire-rate", neural.DefaultFireRate, "Stochastic update rate")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *channels < config.MinChannels {
		slog.Error("channel count too small", "channels", *channels, "min", config.MinChannels)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	if err := os.MkdirAll(*dir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	desc := &config.Descriptor{
		Name:       *name,
		Channels:   *channels,
		HiddenSize: *hidden,
		FireRate:   *fireRate,
	}
	descPath := filepath.Join(*dir, *name+".json")
	if err := config.WriteDescriptor(descPath, desc); err != nil {
		slog.Error("failed to write descriptor", "error", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	w := neural.NewRandomWeights(rng, *channels, *hidden)
	weightsPath := filepath.Join(*dir, *name+".weights.json")
	if err := neural.SaveWeights(weightsPath, w); err != nil {
		slog.Error("failed to write weights", "error", err)
		os.Exit(1)
	}

	slog.Info("wrote model",
		"descriptor", descPath,
		"weights", weightsPath,
		"channels", *channels,
		"hidden", *hidden,
		"seed", *seed,
	)
}
