package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	World     World     `yaml:"world"`
	Generator Generator `yaml:"generator"`
	Storage   Storage   `yaml:"storage"`
	TickLog   TickLog   `yaml:"ticklog"`
	Observer  Observer  `yaml:"observer"`
	Walk      Walk      `yaml:"walk"`
}

type World struct {
	Width            int `yaml:"width"`
	Depth            int `yaml:"depth"`
	Workers          int `yaml:"workers"`
	CommitEveryTicks int `yaml:"commit_every_ticks"`
}

type Generator struct {
	Seed int64 `yaml:"seed"`
}

type Storage struct {
	// Empty disables persistence.
	Path     string `yaml:"path"`
	PlayerID int    `yaml:"player_id"`
}

type TickLog struct {
	// Empty disables the tick log.
	Dir string `yaml:"dir"`
}

type Observer struct {
	// Empty disables the observer endpoint.
	Listen string `yaml:"listen"`
}

// Walk drives the headless viewpoint.
type Walk struct {
	TickRateHz int     `yaml:"tick_rate_hz"`
	Speed      float32 `yaml:"speed"` // blocks per tick
	Heading    float32 `yaml:"heading"`
	Height     float32 `yaml:"height"`
}

func Load(path string) (Tuning, error) {
	t := defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("streamer.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("streamer.yaml: %w", err)
	}
	return t, nil
}

func defaults() Tuning {
	return Tuning{
		World: World{
			Width:            24,
			Depth:            24,
			Workers:          8,
			CommitEveryTicks: 60,
		},
		Generator: Generator{Seed: 1337},
		Storage:   Storage{Path: "data/world.sqlite"},
		TickLog:   TickLog{Dir: "data/ticks"},
		Walk: Walk{
			TickRateHz: 20,
			Speed:      0.5,
			Height:     80,
		},
	}
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	t.Storage.Path = strings.TrimSpace(t.Storage.Path)
	t.TickLog.Dir = strings.TrimSpace(t.TickLog.Dir)
	t.Observer.Listen = strings.TrimSpace(t.Observer.Listen)
	if t.World.Workers <= 0 {
		t.World.Workers = 1
	}
	if t.Walk.TickRateHz <= 0 {
		t.Walk.TickRateHz = 20
	}
}

func (t Tuning) Validate() error {
	if t.World.Width < 3 || t.World.Depth < 3 {
		return fmt.Errorf("world width and depth must be >= 3, got %dx%d", t.World.Width, t.World.Depth)
	}
	if t.World.Workers < 1 {
		return fmt.Errorf("world workers must be >= 1")
	}
	if t.World.CommitEveryTicks < 0 {
		return fmt.Errorf("world commit_every_ticks must be >= 0")
	}
	if t.Walk.Speed < 0 {
		return fmt.Errorf("walk speed must be >= 0")
	}
	return nil
}
