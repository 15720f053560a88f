package world

import "fmt"

type Config struct {
	// Window size in chunks. Both must be at least 3 so interior chunks exist.
	Width int
	Depth int

	// Workers is the per-tick job budget and the number of worker goroutines.
	Workers int

	// CommitEveryTicks commits storage every N ticks; 0 applies the default,
	// negative disables periodic commits (Close still commits).
	CommitEveryTicks int

	// Rolling stats window.
	StatsBucketTicks uint64
	StatsWindowTicks uint64
}

func (c *Config) applyDefaults() {
	if c.Width <= 0 {
		c.Width = 24
	}
	if c.Depth <= 0 {
		c.Depth = 24
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.CommitEveryTicks == 0 {
		c.CommitEveryTicks = 60
	}
	if c.StatsBucketTicks == 0 {
		c.StatsBucketTicks = 60
	}
	if c.StatsWindowTicks == 0 {
		c.StatsWindowTicks = 600
	}
}

func (c Config) validate() error {
	if c.Width < 3 || c.Depth < 3 {
		return fmt.Errorf("world: window %dx%d too small, need at least 3x3", c.Width, c.Depth)
	}
	return nil
}
