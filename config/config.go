// Package config loads compositor settings from TOML. Every field is
// optional; missing values take the scheduler and validator defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/compose/schedule"
)

// Config is the root configuration document.
type Config struct {
	Scheduler Scheduler `toml:"scheduler"`
	Validator Validator `toml:"validator"`
}

// Scheduler configures the task scheduler.
type Scheduler struct {
	// MaxWorkers is the number of queue workers.
	MaxWorkers int `toml:"max_workers"`

	// MaxRetries bounds retries of device-classified failures.
	MaxRetries int `toml:"max_retries"`

	// CallTimeoutMS bounds each execution-context call, in
	// milliseconds.
	CallTimeoutMS int `toml:"call_timeout_ms"`

	// BackoffBaseMS and BackoffCapMS shape the retry delay, in
	// milliseconds.
	BackoffBaseMS int `toml:"backoff_base_ms"`
	BackoffCapMS  int `toml:"backoff_cap_ms"`

	// Backend pins a device backend ("wgpu", "soft"). Empty
	// auto-selects with software fallback.
	Backend string `toml:"backend"`
}

// Validator configures resource validation.
type Validator struct {
	// MemoryBudgetBytes overrides the working-memory budget used when
	// the device cannot report its memory.
	MemoryBudgetBytes int64 `toml:"memory_budget_bytes"`
}

// Load reads and parses a TOML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML config data.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return c, nil
}

// SchedulerOptions converts the config into scheduler options. Zero
// fields stay zero and take the scheduler's own defaults.
func (c Config) SchedulerOptions() schedule.Options {
	return schedule.Options{
		MaxWorkers:  c.Scheduler.MaxWorkers,
		MaxRetries:  c.Scheduler.MaxRetries,
		CallTimeout: time.Duration(c.Scheduler.CallTimeoutMS) * time.Millisecond,
		BackoffBase: time.Duration(c.Scheduler.BackoffBaseMS) * time.Millisecond,
		BackoffCap:  time.Duration(c.Scheduler.BackoffCapMS) * time.Millisecond,
		Backend:     c.Scheduler.Backend,
	}
}
