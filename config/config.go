// Package config loads run settings from an optional YAML file with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudx-io/openbounty/bidding"
	"github.com/cloudx-io/openbounty/core"
	"github.com/cloudx-io/openbounty/mediator"
	"github.com/cloudx-io/openbounty/notes"
)

// Config is the top-level bounty.yml configuration
type Config struct {
	Weights  map[string]float64 `yaml:"weights,omitempty"` // all four keys required when present
	Seed     int64              `yaml:"seed"`
	Rounds   int                `yaml:"rounds"`
	Notes    NotesConfig        `yaml:"notes"`
	Task     *TaskConfig        `yaml:"task,omitempty"`
	Profiles []bidding.Profile  `yaml:"profiles,omitempty"`
}

// NotesConfig controls bid note generation.
type NotesConfig struct {
	Enabled bool          `yaml:"enabled"`
	Model   string        `yaml:"model,omitempty"`
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// TaskConfig describes the task to post. Without one the demo task is used.
type TaskConfig struct {
	Title              string   `yaml:"title"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria"`
	BudgetUSD          float64  `yaml:"budget_usd"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Weights: core.DefaultWeights().AsMap(),
		Seed:    mediator.DefaultSeed,
		Rounds:  mediator.DefaultRounds,
		Notes: NotesConfig{
			Enabled: false,
			Model:   notes.DefaultModel,
			BaseURL: notes.DefaultBaseURL,
			Timeout: bidding.DefaultNoteTimeout,
		},
	}
}

// Load builds the configuration: defaults, then the file at path when path
// is non-empty, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	// a weights block in the file replaces the defaults wholesale
	c.Weights = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if c.Weights == nil {
		c.Weights = core.DefaultWeights().AsMap()
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BOUNTY_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid BOUNTY_SEED %q: %w", v, err)
		}
		c.Seed = seed
	}
	if v, ok := lookup("BOUNTY_ROUNDS"); ok && v != "" {
		rounds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BOUNTY_ROUNDS %q: %w", v, err)
		}
		c.Rounds = rounds
	}
	if v, ok := lookup("USE_LLM"); ok && v != "" {
		c.Notes.Enabled = v == "1"
	}
	if v, ok := lookup("OLLAMA_MODEL"); ok && v != "" {
		c.Notes.Model = v
	}
	if v, ok := lookup("OLLAMA_BASE_URL"); ok && v != "" {
		c.Notes.BaseURL = v
	}
	return nil
}

// Validate performs strict validation on the configuration
func (c *Config) Validate() error {
	if _, err := c.ScoringWeights(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if c.Rounds < 0 {
		return fmt.Errorf("%w: got %d", core.ErrInvalidRounds, c.Rounds)
	}
	if c.Notes.Timeout < 0 {
		return fmt.Errorf("notes.timeout must not be negative")
	}
	if c.Task != nil && c.Task.BudgetUSD <= 0 {
		return fmt.Errorf("task: %w (got %v)", core.ErrInvalidBudget, c.Task.BudgetUSD)
	}

	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.FreelancerID] {
			return fmt.Errorf("%w: profile %s", core.ErrDuplicateBidder, p.FreelancerID)
		}
		seen[p.FreelancerID] = true
	}
	return nil
}

// ScoringWeights converts the weights mapping into core.Weights.
func (c *Config) ScoringWeights() (core.Weights, error) {
	return core.WeightsFromMap(c.Weights)
}

// FreelancerProfiles returns the configured pool, or the reference pool.
func (c *Config) FreelancerProfiles() []bidding.Profile {
	if len(c.Profiles) == 0 {
		return bidding.DefaultProfiles()
	}
	return c.Profiles
}

// PostedTask returns a fresh task from the task block, or the demo task.
func (c *Config) PostedTask() core.Task {
	if c.Task == nil {
		return bidding.DemoTask()
	}
	return core.NewTask(c.Task.Title, c.Task.AcceptanceCriteria, c.Task.BudgetUSD)
}

// NoteGenerator returns the generator selected by the notes block.
func (c *Config) NoteGenerator() notes.Generator {
	return notes.NewFromConfig(notes.Config{
		Enabled: c.Notes.Enabled,
		Model:   c.Notes.Model,
		BaseURL: c.Notes.BaseURL,
	})
}

// Mediator builds a mediator from the configuration.
func (c *Config) Mediator() (*mediator.Mediator, error) {
	w, err := c.ScoringWeights()
	if err != nil {
		return nil, err
	}
	return &mediator.Mediator{
		Weights:     w,
		Seed:        c.Seed,
		Rounds:      c.Rounds,
		Notes:       c.NoteGenerator(),
		NoteTimeout: c.Notes.Timeout,
	}, nil
}
