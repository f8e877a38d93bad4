// Package config loads match, search and experiment settings from YAML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"bowlbot/game"
	"bowlbot/game/pitch"
	"bowlbot/searcher"
	"bowlbot/searcher/agent"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel   string       `yaml:"logLevel"`
	Pitch      pitch.Config `yaml:"pitch"`
	Search     Search       `yaml:"search"`
	Bot        Bot          `yaml:"bot"`
	Experiment Experiment   `yaml:"experiment"`
}

type Search struct {
	Iterations   int               `yaml:"iterations"`
	Duration     time.Duration     `yaml:"duration"`
	Exploration  float64           `yaml:"exploration"`
	Rewards      searcher.Rewards  `yaml:"rewards"`
	RolloutLimit int               `yaml:"rolloutLimit"`
	Excluded     []game.ActionType `yaml:"excluded"`
	Seed         uint64            `yaml:"seed"`
}

type Bot struct {
	Kick  string            `yaml:"kick"`
	Setup []game.ActionType `yaml:"setup"`
}

type Experiment struct {
	Games        int             `yaml:"games"`
	MaxSteps     int             `yaml:"maxSteps"`
	Output       string          `yaml:"output"`
	Budgets      []int           `yaml:"budgets"`
	Explorations []float64       `yaml:"explorations"`
	TimeBudgets  []time.Duration `yaml:"timeBudgets"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Pitch:    pitch.DefaultConfig(),
		Search: Search{
			Iterations:  searcher.DefaultIterations,
			Exploration: math.Sqrt2,
			Rewards:     searcher.DefaultRewards(),
			Excluded:    searcher.DefaultExcluded,
			Seed:        1,
		},
		Bot: Bot{
			Kick:  "receive",
			Setup: agent.DefaultSetup,
		},
		Experiment: Experiment{
			Games:        20,
			MaxSteps:     10000,
			Output:       "experiments",
			Budgets:      []int{10, 20, 50, 100, 200, 500},
			Explorations: []float64{0.1, 0.5, 1, math.Sqrt2, 2},
			TimeBudgets:  []time.Duration{10 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond},
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.Pitch.Validate(); err != nil {
		return err
	}
	if c.Search.Iterations < 0 || c.Search.Duration < 0 {
		return errors.New("search budgets cannot be negative")
	}
	if c.Search.Exploration < 0 {
		return fmt.Errorf("exploration constant must be non-negative, got %v", c.Search.Exploration)
	}
	if c.Search.Rewards.Win <= c.Search.Rewards.Loss {
		return fmt.Errorf("win reward %v must exceed loss reward %v", c.Search.Rewards.Win, c.Search.Rewards.Loss)
	}
	if _, err := agent.ParseKickPreference(c.Bot.Kick); err != nil {
		return err
	}
	for _, t := range c.Bot.Setup {
		if t.Category() != game.Setup {
			return fmt.Errorf("setup script holds non-setup action %s", t)
		}
	}
	if c.Experiment.Games < 1 {
		return fmt.Errorf("experiment needs at least one game, got %d", c.Experiment.Games)
	}
	for _, b := range c.Experiment.Budgets {
		if b < 0 {
			return fmt.Errorf("negative iteration budget %d", b)
		}
	}
	for _, d := range c.Experiment.TimeBudgets {
		if d <= 0 {
			return fmt.Errorf("non-positive time budget %s", d)
		}
	}
	for _, e := range c.Experiment.Explorations {
		if e < 0 {
			return fmt.Errorf("negative exploration constant %v", e)
		}
	}
	return nil
}

func (s Search) Options() []searcher.Option {
	options := []searcher.Option{
		searcher.WithExploration(s.Exploration),
		searcher.WithRewards(s.Rewards),
		searcher.WithExcluded(s.Excluded...),
		searcher.WithSeed(s.Seed),
	}
	if s.Iterations > 0 || s.Duration == 0 {
		options = append(options, searcher.WithIterations(s.Iterations))
	}
	if s.Duration > 0 {
		options = append(options, searcher.WithDuration(s.Duration))
	}
	if s.RolloutLimit > 0 {
		options = append(options, searcher.WithRolloutLimit(s.RolloutLimit))
	}
	return options
}

func (b Bot) Options() ([]agent.BotOption, error) {
	kick, err := agent.ParseKickPreference(b.Kick)
	if err != nil {
		return nil, err
	}
	return []agent.BotOption{
		agent.WithKickPreference(kick),
		agent.WithSetup(b.Setup...),
	}, nil
}
