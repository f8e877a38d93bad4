package pitch

import "fmt"

// Config holds the static parameters of a match.
type Config struct {
	// Playable columns; the end zones are column 1 and column Width.
	Width          int `yaml:"width"`
	Height         int `yaml:"height"`
	PlayersPerTeam int `yaml:"playersPerTeam"`
	TurnsPerTeam   int `yaml:"turnsPerTeam"`
	// Team rerolls for the whole game.
	Rerolls int `yaml:"rerolls"`
	// Squares a player may move per activation.
	MovementAllow int    `yaml:"movement"`
	Seed          uint64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Width:          6,
		Height:         5,
		PlayersPerTeam: 2,
		TurnsPerTeam:   12,
		Rerolls:        1,
		MovementAllow:  6,
		Seed:           1,
	}
}

func (c Config) Validate() error {
	if c.Width < 4 || c.Width%2 != 0 {
		return fmt.Errorf("pitch width must be even and at least 4, got %d", c.Width)
	}
	if c.Height < 1 {
		return fmt.Errorf("pitch height must be positive, got %d", c.Height)
	}
	if c.PlayersPerTeam < 1 || c.PlayersPerTeam > c.Height {
		return fmt.Errorf("players per team must be between 1 and the pitch height (%d), got %d", c.Height, c.PlayersPerTeam)
	}
	if c.TurnsPerTeam < 1 {
		return fmt.Errorf("turns per team must be positive, got %d", c.TurnsPerTeam)
	}
	if c.Rerolls < 0 {
		return fmt.Errorf("rerolls cannot be negative, got %d", c.Rerolls)
	}
	if c.MovementAllow < 1 {
		return fmt.Errorf("movement allowance must be positive, got %d", c.MovementAllow)
	}
	return nil
}
