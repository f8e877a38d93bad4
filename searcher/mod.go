package searcher

import (
	"errors"

	"bowlbot/game"
)

// Hyperparameters for MCTS

const CSquared = 2.0 // Exploration constant squared, C = √2

const DefaultIterations = 100

var (
	ErrTerminalState = errors.New("search from a terminal state")
	ErrDesync        = errors.New("engine rejected an enumerated action")
	ErrRolloutLimit  = errors.New("rollout did not terminate")
)

// Rewards scores a finished rollout from the controlled team's perspective.
// Draws are mildly penalized to favour decisive lines.
type Rewards struct {
	Win  float64
	Draw float64
	Loss float64
}

func DefaultRewards() Rewards {
	return Rewards{Win: 1, Draw: -0.1, Loss: -1}
}

func (r Rewards) outcome(state game.State, team game.TeamID) float64 {
	winner, ok := state.Winner()
	switch {
	case !ok:
		return r.Draw
	case winner == team:
		return r.Win
	default:
		return r.Loss
	}
}
