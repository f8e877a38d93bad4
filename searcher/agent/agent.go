package agent

import (
	"bowlbot/experiments/metrics"
	"bowlbot/game"
)

type Agent interface {
	Name() string
	// NewGame binds the agent to the team it controls.
	NewGame(state game.State, team game.TeamID)
	// Act returns the action for the pending decision. The state is not mutated.
	Act(state game.State) (game.Action, error)
	EndGame(state game.State)
}

// Decision records how an agent answered one decision.
type Decision struct {
	Action   game.Action
	Searched bool
	Metric   metrics.SearchMetric
}

// Recorder is implemented by agents that keep a record of their last decision.
type Recorder interface {
	LastDecision() Decision
}
