package agent

import (
	"bowlbot/game"
	"bowlbot/searcher"

	"golang.org/x/exp/rand"
)

// Random plays uniformly random actions with the same sampling as rollouts.
type Random struct {
	enumerator searcher.Enumerator
	rng        *rand.Rand
	last       Decision
}

func NewRandom(seed uint64) *Random {
	return &Random{
		enumerator: searcher.NewEnumerator(searcher.DefaultExcluded...),
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (r *Random) Name() string {
	return "random"
}

func (r *Random) NewGame(state game.State, team game.TeamID) {
	r.last = Decision{}
}

func (r *Random) EndGame(state game.State) {}

func (r *Random) LastDecision() Decision {
	return r.last
}

func (r *Random) Act(state game.State) (game.Action, error) {
	if state.IsTerminal() {
		return game.Action{}, searcher.ErrTerminalState
	}
	action, ok := r.enumerator.Sample(state.ActionChoices(), r.rng)
	if !ok {
		return game.Action{}, game.ErrNoProgress
	}
	r.last = Decision{Action: action}
	return action, nil
}
