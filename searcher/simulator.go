package searcher

import (
	"errors"
	"fmt"

	"bowlbot/game"
)

// MaxForced bounds the forced steps the simulator resolves after one action.
const MaxForced = 1000

// Simulator owns the private working copy a search mutates. The caller's
// state is copied once and never touched again.
type Simulator struct {
	state game.State
	root  game.Token
}

// NewSimulator copies the state, resolves any pending forced progression and
// records the root snapshot.
func NewSimulator(state game.State) (*Simulator, error) {
	s := &Simulator{state: state.Copy()}
	if err := s.settle(); err != nil {
		return nil, err
	}
	s.root = s.state.Snapshot()
	return s, nil
}

// Apply steps the working state by one decision and then advances through
// any forced progression up to the next decision or the end of the game.
func (s *Simulator) Apply(action game.Action) error {
	if err := s.state.Step(action); err != nil {
		if errors.Is(err, game.ErrIllegalAction) {
			return fmt.Errorf("%w: %v", ErrDesync, err)
		}
		return err
	}
	return s.settle()
}

func (s *Simulator) settle() error {
	for steps := 0; !s.state.IsTerminal() && len(s.state.ActionChoices()) == 0; steps++ {
		if steps >= MaxForced {
			return fmt.Errorf("%w: %d forced steps without a decision", game.ErrNoProgress, steps)
		}
		if err := s.state.Advance(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) Snapshot() game.Token {
	return s.state.Snapshot()
}

func (s *Simulator) Restore(token game.Token) error {
	return s.state.Restore(token)
}

// Reset rewinds the working state to the snapshot taken at construction.
func (s *Simulator) Reset() error {
	return s.state.Restore(s.root)
}

func (s *Simulator) Root() game.Token {
	return s.root
}

func (s *Simulator) IsTerminal() bool {
	return s.state.IsTerminal()
}

func (s *Simulator) Choices() []game.ActionChoice {
	if s.state.IsTerminal() {
		return nil
	}
	return s.state.ActionChoices()
}

// Outcome scores the working state for team.
func (s *Simulator) Outcome(team game.TeamID, rewards Rewards) float64 {
	return rewards.outcome(s.state, team)
}

// State exposes the working copy for read-only queries.
func (s *Simulator) State() game.State {
	return s.state
}
