package searcher

import (
	"bowlbot/game"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
)

// DefaultExcluded lists the action types left out of search. Player placement
// is driven by scripted setups before search begins.
var DefaultExcluded = []game.ActionType{game.PlacePlayer}

// Enumerator turns action choices into concrete actions.
type Enumerator struct {
	excluded []game.ActionType
}

func NewEnumerator(excluded ...game.ActionType) Enumerator {
	return Enumerator{excluded: slices.Clone(excluded)}
}

// Excluded returns the action types the enumerator skips.
func (e Enumerator) Excluded() []game.ActionType {
	return slices.Clone(e.excluded)
}

// Enumerate lists every concrete action of a state in choice order. A
// terminal state has no actions.
func (e Enumerator) Enumerate(state game.State) []game.Action {
	if state.IsTerminal() {
		return nil
	}
	return e.Actions(state.ActionChoices())
}

// Actions expands each choice into its players × positions cross product, the
// players alone, the positions alone, or the bare type.
func (e Enumerator) Actions(choices []game.ActionChoice) []game.Action {
	var actions []game.Action
	for _, c := range e.filter(choices) {
		switch {
		case len(c.Players) > 0:
			for _, p := range c.Players {
				a := game.NewAction(c.Type).WithPlayer(p)
				if len(c.Positions) == 0 {
					actions = append(actions, a)
					continue
				}
				for _, sq := range c.Positions {
					actions = append(actions, a.WithPosition(sq))
				}
			}
		case len(c.Positions) > 0:
			for _, sq := range c.Positions {
				actions = append(actions, game.NewAction(c.Type).WithPosition(sq))
			}
		default:
			actions = append(actions, game.NewAction(c.Type))
		}
	}
	return actions
}

// Sample draws a random action: a choice uniformly, then a player and a
// position uniformly among its candidates. It reports false when there is
// nothing to choose from.
func (e Enumerator) Sample(choices []game.ActionChoice, r *rand.Rand) (game.Action, bool) {
	choices = e.filter(choices)
	if len(choices) == 0 {
		return game.Action{}, false
	}
	c := choices[r.Intn(len(choices))]
	a := game.NewAction(c.Type)
	if len(c.Players) > 0 {
		a = a.WithPlayer(c.Players[r.Intn(len(c.Players))])
	}
	if len(c.Positions) > 0 {
		a = a.WithPosition(c.Positions[r.Intn(len(c.Positions))])
	}
	return a, true
}

// filter drops excluded choices. When every choice is excluded the full set
// is kept so that a decision remains possible.
func (e Enumerator) filter(choices []game.ActionChoice) []game.ActionChoice {
	if len(e.excluded) == 0 {
		return choices
	}
	kept := make([]game.ActionChoice, 0, len(choices))
	for _, c := range choices {
		if !slices.Contains(e.excluded, c.Type) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return choices
	}
	return kept
}
