package game

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Square is a pitch coordinate. Playable squares start at 1; the zero value
// lies on the border and doubles as "no position".
type Square struct {
	X int
	Y int
}

// NoSquare marks an action that is not parameterized by a position.
var NoSquare = Square{}

func (s Square) String() string {
	return fmt.Sprintf("(%d,%d)", s.X, s.Y)
}

// Distance is the king-move (Chebyshev) distance between two squares.
func (s Square) Distance(other Square) int {
	return max(abs(s.X-other.X), abs(s.Y-other.Y))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ActionChoice is a legal action category together with the players and
// squares it may be parameterized with. When both sets are empty the type on
// its own is the single concrete action.
type ActionChoice struct {
	Type      ActionType
	Players   []PlayerID
	Positions []Square
}

// IsBare reports whether the choice needs no player or position.
func (c ActionChoice) IsBare() bool {
	return len(c.Players) == 0 && len(c.Positions) == 0
}

// Action is a concrete, fully parameterized decision. Actions are values:
// they compare with == and can key maps.
type Action struct {
	Type     ActionType
	Player   PlayerID
	Position Square
}

func NewAction(t ActionType) Action {
	return Action{Type: t, Player: NoPlayer, Position: NoSquare}
}

func (a Action) WithPlayer(p PlayerID) Action {
	a.Player = p
	return a
}

func (a Action) WithPosition(s Square) Action {
	a.Position = s
	return a
}

func (a Action) HasPlayer() bool {
	return a.Player != NoPlayer
}

func (a Action) HasPosition() bool {
	return a.Position != NoSquare
}

func (a Action) String() string {
	var b strings.Builder
	b.WriteString(a.Type.String())
	if a.HasPlayer() {
		fmt.Fprintf(&b, " player=%s", a.Player)
	}
	if a.HasPosition() {
		fmt.Fprintf(&b, " pos=%s", a.Position)
	}
	return b.String()
}

// Allows reports whether the choice admits the concrete action.
func (c ActionChoice) Allows(a Action) bool {
	if c.Type != a.Type {
		return false
	}
	if len(c.Players) == 0 {
		if a.HasPlayer() {
			return false
		}
	} else if !slices.Contains(c.Players, a.Player) {
		return false
	}
	if len(c.Positions) == 0 {
		return !a.HasPosition()
	}
	return slices.Contains(c.Positions, a.Position)
}

// IsLegal reports whether any of the choices admits the action.
func IsLegal(choices []ActionChoice, a Action) bool {
	for _, c := range choices {
		if c.Allows(a) {
			return true
		}
	}
	return false
}

// HasType reports whether any of the choices is of type t.
func HasType(choices []ActionChoice, t ActionType) bool {
	for _, c := range choices {
		if c.Type == t {
			return true
		}
	}
	return false
}
