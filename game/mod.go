package game

import "errors"

// TeamID identifies one side of a match.
type TeamID string

// PlayerID identifies a single player on either team.
type PlayerID string

// NoPlayer marks an action that is not parameterized by a player.
const NoPlayer PlayerID = ""

// Token is an opaque handle returned by State.Snapshot and accepted by State.Restore.
type Token uint64

var (
	ErrIllegalAction = errors.New("illegal action")
	ErrUnknownToken  = errors.New("unknown snapshot token")
	ErrGameOver      = errors.New("game is over")
	ErrNoProgress    = errors.New("no forced progression available")
)

// State is the contract a game engine offers to the searcher. Implementations
// are mutable: Step and Advance change the state in place, Snapshot and Restore
// rewind it, and Copy returns an independent deep copy.
type State interface {
	// Team returns the team expected to make the pending decision.
	Team() TeamID
	// ActionChoices returns the legal action categories for the pending
	// decision. An empty result on a non-terminal state means the engine needs
	// Advance to make forced progress.
	ActionChoices() []ActionChoice
	// Step applies one decision.
	Step(Action) error
	// Advance resolves one forced (decision-free) engine step.
	Advance() error
	IsTerminal() bool
	// Winner returns the winning team once the game is terminal. Draws and
	// unfinished games report false.
	Winner() (TeamID, bool)
	Snapshot() Token
	Restore(Token) error
	Copy() State
}
