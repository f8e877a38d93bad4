package game

import "fmt"

// ActionType is the closed set of action categories an engine may offer.
type ActionType int

const (
	StartGame ActionType = iota
	Heads
	Tails
	Kick
	Receive
	PlacePlayer
	SetupFormationSpread
	SetupFormationWedge
	EndSetup
	PlaceBall
	StartMove
	StartBlock
	Move
	Block
	EndPlayerTurn
	EndTurn
	UseReroll
	DontUseReroll
)

// Category groups action types by how an agent treats them before search.
type Category int

const (
	// Play covers in-game decisions worth searching.
	Play Category = iota
	// Convention covers decisions with no downstream search value (coin toss, kick or receive).
	Convention
	// Setup covers formation and player placement.
	Setup
	// Kickoff covers the ball placement before a drive.
	Kickoff
)

func (t ActionType) Category() Category {
	switch t {
	case Heads, Tails, Kick, Receive:
		return Convention
	case PlacePlayer, SetupFormationSpread, SetupFormationWedge, EndSetup:
		return Setup
	case PlaceBall:
		return Kickoff
	case StartGame, StartMove, StartBlock, Move, Block, EndPlayerTurn, EndTurn, UseReroll, DontUseReroll:
		return Play
	default:
		panic(fmt.Sprintf("unknown action type %d", int(t)))
	}
}

func (t ActionType) String() string {
	switch t {
	case StartGame:
		return "StartGame"
	case Heads:
		return "Heads"
	case Tails:
		return "Tails"
	case Kick:
		return "Kick"
	case Receive:
		return "Receive"
	case PlacePlayer:
		return "PlacePlayer"
	case SetupFormationSpread:
		return "SetupFormationSpread"
	case SetupFormationWedge:
		return "SetupFormationWedge"
	case EndSetup:
		return "EndSetup"
	case PlaceBall:
		return "PlaceBall"
	case StartMove:
		return "StartMove"
	case StartBlock:
		return "StartBlock"
	case Move:
		return "Move"
	case Block:
		return "Block"
	case EndPlayerTurn:
		return "EndPlayerTurn"
	case EndTurn:
		return "EndTurn"
	case UseReroll:
		return "UseReroll"
	case DontUseReroll:
		return "DontUseReroll"
	default:
		return fmt.Sprintf("ActionType(%d)", int(t))
	}
}

// ParseActionType is the inverse of ActionType.String.
func ParseActionType(s string) (ActionType, error) {
	for t := StartGame; t <= DontUseReroll; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

// MarshalText lets action types appear by name in YAML and JSON.
func (t ActionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ActionType) UnmarshalText(text []byte) error {
	parsed, err := ParseActionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
