package pitch

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"bowlbot/game"

	"golang.org/x/exp/rand"
)

const (
	Home game.TeamID = "home"
	Away game.TeamID = "away"
)

var teams = [2]game.TeamID{Home, Away}

type Phase int

const (
	StartPhase Phase = iota
	CoinTossPhase
	KickOrReceivePhase
	SetupPhase
	PlaceBallPhase
	KickoffPhase // forced
	TurnPhase
	PlayerActionPhase
	RerollPhase
	TurnoverPhase  // forced
	TouchdownPhase // forced
	EndPhase
)

func (p Phase) String() string {
	switch p {
	case StartPhase:
		return "start"
	case CoinTossPhase:
		return "coin-toss"
	case KickOrReceivePhase:
		return "kick-or-receive"
	case SetupPhase:
		return "setup"
	case PlaceBallPhase:
		return "place-ball"
	case KickoffPhase:
		return "kickoff"
	case TurnPhase:
		return "turn"
	case PlayerActionPhase:
		return "player-action"
	case RerollPhase:
		return "reroll"
	case TurnoverPhase:
		return "turnover"
	case TouchdownPhase:
		return "touchdown"
	case EndPhase:
		return "end"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

type rollKind int

const (
	dodgeRoll rollKind = iota
	pickupRoll
)

// pendingRoll is a failed roll waiting on a reroll decision.
type pendingRoll struct {
	kind   rollKind
	target game.Square
	need   int
	cost   int // Steps of a move waiting on its dodge
}

type player struct {
	id        game.PlayerID
	team      int // index into teams
	pos       game.Square
	down      bool
	used      bool
	movesLeft int
}

func (p player) onPitch() bool {
	return p.pos != game.NoSquare
}

// board is the loggable part of the game. Dice are deliberately not part of
// it: restoring a snapshot rewinds the board but not the dice stream.
type board struct {
	phase        Phase
	players      []player
	ball         game.Square // NoSquare while carried or out of play
	carrier      int         // player index, -1 if nobody holds the ball
	score        [2]int
	rerolls      [2]int
	active       int // team index of the acting team
	turn         int // turns started in total
	kicking      int
	tossWinner   int
	setupTeam    int
	activePlayer int // -1 outside a player action
	activeKind   game.ActionType
	acted        bool // The acting team has activated a player this turn
	pending      pendingRoll
	placedBall   game.Square
}

func (b board) clone() board {
	players := make([]player, len(b.players))
	copy(players, b.players)
	b.players = players
	return b
}

// GameState is a small tabletop football match implementing game.State.
type GameState struct {
	cfg   Config
	board board
	log   []board
	dirty bool
	dice  rand.PCGSource
}

// NewGameState returns a match waiting for its StartGame decision.
func NewGameState(cfg Config) (*GameState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gs := &GameState{cfg: cfg}
	gs.dice.Seed(cfg.Seed)

	b := board{
		phase:        StartPhase,
		ball:         game.NoSquare,
		carrier:      -1,
		activePlayer: -1,
		rerolls:      [2]int{cfg.Rerolls, cfg.Rerolls},
	}
	for t := range teams {
		for i := 0; i < cfg.PlayersPerTeam; i++ {
			b.players = append(b.players, player{
				id:   game.PlayerID(fmt.Sprintf("%s-%d", teams[t], i+1)),
				team: t,
				pos:  game.NoSquare,
			})
		}
	}
	gs.board = b
	return gs, nil
}

// Copy returns an independent deep copy. The copy rolls its own dice stream,
// derived from but not equal to the original one, so a searcher working on the
// copy cannot observe the real game's future rolls.
func (gs *GameState) Copy() game.State {
	c := &GameState{
		cfg:   gs.cfg,
		board: gs.board.clone(),
		log:   append([]board(nil), gs.log...),
		dirty: gs.dirty,
	}
	c.dice.Seed(gs.diceFingerprint())
	return c
}

func (gs *GameState) diceFingerprint() uint64 {
	data, err := gs.dice.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("marshalling dice state: %v", err))
	}
	hasher := fnv.New64a()
	hasher.Write(data)
	hasher.Write([]byte("copy"))
	return hasher.Sum64()
}

// Reseed restarts the dice stream.
func (gs *GameState) Reseed(seed uint64) {
	gs.dice.Seed(seed)
}

// Snapshot records the current board in the log. Taking a snapshot twice
// without an intervening mutation yields the same token.
func (gs *GameState) Snapshot() game.Token {
	if !gs.dirty && len(gs.log) > 0 {
		return game.Token(len(gs.log) - 1)
	}
	gs.log = append(gs.log, gs.board.clone())
	gs.dirty = false
	return game.Token(len(gs.log) - 1)
}

// Restore rewinds the board to a snapshot and discards every later snapshot.
func (gs *GameState) Restore(token game.Token) error {
	if int(token) >= len(gs.log) {
		return fmt.Errorf("%w: %d (log holds %d snapshots)", game.ErrUnknownToken, token, len(gs.log))
	}
	gs.board = gs.log[token].clone()
	gs.log = gs.log[:token+1]
	gs.dirty = false
	return nil
}

func (gs *GameState) Team() game.TeamID {
	b := &gs.board
	switch b.phase {
	case StartPhase:
		return Home
	case CoinTossPhase:
		return Away
	case KickOrReceivePhase:
		return teams[b.tossWinner]
	case SetupPhase:
		return teams[b.setupTeam]
	case PlaceBallPhase, KickoffPhase:
		return teams[b.kicking]
	default:
		return teams[b.active]
	}
}

func (gs *GameState) IsTerminal() bool {
	return gs.board.phase == EndPhase
}

func (gs *GameState) Winner() (game.TeamID, bool) {
	b := &gs.board
	if b.phase != EndPhase || b.score[0] == b.score[1] {
		return "", false
	}
	if b.score[0] > b.score[1] {
		return Home, true
	}
	return Away, true
}

func (gs *GameState) Phase() Phase {
	return gs.board.phase
}

func (gs *GameState) Score(team game.TeamID) int {
	return gs.board.score[teamIndex(team)]
}

// Turn returns the number of team turns started so far.
func (gs *GameState) Turn() int {
	return gs.board.turn
}

// Ball returns the square of the ball, or the carrier's square while it is held.
func (gs *GameState) Ball() game.Square {
	if gs.board.carrier >= 0 {
		return gs.board.players[gs.board.carrier].pos
	}
	return gs.board.ball
}

// PlayerAt returns the player standing or lying on the square.
func (gs *GameState) PlayerAt(sq game.Square) (game.PlayerID, bool) {
	if i := gs.board.playerAt(sq); i >= 0 {
		return gs.board.players[i].id, true
	}
	return game.NoPlayer, false
}

// PlayersOnPitch returns the players of a team currently on the pitch.
func (gs *GameState) PlayersOnPitch(team game.TeamID) []game.PlayerID {
	t := teamIndex(team)
	var ids []game.PlayerID
	for _, p := range gs.board.players {
		if p.team == t && p.onPitch() {
			ids = append(ids, p.id)
		}
	}
	return ids
}

// IsTeamSide reports whether the square lies on the half the team defends.
func (gs *GameState) IsTeamSide(sq game.Square, team game.TeamID) bool {
	return gs.onHalf(sq, teamIndex(team))
}

// Hash fingerprints the observable state.
func (gs *GameState) Hash() uint64 {
	b := &gs.board
	hasher := fnv.New64a()

	put := func(v int) {
		binary.Write(hasher, binary.LittleEndian, int64(v))
	}

	put(int(b.phase))
	put(b.active)
	put(b.turn)
	put(b.kicking)
	put(b.tossWinner)
	put(b.setupTeam)
	put(b.activePlayer)
	put(int(b.activeKind))
	put(boolInt(b.acted))
	put(b.carrier)
	put(b.ball.X)
	put(b.ball.Y)
	put(b.placedBall.X)
	put(b.placedBall.Y)
	for t := range teams {
		put(b.score[t])
		put(b.rerolls[t])
	}
	for _, p := range b.players {
		put(p.pos.X)
		put(p.pos.Y)
		put(boolInt(p.down))
		put(boolInt(p.used))
		put(p.movesLeft)
	}
	put(int(b.pending.kind))
	put(b.pending.target.X)
	put(b.pending.target.Y)
	put(b.pending.need)
	put(b.pending.cost)

	return hasher.Sum64()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func teamIndex(team game.TeamID) int {
	if team == Away {
		return 1
	}
	return 0
}

func (gs *GameState) roll() int {
	return rand.New(&gs.dice).Intn(6) + 1
}

func (gs *GameState) pick(n int) int {
	return rand.New(&gs.dice).Intn(n)
}
