package agent

import (
	"fmt"
	"math"
	"time"

	"bowlbot/game"
	"bowlbot/searcher"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type KickPreference int

const (
	PreferKick KickPreference = iota
	PreferReceive
	PreferRandom
)

func ParseKickPreference(s string) (KickPreference, error) {
	switch s {
	case "kick":
		return PreferKick, nil
	case "receive":
		return PreferReceive, nil
	case "random":
		return PreferRandom, nil
	default:
		return 0, fmt.Errorf("unknown kick preference %q", s)
	}
}

// DefaultSetup is the scripted setup played at every drive.
var DefaultSetup = []game.ActionType{game.SetupFormationSpread, game.EndSetup}

type BotOption func(b *Bot)

func WithName(name string) BotOption {
	return func(b *Bot) {
		b.name = name
	}
}

func WithKickPreference(preference KickPreference) BotOption {
	return func(b *Bot) {
		b.kick = preference
	}
}

// WithSetup replaces the scripted setup sequence.
func WithSetup(script ...game.ActionType) BotOption {
	return func(b *Bot) {
		b.script = append([]game.ActionType(nil), script...)
	}
}

func WithBotSeed(seed uint64) BotOption {
	return func(b *Bot) {
		b.rng = rand.New(rand.NewSource(seed))
	}
}

// Bot answers convention, setup and kickoff decisions directly and searches
// every other decision with MCTS.
type Bot struct {
	name    string
	mcts    *searcher.MCTS
	kick    KickPreference
	script  []game.ActionType
	queue   []game.ActionType
	inSetup bool
	team    game.TeamID
	rng     *rand.Rand
	all     searcher.Enumerator
	last    Decision
}

func NewBot(mcts *searcher.MCTS, options ...BotOption) *Bot {
	b := &Bot{ // Default values
		name:   "mcts",
		mcts:   mcts,
		kick:   PreferReceive,
		script: DefaultSetup,
		rng:    rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		all:    searcher.NewEnumerator(),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *Bot) Name() string {
	return b.name
}

func (b *Bot) NewGame(state game.State, team game.TeamID) {
	b.team = team
	b.inSetup = false
	b.queue = nil
	b.last = Decision{}
}

func (b *Bot) EndGame(state game.State) {
	winner, ok := state.Winner()
	log.Debug().Msgf("%s (%s) finished: winner %q decided %t", b.name, b.team, winner, ok)
}

func (b *Bot) LastDecision() Decision {
	return b.last
}

func (b *Bot) Act(state game.State) (game.Action, error) {
	if state.IsTerminal() {
		return game.Action{}, searcher.ErrTerminalState
	}
	choices := state.ActionChoices()
	if len(choices) == 0 {
		return game.Action{}, fmt.Errorf("%w: no decision pending", game.ErrNoProgress)
	}

	action, ok := b.shortCircuit(choices)
	if ok {
		b.last = Decision{Action: action}
		return action, nil
	}

	action, metric, err := b.mcts.Search(state, b.team)
	if err != nil {
		return game.Action{}, err
	}
	b.last = Decision{Action: action, Searched: true, Metric: metric}
	return action, nil
}

// shortCircuit answers decisions that need no search.
func (b *Bot) shortCircuit(choices []game.ActionChoice) (game.Action, bool) {
	setup := isSetup(choices)
	if setup && !b.inSetup {
		b.queue = append([]game.ActionType(nil), b.script...)
	}
	b.inSetup = setup

	if actions := b.all.Actions(choices); len(actions) == 1 {
		return actions[0], true
	}

	switch {
	case game.HasType(choices, game.Heads) || game.HasType(choices, game.Tails):
		return b.pickType(choices, game.Heads, game.Tails)
	case game.HasType(choices, game.Kick) || game.HasType(choices, game.Receive):
		switch b.kick {
		case PreferKick:
			if game.HasType(choices, game.Kick) {
				return game.NewAction(game.Kick), true
			}
		case PreferReceive:
			if game.HasType(choices, game.Receive) {
				return game.NewAction(game.Receive), true
			}
		}
		return b.pickType(choices, game.Kick, game.Receive)
	case setup:
		for len(b.queue) > 0 {
			next := game.NewAction(b.queue[0])
			b.queue = b.queue[1:]
			if game.IsLegal(choices, next) {
				return next, true
			}
			log.Debug().Msgf("%s skips scripted %s", b.name, next)
		}
		return game.Action{}, false
	case game.HasType(choices, game.PlaceBall):
		for _, c := range choices {
			if c.Type == game.PlaceBall && len(c.Positions) > 0 {
				return game.NewAction(game.PlaceBall).WithPosition(centre(c.Positions)), true
			}
		}
	}
	return game.Action{}, false
}

// pickType returns one of the offered types uniformly at random.
func (b *Bot) pickType(choices []game.ActionChoice, types ...game.ActionType) (game.Action, bool) {
	var offered []game.ActionType
	for _, t := range types {
		if game.HasType(choices, t) {
			offered = append(offered, t)
		}
	}
	if len(offered) == 0 {
		return game.Action{}, false
	}
	return game.NewAction(offered[b.rng.Intn(len(offered))]), true
}

func isSetup(choices []game.ActionChoice) bool {
	for _, c := range choices {
		if c.Type.Category() == game.Setup {
			return true
		}
	}
	return false
}

// centre returns the square closest to the centroid of squares, the first on ties.
func centre(squares []game.Square) game.Square {
	var cx, cy float64
	for _, sq := range squares {
		cx += float64(sq.X)
		cy += float64(sq.Y)
	}
	cx /= float64(len(squares))
	cy /= float64(len(squares))

	best, bestDistance := squares[0], math.Inf(1)
	for _, sq := range squares {
		dx, dy := float64(sq.X)-cx, float64(sq.Y)-cy
		if d := dx*dx + dy*dy; d < bestDistance {
			best, bestDistance = sq, d
		}
	}
	return best
}
