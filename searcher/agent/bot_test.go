package agent

import (
	"fmt"
	"testing"

	"bowlbot/game"
	"bowlbot/game/pitch"
	"bowlbot/searcher"

	"github.com/stretchr/testify/require"
)

// treeState walks a hand-built game tree keyed by action.
type treeState struct {
	node *treeNode
	log  []*treeNode
}

type treeNode struct {
	team    game.TeamID
	choices []game.ActionChoice
	next    map[game.Action]*treeNode
	done    bool
	winner  game.TeamID
}

func (s *treeState) Team() game.TeamID                  { return s.node.team }
func (s *treeState) ActionChoices() []game.ActionChoice { return s.node.choices }
func (s *treeState) Advance() error                     { return game.ErrNoProgress }
func (s *treeState) IsTerminal() bool                   { return s.node.done }

func (s *treeState) Step(action game.Action) error {
	next, ok := s.node.next[action]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrIllegalAction, action)
	}
	s.node = next
	return nil
}

func (s *treeState) Winner() (game.TeamID, bool) {
	return s.node.winner, s.node.done && s.node.winner != ""
}

func (s *treeState) Snapshot() game.Token {
	s.log = append(s.log, s.node)
	return game.Token(len(s.log) - 1)
}

func (s *treeState) Restore(token game.Token) error {
	if int(token) >= len(s.log) {
		return game.ErrUnknownToken
	}
	s.node = s.log[token]
	s.log = s.log[:token+1]
	return nil
}

func (s *treeState) Copy() game.State {
	return &treeState{node: s.node, log: append([]*treeNode(nil), s.log...)}
}

// decision returns a state offering the given choices with no further play.
func decision(choices ...game.ActionChoice) *treeState {
	return &treeState{node: &treeNode{team: "home", choices: choices}}
}

func newBot(seed uint64, options ...BotOption) *Bot {
	mcts := searcher.NewMCTS(searcher.WithIterations(100), searcher.WithSeed(seed), searcher.WithMetrics())
	b := NewBot(mcts, append([]BotOption{WithBotSeed(seed)}, options...)...)
	b.NewGame(nil, "home")
	return b
}

func TestBotShortCircuits(t *testing.T) {
	t.Run("a single legal action is returned without search", func(t *testing.T) {
		b := newBot(1)
		action, err := b.Act(decision(game.ActionChoice{Type: game.EndTurn}))
		require.NoError(t, err)
		require.Equal(t, game.NewAction(game.EndTurn), action)
		require.False(t, b.LastDecision().Searched)
		require.Zero(t, b.LastDecision().Metric.Iterations)
	})

	t.Run("a single parameterized action is returned without search", func(t *testing.T) {
		b := newBot(1)
		sq := game.Square{X: 4, Y: 2}
		action, err := b.Act(decision(game.ActionChoice{Type: game.Move, Positions: []game.Square{sq}}))
		require.NoError(t, err)
		require.Equal(t, game.NewAction(game.Move).WithPosition(sq), action)
		require.False(t, b.LastDecision().Searched)
	})

	t.Run("the coin toss is called at random", func(t *testing.T) {
		seen := map[game.ActionType]int{}
		for seed := uint64(0); seed < 50; seed++ {
			b := newBot(seed)
			action, err := b.Act(decision(game.ActionChoice{Type: game.Heads}, game.ActionChoice{Type: game.Tails}))
			require.NoError(t, err)
			require.False(t, b.LastDecision().Searched)
			seen[action.Type]++
		}
		require.Positive(t, seen[game.Heads])
		require.Positive(t, seen[game.Tails])
		require.Len(t, seen, 2)
	})

	t.Run("kick or receive follows the preference", func(t *testing.T) {
		state := decision(game.ActionChoice{Type: game.Kick}, game.ActionChoice{Type: game.Receive})

		action, err := newBot(1, WithKickPreference(PreferKick)).Act(state)
		require.NoError(t, err)
		require.Equal(t, game.Kick, action.Type)

		action, err = newBot(1, WithKickPreference(PreferReceive)).Act(state)
		require.NoError(t, err)
		require.Equal(t, game.Receive, action.Type)

		seen := map[game.ActionType]bool{}
		for seed := uint64(0); seed < 50; seed++ {
			action, err := newBot(seed, WithKickPreference(PreferRandom)).Act(state)
			require.NoError(t, err)
			seen[action.Type] = true
		}
		require.Len(t, seen, 2)
	})

	t.Run("setup follows the script and re-arms at the next setup", func(t *testing.T) {
		b := newBot(1)
		place := game.ActionChoice{Type: game.PlacePlayer, Players: []game.PlayerID{"home-1"}, Positions: []game.Square{{X: 1, Y: 1}}}
		formations := []game.ActionChoice{place, {Type: game.SetupFormationSpread}, {Type: game.SetupFormationWedge}}
		ready := []game.ActionChoice{place, {Type: game.SetupFormationSpread}, {Type: game.SetupFormationWedge}, {Type: game.EndSetup}}

		action, err := b.Act(decision(formations...))
		require.NoError(t, err)
		require.Equal(t, game.NewAction(game.SetupFormationSpread), action)
		action, err = b.Act(decision(ready...))
		require.NoError(t, err)
		require.Equal(t, game.NewAction(game.EndSetup), action)
		require.False(t, b.LastDecision().Searched)

		_, err = b.Act(decision(game.ActionChoice{Type: game.EndTurn}))
		require.NoError(t, err)

		action, err = b.Act(decision(formations...))
		require.NoError(t, err)
		require.Equal(t, game.NewAction(game.SetupFormationSpread), action, "Script should restart at a new setup")
	})

	t.Run("illegal scripted actions are skipped", func(t *testing.T) {
		b := newBot(1, WithSetup(game.EndSetup, game.SetupFormationWedge))
		action, err := b.Act(decision(game.ActionChoice{Type: game.SetupFormationSpread}, game.ActionChoice{Type: game.SetupFormationWedge}))
		require.NoError(t, err)
		require.Equal(t, game.NewAction(game.SetupFormationWedge), action)
	})

	t.Run("the ball is placed in the centre of the offered half", func(t *testing.T) {
		var half []game.Square
		for x := 7; x <= 12; x++ {
			for y := 1; y <= 5; y++ {
				half = append(half, game.Square{X: x, Y: y})
			}
		}
		action, err := newBot(1).Act(decision(game.ActionChoice{Type: game.PlaceBall, Positions: half}))
		require.NoError(t, err)
		require.Equal(t, game.NewAction(game.PlaceBall).WithPosition(game.Square{X: 9, Y: 3}), action)
	})

	t.Run("a terminal state is an error", func(t *testing.T) {
		_, err := newBot(1).Act(&treeState{node: &treeNode{done: true}})
		require.ErrorIs(t, err, searcher.ErrTerminalState)
	})
}

func TestBotSearch(t *testing.T) {
	t.Run("plays the winning move of a two-ply game", func(t *testing.T) {
		win, lose := game.Square{X: 5, Y: 5}, game.Square{X: 2, Y: 2}
		end := func(winner game.TeamID) *treeNode {
			return &treeNode{
				team:    "away",
				choices: []game.ActionChoice{{Type: game.EndTurn}},
				next:    map[game.Action]*treeNode{game.NewAction(game.EndTurn): {done: true, winner: winner}},
			}
		}
		root := &treeNode{
			team:    "home",
			choices: []game.ActionChoice{{Type: game.Move, Positions: []game.Square{lose, win}}},
			next: map[game.Action]*treeNode{
				game.NewAction(game.Move).WithPosition(lose): end("away"),
				game.NewAction(game.Move).WithPosition(win):  end("home"),
			},
		}

		for seed := uint64(1); seed <= 10; seed++ {
			b := newBot(seed)
			action, err := b.Act(&treeState{node: root})
			require.NoError(t, err)
			require.Equal(t, game.NewAction(game.Move).WithPosition(win), action, "seed %d", seed)
			require.True(t, b.LastDecision().Searched)
			require.Equal(t, 100, b.LastDecision().Metric.Iterations)
		}
	})

	t.Run("leaves the real match untouched for a whole game", func(t *testing.T) {
		cfg := pitch.DefaultConfig()
		cfg.TurnsPerTeam = 2
		gs, err := pitch.NewGameState(cfg)
		require.NoError(t, err)

		home := NewBot(searcher.NewMCTS(searcher.WithIterations(20), searcher.WithSeed(2)), WithBotSeed(2))
		away := NewRandom(3)
		home.NewGame(gs, pitch.Home)
		away.NewGame(gs, pitch.Away)

		for steps := 0; !gs.IsTerminal(); steps++ {
			require.Less(t, steps, 5000)
			if len(gs.ActionChoices()) == 0 {
				require.NoError(t, gs.Advance())
				continue
			}
			var actor Agent = away
			if gs.Team() == pitch.Home {
				actor = home
			}
			token, hash := gs.Snapshot(), gs.Hash()
			action, err := actor.Act(gs)
			require.NoError(t, err)
			require.Equal(t, token, gs.Snapshot())
			require.Equal(t, hash, gs.Hash())
			require.NoError(t, gs.Step(action))
		}
	})
}
