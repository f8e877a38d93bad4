package searcher

import (
	"testing"
	"time"

	"bowlbot/game"
	"bowlbot/game/pitch"

	"github.com/stretchr/testify/require"
)

// kickoffState returns a pitch match at the first turn of the receiving team.
func kickoffState(t *testing.T, seed uint64) *pitch.GameState {
	cfg := pitch.DefaultConfig()
	cfg.Seed = seed
	gs, err := pitch.NewGameState(cfg)
	require.NoError(t, err)

	for _, a := range []game.Action{
		game.NewAction(game.StartGame),
		game.NewAction(game.Heads),
		game.NewAction(game.Receive),
		game.NewAction(game.SetupFormationSpread),
		game.NewAction(game.EndSetup),
		game.NewAction(game.SetupFormationWedge),
		game.NewAction(game.EndSetup),
	} {
		require.NoError(t, gs.Step(a))
	}
	ball := gs.ActionChoices()[0].Positions
	require.NoError(t, gs.Step(game.NewAction(game.PlaceBall).WithPosition(ball[len(ball)/2])))
	require.NoError(t, gs.Advance())
	require.Equal(t, pitch.TurnPhase, gs.Phase())
	return gs
}

func TestSearch(t *testing.T) {
	winning, losing := game.Square{X: 3, Y: 1}, game.Square{X: 1, Y: 1}

	t.Run("fails fast on a terminal state", func(t *testing.T) {
		_, _, err := NewMCTS(WithSeed(1)).Search(newMockState(terminal("home")), "home")
		require.ErrorIs(t, err, ErrTerminalState)
	})

	t.Run("zero budget returns the first root action", func(t *testing.T) {
		state := newMockState(twoPly(winning, losing))
		action, metric, err := NewMCTS(WithIterations(0), WithSeed(1), WithMetrics()).Search(state, "home")
		require.NoError(t, err)
		require.Equal(t, game.NewAction(game.Move).WithPosition(losing), action)
		require.Zero(t, metric.Iterations)
		require.Zero(t, *state.steps, "No action should be simulated")
	})

	t.Run("finds the winning move of a two-ply game", func(t *testing.T) {
		for seed := uint64(1); seed <= 20; seed++ {
			state := newMockState(twoPly(winning, losing))
			action, metric, err := NewMCTS(WithIterations(100), WithSeed(seed), WithMetrics()).Search(state, "home")
			require.NoError(t, err)
			require.Equal(t, game.NewAction(game.Move).WithPosition(winning), action, "seed %d", seed)
			require.Equal(t, 100, metric.Iterations)
			require.Equal(t, 100, metric.FullPlayouts)
			require.GreaterOrEqual(t, metric.TreeSize, 3)
		}
	})

	t.Run("a time budget stops the search", func(t *testing.T) {
		state := newMockState(twoPly(winning, losing))
		start := time.Now()
		action, metric, err := NewMCTS(WithDuration(20*time.Millisecond), WithSeed(1), WithMetrics()).Search(state, "home")
		require.NoError(t, err)
		require.Less(t, time.Since(start), 5*time.Second)
		require.Positive(t, metric.Iterations)
		require.Equal(t, game.NewAction(game.Move).WithPosition(winning), action)
	})

	t.Run("the iteration budget fires before the time budget", func(t *testing.T) {
		state := newMockState(twoPly(winning, losing))
		_, metric, err := NewMCTS(WithIterations(10), WithDuration(time.Hour), WithSeed(1), WithMetrics()).Search(state, "home")
		require.NoError(t, err)
		require.Equal(t, 10, metric.Iterations)
	})

	t.Run("a state waiting on forced progression is rejected", func(t *testing.T) {
		after := &mockNode{team: "away", choices: []game.ActionChoice{{Type: game.EndTurn}}}
		state := newMockState(&mockNode{team: "home", forced: after})
		_, _, err := NewMCTS(WithIterations(5), WithSeed(1)).Search(state, "home")
		require.ErrorIs(t, err, game.ErrNoProgress)
		require.Equal(t, "home", string(state.Team()), "The caller's state should not advance")
	})

	t.Run("an endless rollout hits the rollout limit", func(t *testing.T) {
		loop := &mockNode{team: "home", choices: []game.ActionChoice{{Type: game.EndTurn}}}
		loop.next = map[game.Action]*mockNode{game.NewAction(game.EndTurn): loop}

		_, _, err := NewMCTS(WithIterations(5), WithRolloutLimit(50), WithSeed(1)).Search(newMockState(loop), "home")
		require.ErrorIs(t, err, ErrRolloutLimit)
	})

	t.Run("is deterministic for a fixed seed", func(t *testing.T) {
		gs := kickoffState(t, 3)
		first, _, err := NewMCTS(WithIterations(60), WithSeed(42)).Search(gs, gs.Team())
		require.NoError(t, err)
		second, _, err := NewMCTS(WithIterations(60), WithSeed(42)).Search(gs, gs.Team())
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("leaves the caller's state untouched", func(t *testing.T) {
		gs := kickoffState(t, 9)
		token, hash := gs.Snapshot(), gs.Hash()
		choices := gs.ActionChoices()

		action, _, err := NewMCTS(WithIterations(80), WithSeed(5), WithMetrics()).Search(gs, gs.Team())
		require.NoError(t, err)

		require.Equal(t, token, gs.Snapshot())
		require.Equal(t, hash, gs.Hash())
		require.Equal(t, choices, gs.ActionChoices())
		require.True(t, game.IsLegal(gs.ActionChoices(), action), "Search should return a legal action, got %s", action)
	})
}

func TestIterate(t *testing.T) {
	t.Run("visits are counted once per iteration", func(t *testing.T) {
		const n = 25
		m := NewMCTS(WithIterations(n), WithSeed(3))
		sim, err := NewSimulator(newMockState(twoPly(game.Square{X: 3, Y: 1}, game.Square{X: 1, Y: 1})))
		require.NoError(t, err)

		tr := newTree()
		for i := 0; i < n; i++ {
			require.NoError(t, m.iterate(sim, tr, "home"))
		}

		root := tr.nodes[rootID]
		require.Equal(t, n, root.visits)
		sum := 0
		for _, c := range root.children {
			sum += tr.nodes[c].visits
		}
		require.Equal(t, n-1, sum, "The first iteration rolls out from the root itself")
	})

	t.Run("the root expands on its second visit", func(t *testing.T) {
		m := NewMCTS(WithSeed(3))
		sim, err := NewSimulator(newMockState(twoPly(game.Square{X: 3, Y: 1}, game.Square{X: 1, Y: 1})))
		require.NoError(t, err)
		tr := newTree()

		require.NoError(t, m.iterate(sim, tr, "home"))
		require.False(t, tr.nodes[rootID].expanded)
		require.Equal(t, 1, tr.size())

		require.NoError(t, m.iterate(sim, tr, "home"))
		require.True(t, tr.nodes[rootID].expanded)
		require.Equal(t, 3, tr.size())
		require.Equal(t, 1, tr.nodes[tr.nodes[rootID].children[0]].visits, "The first unvisited child is rolled out")
	})
}

// chanceTree builds a game where home ends the turn, the dice pick one of
// three positions and home then plays once more. Both players may start in
// the first position, only "b" in the second and nobody in the third.
func chanceTree() *mockNode {
	startA := game.NewAction(game.StartMove).WithPlayer("a")
	startB := game.NewAction(game.StartMove).WithPlayer("b")
	both := &mockNode{
		team:    "home",
		choices: []game.ActionChoice{{Type: game.StartMove, Players: []game.PlayerID{"a", "b"}}},
		next:    map[game.Action]*mockNode{startA: terminal("home"), startB: terminal("home")},
	}
	onlyB := &mockNode{
		team:    "home",
		choices: []game.ActionChoice{{Type: game.StartMove, Players: []game.PlayerID{"b"}}},
		next:    map[game.Action]*mockNode{startB: terminal("home")},
	}
	neither := &mockNode{
		team:    "home",
		choices: []game.ActionChoice{{Type: game.EndPlayerTurn}},
		next:    map[game.Action]*mockNode{game.NewAction(game.EndPlayerTurn): terminal("away")},
	}
	return &mockNode{
		team:    "home",
		choices: []game.ActionChoice{{Type: game.EndTurn}},
		next: map[game.Action]*mockNode{
			game.NewAction(game.EndTurn): {outcomes: []*mockNode{both, onlyB, neither}},
		},
	}
}

func TestReplayDivergence(t *testing.T) {
	state := newMockState(chanceTree())
	m := NewMCTS(WithSeed(1), WithMetrics())
	m.metrics.Start(m.Exploration())
	sim, err := NewSimulator(state)
	require.NoError(t, err)
	tr := newTree()

	// Root rollout, then the EndTurn child, then the first player below it
	for i := 0; i < 3; i++ {
		require.NoError(t, m.iterate(sim, tr, "home"))
	}
	endTurn := tr.nodes[rootID].children[0]
	require.True(t, tr.nodes[endTurn].expanded)
	players := tr.nodes[endTurn].children
	require.Len(t, players, 2)
	startA, startB := players[0], players[1]
	require.Equal(t, 1, tr.nodes[startA].visits)
	require.Zero(t, tr.nodes[startB].visits)

	t.Run("a legal sibling is selected when the best child is not legal", func(t *testing.T) {
		*state.roll = 1
		require.NoError(t, m.iterate(sim, tr, "home"))
		require.Equal(t, 1, tr.nodes[startB].visits)
		require.Equal(t, 1, tr.nodes[startA].visits)
		require.Zero(t, m.metrics.Complete(tr.size()).Divergences)
	})

	t.Run("descent stops where no child is legal", func(t *testing.T) {
		*state.roll = 2
		before := tr.nodes[endTurn].visits
		rewards := tr.nodes[endTurn].rewards
		require.NoError(t, m.iterate(sim, tr, "home"))

		require.Equal(t, 1, m.metrics.Complete(tr.size()).Divergences)
		require.Equal(t, before+1, tr.nodes[endTurn].visits, "Backup should start at the last reachable node")
		require.InDelta(t, rewards-1, tr.nodes[endTurn].rewards, 1e-9, "The rollout from the diverged position is a loss")
		require.Equal(t, 1, tr.nodes[startA].visits)
		require.Equal(t, 1, tr.nodes[startB].visits)
	})
}
