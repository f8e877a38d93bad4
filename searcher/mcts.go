package searcher

import (
	"fmt"
	"math"
	"time"

	"bowlbot/experiments/metrics"
	"bowlbot/game"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type Option func(mcts *MCTS)

type MCTS struct {
	iterations   int
	duration     time.Duration
	budgeted     bool
	cSquared     float64
	rewards      Rewards
	rolloutLimit int
	enumerator   Enumerator
	rng          *rand.Rand
	metrics      metrics.Collector
}

// WithIterations bounds the search by completed rollouts.
func WithIterations(iterations int) Option {
	return func(m *MCTS) {
		if iterations < 0 {
			panic("iterations cannot be negative")
		}
		m.iterations = iterations
		m.budgeted = true
	}
}

// WithDuration bounds the search by wall-clock time, checked between iterations.
func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration < 0 {
			panic("duration cannot be negative")
		}
		m.duration = duration
		m.budgeted = true
	}
}

// WithExploration sets the exploration constant C.
func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c < 0 || math.IsNaN(c) {
			panic("exploration constant must be non-negative")
		}
		m.cSquared = c * c
	}
}

func WithRewards(rewards Rewards) Option {
	return func(m *MCTS) {
		m.rewards = rewards
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRolloutLimit caps the number of actions a single rollout may take.
func WithRolloutLimit(steps int) Option {
	return func(m *MCTS) {
		if steps > 0 {
			m.rolloutLimit = steps
		}
	}
}

// WithExcluded replaces the action types left out of search and rollouts.
func WithExcluded(types ...game.ActionType) Option {
	return func(m *MCTS) {
		m.enumerator = NewEnumerator(types...)
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{ // Default values
		cSquared:   CSquared,
		rewards:    DefaultRewards(),
		enumerator: NewEnumerator(DefaultExcluded...),
		rng:        rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		metrics:    metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if !m.budgeted {
		m.iterations = DefaultIterations
	}
	return m
}

func (m *MCTS) Exploration() float64 {
	return math.Sqrt(m.cSquared)
}

// Search runs MCTS from state on behalf of team and returns the recommended
// action. The state is copied and never mutated.
func (m *MCTS) Search(state game.State, team game.TeamID) (game.Action, metrics.SearchMetric, error) {
	if state.IsTerminal() {
		return game.Action{}, metrics.SearchMetric{}, ErrTerminalState
	}
	if len(state.ActionChoices()) == 0 {
		return game.Action{}, metrics.SearchMetric{}, fmt.Errorf("%w: no decision pending", game.ErrNoProgress)
	}
	sim, err := NewSimulator(state)
	if err != nil {
		return game.Action{}, metrics.SearchMetric{}, err
	}
	if sim.IsTerminal() {
		return game.Action{}, metrics.SearchMetric{}, ErrTerminalState
	}
	actions := m.enumerator.Enumerate(sim.State())
	if len(actions) == 0 {
		return game.Action{}, metrics.SearchMetric{}, fmt.Errorf("%w: no actions at the root", game.ErrNoProgress)
	}

	t := newTree()
	m.metrics.Start(m.Exploration())
	start := time.Now()
	for done := 0; !m.exhausted(done, start); done++ {
		if err := m.iterate(sim, t, team); err != nil {
			return game.Action{}, m.metrics.Complete(t.size()), err
		}
		m.metrics.AddIteration()
	}
	if err := sim.Reset(); err != nil {
		return game.Action{}, m.metrics.Complete(t.size()), err
	}
	metric := m.metrics.Complete(t.size())

	best := actions[0]
	if len(t.nodes[rootID].children) > 0 {
		child := t.mostVisited(rootID)
		best = t.nodes[child].action
		log.Debug().Msgf("search chose %s: %d/%d visits, mean %.3f, %d nodes",
			best, t.nodes[child].visits, t.nodes[rootID].visits, t.nodes[child].mean(), t.size())
	}
	return best, metric, nil
}

func (m *MCTS) exhausted(done int, start time.Time) bool {
	if m.iterations == 0 && m.duration == 0 {
		return true
	}
	if m.iterations > 0 && done >= m.iterations {
		return true
	}
	return m.duration > 0 && time.Since(start) >= m.duration
}

// iterate runs one selection, expansion, rollout and backup cycle.
func (m *MCTS) iterate(sim *Simulator, t *tree, team game.TeamID) error {
	if err := sim.Reset(); err != nil {
		return err
	}

	id, depth := rootID, 0
	for t.nodes[id].visits > 0 && !sim.IsTerminal() {
		if !t.nodes[id].expanded {
			t.expand(id, m.enumerator.Enumerate(sim.State()))
		}
		if len(t.nodes[id].children) == 0 {
			break
		}

		// Fresh dice may have taken the game elsewhere since this node was
		// expanded, so only children legal in this realization compete
		choices := sim.Choices()
		child := t.bestChild(id, m.cSquared, func(a game.Action) bool {
			return game.IsLegal(choices, a)
		})
		if child < 0 {
			m.metrics.AddDivergence()
			break
		}
		if err := sim.Apply(t.nodes[child].action); err != nil {
			return err
		}
		id = child
		depth++
	}
	m.metrics.ObserveDepth(depth)

	outcome, err := m.rollout(sim, team)
	if err != nil {
		return err
	}
	t.backup(id, outcome)
	return nil
}

// rollout plays random actions to the end of the game and restores the
// working state before returning the outcome for team.
func (m *MCTS) rollout(sim *Simulator, team game.TeamID) (float64, error) {
	token := sim.Snapshot()

	for steps := 0; !sim.IsTerminal(); steps++ {
		if m.rolloutLimit > 0 && steps >= m.rolloutLimit {
			return 0, fmt.Errorf("%w: %d steps", ErrRolloutLimit, steps)
		}
		action, ok := m.enumerator.Sample(sim.Choices(), m.rng)
		if !ok {
			break
		}
		if err := sim.Apply(action); err != nil {
			return 0, err
		}
	}
	if sim.IsTerminal() {
		m.metrics.AddFullPlayout()
	}

	outcome := sim.Outcome(team, m.rewards)
	return outcome, sim.Restore(token)
}
