package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"bowlbot/experiments/metrics"
	"bowlbot/game"
	"bowlbot/game/pitch"
	"bowlbot/searcher/agent"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"
)

type renderer interface {
	Render(w io.Writer, profile termenv.Profile) error
}

type scorer interface {
	Score(team game.TeamID) int
}

type Option func(e *Local)

func WithMaxSteps(steps int) Option {
	return func(e *Local) {
		if steps > 0 {
			e.maxSteps = steps
		}
	}
}

// WithRender draws the game to w whenever the acting team changes and once it ends.
func WithRender(w io.Writer, profile termenv.Profile) Option {
	return func(e *Local) {
		e.out = w
		e.profile = profile
	}
}

var _ Engine = (*Local)(nil)

// Local plays a match between two agents in-process.
type Local struct {
	state    game.State
	agents   map[game.TeamID]agent.Agent
	maxSteps int
	out      io.Writer
	profile  termenv.Profile
}

func LocalEngine(state game.State, home, away agent.Agent, options ...Option) *Local {
	if home == nil || away == nil {
		panic("need an agent for both teams")
	}
	e := &Local{
		state:    state,
		agents:   map[game.TeamID]agent.Agent{pitch.Home: home, pitch.Away: away},
		maxSteps: MaxSteps,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run executes the entire game loop until the game is over.
func (e *Local) Run(ctx context.Context) (game.TeamID, metrics.GameMetric, []metrics.MoveMetric, error) {
	home, away := e.agents[pitch.Home], e.agents[pitch.Away]
	gameMetric := metrics.GameMetric{
		Home:      home.Name(),
		Away:      away.Name(),
		StartTime: time.Now(),
	}
	home.NewGame(e.state, pitch.Home)
	away.NewGame(e.state, pitch.Away)
	log.Info().Msgf("%s (home) vs %s (away)", home.Name(), away.Name())

	var moveMetrics []metrics.MoveMetric
	for steps := 0; !e.state.IsTerminal(); steps++ {
		if err := ctx.Err(); err != nil {
			return "", gameMetric, moveMetrics, err
		}
		if steps >= e.maxSteps {
			return "", gameMetric, moveMetrics, fmt.Errorf("%w: %d steps", ErrStepLimit, steps)
		}

		if len(e.state.ActionChoices()) == 0 {
			if err := e.state.Advance(); err != nil {
				return "", gameMetric, moveMetrics, fmt.Errorf("failed to advance: %w", err)
			}
			continue
		}

		team := e.state.Team()
		actor := e.agents[team]
		action, err := actor.Act(e.state)
		if err != nil {
			return "", gameMetric, moveMetrics, fmt.Errorf("%s (%s) failed to act: %w", actor.Name(), team, err)
		}
		if err := e.state.Step(action); err != nil {
			return "", gameMetric, moveMetrics, fmt.Errorf("%s (%s) played %s: %w", actor.Name(), team, action, err)
		}

		move := metrics.MoveMetric{Step: steps, Team: team, Action: action}
		if recorder, ok := actor.(agent.Recorder); ok {
			decision := recorder.LastDecision()
			move.Searched = decision.Searched
			move.SearchMetric = decision.Metric
		}
		moveMetrics = append(moveMetrics, move)

		if !e.state.IsTerminal() && e.state.Team() != team {
			e.render()
		}
	}
	e.render()

	home.EndGame(e.state)
	away.EndGame(e.state)

	winner, _ := e.state.Winner()
	gameMetric.Winner = winner
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = len(moveMetrics)
	if s, ok := e.state.(scorer); ok {
		gameMetric.HomeScore = s.Score(pitch.Home)
		gameMetric.AwayScore = s.Score(pitch.Away)
	}

	if winner == "" {
		log.Info().Msgf("game drawn %d - %d after %d moves", gameMetric.HomeScore, gameMetric.AwayScore, gameMetric.TotalMoves)
	} else {
		log.Info().Msgf("%s won %d - %d after %d moves", winner, gameMetric.HomeScore, gameMetric.AwayScore, gameMetric.TotalMoves)
	}
	return winner, gameMetric, moveMetrics, nil
}

func (e *Local) render() {
	if e.out == nil {
		return
	}
	r, ok := e.state.(renderer)
	if !ok {
		return
	}
	if err := r.Render(e.out, e.profile); err != nil {
		log.Warn().Err(err).Msg("failed to render game")
	}
}
