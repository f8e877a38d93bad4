package experiments

import (
	"context"
	"fmt"

	"bowlbot/config"
	"bowlbot/engine"
	"bowlbot/experiments/metrics"
	"bowlbot/game"
	"bowlbot/game/pitch"
	"bowlbot/searcher"
	"bowlbot/searcher/agent"

	"github.com/rs/zerolog/log"
)

// Tally counts the results of one match up from the searching agent's side.
type Tally struct {
	Agent  metrics.AgentConfig
	Wins   int
	Draws  int
	Losses int
}

func (t Tally) String() string {
	return fmt.Sprintf("agent %d: %d wins, %d draws, %d losses", t.Agent.ID, t.Wins, t.Draws, t.Losses)
}

// RunBudgetExperiment plays MCTS agents with increasing iteration budgets
// against the random baseline.
func RunBudgetExperiment(ctx context.Context, cfg config.Config) ([]Tally, error) {
	baseline := metrics.AgentConfig{ID: 0, Random: true}
	configs := []metrics.AgentConfig{}
	for i, budget := range cfg.Experiment.Budgets {
		configs = append(configs, metrics.AgentConfig{
			ID:          i + 1,
			Iterations:  budget,
			Exploration: cfg.Search.Exploration,
		})
	}
	return runExperiment(ctx, cfg, "budget", baseline, configs)
}

// RunExplorationExperiment plays MCTS agents with different exploration
// constants and the configured budget against the random baseline.
func RunExplorationExperiment(ctx context.Context, cfg config.Config) ([]Tally, error) {
	baseline := metrics.AgentConfig{ID: 0, Random: true}
	configs := []metrics.AgentConfig{}
	for i, c := range cfg.Experiment.Explorations {
		configs = append(configs, metrics.AgentConfig{
			ID:          i + 1,
			Iterations:  cfg.Search.Iterations,
			Duration:    cfg.Search.Duration,
			Exploration: c,
		})
	}
	return runExperiment(ctx, cfg, "exploration", baseline, configs)
}

// RunThroughputExperiment plays time budgeted MCTS agents against the random
// baseline to measure iterations per decision.
func RunThroughputExperiment(ctx context.Context, cfg config.Config) ([]Tally, error) {
	baseline := metrics.AgentConfig{ID: 0, Random: true}
	configs := []metrics.AgentConfig{}
	for i, d := range cfg.Experiment.TimeBudgets {
		configs = append(configs, metrics.AgentConfig{
			ID:          i + 1,
			Duration:    d,
			Exploration: cfg.Search.Exploration,
		})
	}
	return runExperiment(ctx, cfg, "throughput", baseline, configs)
}

func runExperiment(ctx context.Context, cfg config.Config, name string, baseline metrics.AgentConfig, configs []metrics.AgentConfig) ([]Tally, error) {
	// Run a number of games for each matchup
	count := 0
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}
	tallies := []Tally{}

	log.Info().Msgf("starting %s experiment...", name)

	for mi, contender := range configs {
		tally := Tally{Agent: contender}
		log.Info().Msgf("starting matchup %d of %d between agent=%+v and the baseline...", mi+1, len(configs), contender)

		for i := 0; i < cfg.Experiment.Games; i++ {
			// Alternate the home team so neither side keeps the coin toss call
			home, away := contender, baseline
			searcherTeam := pitch.Home
			if i%2 == 1 {
				home, away = baseline, contender
				searcherTeam = pitch.Away
			}
			count++

			winner, gameMetric, moveMetrics, err := runGame(ctx, cfg, uint64(count), home, away)
			if err != nil {
				return tallies, fmt.Errorf("matchup %d game %d: %w", mi+1, i+1, err)
			}
			gameRecords = append(gameRecords, metrics.GameRecord{
				ID:         count,
				Agent1:     home.ID,
				Agent2:     away.ID,
				GameMetric: gameMetric,
			})
			for _, mm := range moveMetrics {
				moveRecords = append(moveRecords, metrics.MoveRecord{
					Game:       count,
					MoveMetric: mm,
				})
			}

			switch winner {
			case searcherTeam:
				tally.Wins++
			case "":
				tally.Draws++
			default:
				tally.Losses++
			}
			log.Info().Msgf("completed matchup %d of %d game %d with winner: %q", mi+1, len(configs), i+1, winner)
		}
		tallies = append(tallies, tally)
		log.Info().Msgf("completed matchup %d of %d, %s", mi+1, len(configs), tally)
	}

	log.Info().Msgf("completed %s experiment", name)

	writer, err := metrics.NewWriter(cfg.Experiment.Output, name)
	if err != nil {
		return tallies, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(append([]metrics.AgentConfig{baseline}, configs...)); err != nil {
		return tallies, fmt.Errorf("failed to store agent configs: %w", err)
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return tallies, fmt.Errorf("failed to write game records: %w", err)
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return tallies, fmt.Errorf("failed to write move records: %w", err)
	}
	if err := writer.WriteMoveParquet(moveRecords); err != nil {
		return tallies, fmt.Errorf("failed to write move parquet: %w", err)
	}
	log.Info().Msgf("stored %d games and %d moves in %s", len(gameRecords), len(moveRecords), writer.Dir())

	return tallies, nil
}

// runGame executes a single game between two agents and returns the winner
func runGame(ctx context.Context, cfg config.Config, seed uint64, home, away metrics.AgentConfig) (game.TeamID, metrics.GameMetric, []metrics.MoveMetric, error) {
	pitchConfig := cfg.Pitch
	pitchConfig.Seed = cfg.Pitch.Seed + seed
	state, err := pitch.NewGameState(pitchConfig)
	if err != nil {
		return "", metrics.GameMetric{}, nil, err
	}

	homeAgent, err := createAgent(cfg, home, 2*seed)
	if err != nil {
		return "", metrics.GameMetric{}, nil, err
	}
	awayAgent, err := createAgent(cfg, away, 2*seed+1)
	if err != nil {
		return "", metrics.GameMetric{}, nil, err
	}

	e := engine.LocalEngine(state, homeAgent, awayAgent, engine.WithMaxSteps(cfg.Experiment.MaxSteps))
	return e.Run(ctx)
}

func createAgent(cfg config.Config, ac metrics.AgentConfig, seed uint64) (agent.Agent, error) {
	if ac.Random {
		return agent.NewRandom(cfg.Search.Seed + seed), nil
	}

	search := cfg.Search
	search.Iterations = ac.Iterations
	search.Duration = ac.Duration
	search.Exploration = ac.Exploration
	search.Seed = cfg.Search.Seed + seed
	options := append(search.Options(), searcher.WithMetrics())

	botOptions, err := cfg.Bot.Options()
	if err != nil {
		return nil, err
	}
	botOptions = append(botOptions,
		agent.WithName(fmt.Sprintf("mcts-%d", ac.ID)),
		agent.WithBotSeed(cfg.Search.Seed+seed),
	)
	return agent.NewBot(searcher.NewMCTS(options...), botOptions...), nil
}
