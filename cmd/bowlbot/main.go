package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"bowlbot/config"
	"bowlbot/engine"
	"bowlbot/experiments"
	"bowlbot/game/pitch"
	"bowlbot/searcher"
	"bowlbot/searcher/agent"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	mode := flag.String("mode", "play", "One of play, budget, exploration, throughput")
	iterations := flag.Int("iterations", -1, "Rollouts per decision, overrides the config")
	duration := flag.Duration("duration", -1, "Search time per decision, overrides the config")
	render := flag.Bool("render", false, "Draw the pitch after every turn")
	level := flag.String("log-level", "", "Log level, overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *iterations >= 0 {
		cfg.Search.Iterations = *iterations
	}
	if *duration >= 0 {
		cfg.Search.Duration = *duration
	}
	if *level != "" {
		cfg.LogLevel = *level
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logLevel, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(logLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var tallies []experiments.Tally
	switch *mode {
	case "play":
		err = play(ctx, cfg, *render)
	case "budget":
		tallies, err = experiments.RunBudgetExperiment(ctx, cfg)
	case "exploration":
		tallies, err = experiments.RunExplorationExperiment(ctx, cfg)
	case "throughput":
		tallies, err = experiments.RunThroughputExperiment(ctx, cfg)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	for _, tally := range tallies {
		fmt.Println(tally)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", *mode)
	}
}

// play runs one match of the configured bot against the random agent.
func play(ctx context.Context, cfg config.Config, render bool) error {
	state, err := pitch.NewGameState(cfg.Pitch)
	if err != nil {
		return err
	}

	botOptions, err := cfg.Bot.Options()
	if err != nil {
		return err
	}
	bot := agent.NewBot(searcher.NewMCTS(append(cfg.Search.Options(), searcher.WithMetrics())...),
		append(botOptions, agent.WithBotSeed(cfg.Search.Seed))...)

	options := []engine.Option{engine.WithMaxSteps(cfg.Experiment.MaxSteps)}
	if render {
		options = append(options, engine.WithRender(os.Stdout, termenv.EnvColorProfile()))
	}
	e := engine.LocalEngine(state, bot, agent.NewRandom(cfg.Search.Seed+1), options...)

	winner, gameMetric, moveMetrics, err := e.Run(ctx)
	if err != nil {
		return err
	}

	searched, iterations := 0, 0
	for _, move := range moveMetrics {
		if move.Searched {
			searched++
			iterations += move.Iterations
		}
	}
	if winner == "" {
		winner = "nobody"
	}
	fmt.Printf("%s %d - %d %s, winner %s, %d moves (%d searched, %d iterations) in %s\n",
		gameMetric.Home, gameMetric.HomeScore, gameMetric.AwayScore, gameMetric.Away,
		winner, gameMetric.TotalMoves, searched, iterations, gameMetric.Duration)
	return nil
}
