package experiments

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bowlbot/config"

	"github.com/stretchr/testify/require"
)

func smallConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Pitch.TurnsPerTeam = 1
	cfg.Experiment.Games = 2
	cfg.Experiment.Output = t.TempDir()
	cfg.Experiment.Budgets = []int{0, 5}
	cfg.Experiment.Explorations = []float64{0.5}
	cfg.Search.Iterations = 5
	return cfg
}

func outputFiles(t *testing.T, root, name string) []string {
	runs, err := os.ReadDir(filepath.Join(root, name))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	entries, err := os.ReadDir(filepath.Join(root, name, runs[0].Name()))
	require.NoError(t, err)
	var files []string
	for _, e := range entries {
		files = append(files, e.Name())
	}
	return files
}

func TestBudgetExperiment(t *testing.T) {
	cfg := smallConfig(t)
	tallies, err := RunBudgetExperiment(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, tallies, 2)
	for i, tally := range tallies {
		require.Equal(t, cfg.Experiment.Budgets[i], tally.Agent.Iterations)
		require.Equal(t, cfg.Experiment.Games, tally.Wins+tally.Draws+tally.Losses)
	}

	require.ElementsMatch(t, []string{
		"agent_configs.csv",
		"game_records.csv",
		"move_records.csv",
		"move_records.parquet",
	}, outputFiles(t, cfg.Experiment.Output, "budget"))
}

func TestExplorationExperiment(t *testing.T) {
	cfg := smallConfig(t)
	tallies, err := RunExplorationExperiment(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	require.Equal(t, 0.5, tallies[0].Agent.Exploration)
	require.Equal(t, cfg.Experiment.Games, tallies[0].Wins+tallies[0].Draws+tallies[0].Losses)
}

func TestThroughputExperiment(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Experiment.TimeBudgets = []time.Duration{5 * time.Millisecond}
	tallies, err := RunThroughputExperiment(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	require.Equal(t, 5*time.Millisecond, tallies[0].Agent.Duration)
	require.Zero(t, tallies[0].Agent.Iterations)
	require.Equal(t, cfg.Experiment.Games, tallies[0].Wins+tallies[0].Draws+tallies[0].Losses)
	require.Contains(t, outputFiles(t, cfg.Experiment.Output, "throughput"), "game_records.csv")
}

func TestExperimentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunBudgetExperiment(ctx, smallConfig(t))
	require.ErrorIs(t, err, context.Canceled)
}
