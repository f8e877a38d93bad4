package engine

import (
	"context"
	"errors"

	"bowlbot/experiments/metrics"
	"bowlbot/game"
)

const MaxSteps = 10000

var ErrStepLimit = errors.New("game exceeded the step limit")

type Engine interface {
	// Run plays a game till it ends, the step limit is reached or the context is cancelled
	Run(ctx context.Context) (winner game.TeamID, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric, err error)
}
