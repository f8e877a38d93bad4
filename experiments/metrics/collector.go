package metrics

import (
	"bowlbot/game"
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Duration     time.Duration
	Exploration  float64
	Iterations   int
	FullPlayouts int
	Divergences  int
	MaxDepth     int
	TreeSize     int
}

type MoveMetric struct {
	Step     int
	Team     game.TeamID
	Action   game.Action
	Searched bool
	SearchMetric
}

type GameMetric struct {
	Home       string // Agent name
	Away       string // Agent name
	Winner     game.TeamID
	HomeScore  int
	AwayScore  int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
}

type Collector interface {
	Start(exploration float64)
	AddIteration()
	AddFullPlayout()
	AddDivergence()
	ObserveDepth(depth int)
	Complete(treeSize int) SearchMetric
}

type collector struct {
	exploration  float64
	startTime    time.Time
	iterations   atomic.Int32
	fullPlayouts atomic.Int32
	divergences  atomic.Int32
	maxDepth     atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(exploration float64) {
	m.startTime = time.Now()
	m.exploration = exploration
	m.iterations.Store(0)
	m.fullPlayouts.Store(0)
	m.divergences.Store(0)
	m.maxDepth.Store(0)
}

func (m *collector) AddIteration() {
	m.iterations.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) AddDivergence() {
	m.divergences.Add(1)
}

func (m *collector) ObserveDepth(depth int) {
	for {
		current := m.maxDepth.Load()
		if int32(depth) <= current || m.maxDepth.CompareAndSwap(current, int32(depth)) {
			return
		}
	}
}

func (m *collector) Complete(treeSize int) SearchMetric {
	return SearchMetric{
		Duration:     time.Since(m.startTime),
		Exploration:  m.exploration,
		Iterations:   int(m.iterations.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
		Divergences:  int(m.divergences.Load()),
		MaxDepth:     int(m.maxDepth.Load()),
		TreeSize:     treeSize,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(exploration float64)          {}
func (m *dummyCollector) AddIteration()                      {}
func (m *dummyCollector) AddFullPlayout()                    {}
func (m *dummyCollector) AddDivergence()                     {}
func (m *dummyCollector) ObserveDepth(depth int)             {}
func (m *dummyCollector) Complete(treeSize int) SearchMetric { return SearchMetric{} }
