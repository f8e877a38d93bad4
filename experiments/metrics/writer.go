package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// AgentConfig describes one contestant of an experiment.
type AgentConfig struct {
	ID          int
	Random      bool // Baseline random agent, the search fields are ignored
	Iterations  int
	Duration    time.Duration
	Exploration float64
}

type GameRecord struct {
	ID     int
	Agent1 int // AgentConfig.ID of the home team
	Agent2 int // AgentConfig.ID of the away team
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

// moveRow is the columnar form of a MoveRecord.
type moveRow struct {
	Game         int32   `parquet:"game"`
	Step         int32   `parquet:"step"`
	Team         string  `parquet:"team,dict"`
	Action       string  `parquet:"action,dict"`
	Player       string  `parquet:"player,dict"`
	X            int32   `parquet:"x"`
	Y            int32   `parquet:"y"`
	Searched     bool    `parquet:"searched"`
	DurationUS   int64   `parquet:"duration_us"`
	Exploration  float64 `parquet:"exploration"`
	Iterations   int32   `parquet:"iterations"`
	FullPlayouts int32   `parquet:"full_playouts"`
	Divergences  int32   `parquet:"divergences"`
	MaxDepth     int32   `parquet:"max_depth"`
	TreeSize     int32   `parquet:"tree_size"`
}

type Writer struct {
	baseDir string
}

func NewWriter(root, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "random", "iterations", "duration", "exploration"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.FormatBool(config.Random),
			strconv.Itoa(config.Iterations),
			config.Duration.String(),
			strconv.FormatFloat(config.Exploration, 'f', -1, 64),
		})
	}
	return w.writeCSV("agent_configs.csv", header, rows)
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agent1", "agent2", "home", "away", "winner", "home_score", "away_score", "start_time", "end_time", "duration", "total_moves"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Agent1),
			strconv.Itoa(record.Agent2),
			record.Home,
			record.Away,
			string(record.Winner),
			strconv.Itoa(record.HomeScore),
			strconv.Itoa(record.AwayScore),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
		})
	}
	return w.writeCSV("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "team", "action", "searched", "duration", "iterations", "full_playouts", "divergences", "max_depth", "tree_size"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			string(record.Team),
			record.Action.String(),
			strconv.FormatBool(record.Searched),
			record.Duration.String(),
			strconv.Itoa(record.Iterations),
			strconv.Itoa(record.FullPlayouts),
			strconv.Itoa(record.Divergences),
			strconv.Itoa(record.MaxDepth),
			strconv.Itoa(record.TreeSize),
		})
	}
	return w.writeCSV("move_records.csv", header, rows)
}

// WriteMoveParquet stores the move records as a zstd compressed Parquet file.
func (w *Writer) WriteMoveParquet(records []MoveRecord) error {
	rows := make([]moveRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, moveRow{
			Game:         int32(record.Game),
			Step:         int32(record.Step),
			Team:         string(record.Team),
			Action:       record.Action.Type.String(),
			Player:       string(record.Action.Player),
			X:            int32(record.Action.Position.X),
			Y:            int32(record.Action.Position.Y),
			Searched:     record.Searched,
			DurationUS:   record.Duration.Microseconds(),
			Exploration:  record.Exploration,
			Iterations:   int32(record.Iterations),
			FullPlayouts: int32(record.FullPlayouts),
			Divergences:  int32(record.Divergences),
			MaxDepth:     int32(record.MaxDepth),
			TreeSize:     int32(record.TreeSize),
		})
	}

	path := filepath.Join(w.baseDir, "move_records.parquet")
	err := parquet.WriteFile(path, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "move_record_v1"),
	)
	if err != nil {
		return fmt.Errorf("failed to write move records parquet: %w", err)
	}
	return nil
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	// Create a file
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}
