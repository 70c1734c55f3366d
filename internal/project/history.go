package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/SupportGen/internal/model"
)

const defaultMaxRuns = 50

// RunSummary is the part of a model.Report worth keeping per run.
type RunSummary struct {
	LayerCount     int                      `json:"layer_count"`
	IslandCount    int                      `json:"island_count"`
	AnchorCounts   map[model.AnchorKind]int `json:"anchor_counts"`
	SolidCount     int                      `json:"solid_count"`
	SupportVolume  float64                  `json:"support_volume"`
	ContactArea    float64                  `json:"contact_area"`
	CollisionCount int                      `json:"collision_count"`
	Duration       time.Duration            `json:"duration"`
}

// Summarize extracts a RunSummary from a report.
func Summarize(r model.Report) RunSummary {
	s := RunSummary{
		LayerCount:     r.LayerCount,
		IslandCount:    r.IslandCount,
		AnchorCounts:   make(map[model.AnchorKind]int, len(r.AnchorCounts)),
		SolidCount:     r.SolidCount,
		SupportVolume:  r.SupportVolume,
		ContactArea:    r.ContactArea,
		CollisionCount: len(r.Collisions),
	}
	for k, v := range r.AnchorCounts {
		s.AnchorCounts[k] = v
	}
	for _, t := range r.Timings {
		s.Duration += t.Duration
	}
	return s
}

// RunRecord is one completed generate run.
type RunRecord struct {
	ID         string       `json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	MeshPath   string       `json:"mesh_path"`
	OutputPath string       `json:"output_path"`
	Profile    string       `json:"profile"`
	Tier       string       `json:"tier"`
	Summary    RunSummary   `json:"summary"`
	Config     model.Config `json:"config"`
}

// NewRunRecord creates a record with a fresh short ID.
func NewRunRecord(meshPath, outputPath string, cfg model.Config, report model.Report) RunRecord {
	return RunRecord{
		ID:         uuid.New().String()[:8],
		CreatedAt:  time.Now().UTC(),
		MeshPath:   meshPath,
		OutputPath: outputPath,
		Summary:    Summarize(report),
		Config:     cfg,
	}
}

// History keeps the most recent runs, newest first.
type History struct {
	Runs     []RunRecord `json:"runs"`
	MaxDepth int         `json:"max_depth"`
}

// NewHistory creates an empty history with the given limit.
// A non-positive maxDepth uses the default of 50.
func NewHistory(maxDepth int) *History {
	if maxDepth <= 0 {
		maxDepth = defaultMaxRuns
	}
	return &History{Runs: []RunRecord{}, MaxDepth: maxDepth}
}

// Add records a run at the front, dropping the oldest beyond MaxDepth.
func (h *History) Add(r RunRecord) {
	h.Runs = append([]RunRecord{r}, h.Runs...)
	limit := h.MaxDepth
	if limit <= 0 {
		limit = defaultMaxRuns
	}
	if len(h.Runs) > limit {
		h.Runs = h.Runs[:limit]
	}
}

// Find returns the run whose ID starts with prefix. An ambiguous prefix is
// an error.
func (h *History) Find(prefix string) (RunRecord, error) {
	if prefix == "" {
		return RunRecord{}, errors.New("empty run id")
	}
	var found []RunRecord
	for _, r := range h.Runs {
		if strings.HasPrefix(r.ID, prefix) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return RunRecord{}, fmt.Errorf("run %q not found", prefix)
	case 1:
		return found[0], nil
	default:
		return RunRecord{}, fmt.Errorf("run id %q is ambiguous (%d matches)", prefix, len(found))
	}
}

// Len returns the number of stored runs.
func (h *History) Len() int {
	return len(h.Runs)
}

// DefaultHistoryPath returns the default location of the run history.
func DefaultHistoryPath() string {
	return filepath.Join(DefaultConfigDir(), "history.json")
}

// SaveHistory writes the history to a JSON file.
func SaveHistory(path string, h *History) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadHistory reads the history from a JSON file. A missing file gives an
// empty history.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewHistory(0), nil
		}
		return nil, err
	}
	h := NewHistory(0)
	if err := json.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	if h.Runs == nil {
		h.Runs = []RunRecord{}
	}
	if h.MaxDepth <= 0 {
		h.MaxDepth = defaultMaxRuns
	}
	return h, nil
}
