package model

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Collision is a pillar whose shaft passes through the model below its tip.
type Collision struct {
	PillarIndex int        `json:"pillar_index"`
	Tip         mgl64.Vec3 `json:"tip"`
	HitZ        float64    `json:"hit_z"` // Height at which the shaft meets the model
	FaceIndex   int        `json:"face_index"`
}

// Report summarises one support generation run.
type Report struct {
	OrientationScore float64   `json:"orientation_score"`
	Orientation      Transform `json:"orientation"`
	LayerCount       int       `json:"layer_count"`
	DegenerateLayers int       `json:"degenerate_layers"`
	IslandCount      int       `json:"island_count"`

	AnchorCounts   map[AnchorKind]int `json:"anchor_counts"`
	TotalAnchors   int                `json:"total_anchors"`
	DroppedAnchors int                `json:"dropped_anchors"` // Removed as duplicates of nearby anchors
	TierCounts     map[string]int     `json:"tier_counts,omitempty"`

	SolidCount    int     `json:"solid_count"`
	SupportVolume float64 `json:"support_volume"` // mm³
	ContactArea   float64 `json:"contact_area"`   // mm², sum of tip discs

	ModelVolume    float64 `json:"model_volume"`
	CombinedVolume float64 `json:"combined_volume"`
	VerticesBefore int     `json:"vertices_before"`
	FacesBefore    int     `json:"faces_before"`
	VerticesAfter  int     `json:"vertices_after"`
	FacesAfter     int     `json:"faces_after"`

	Collisions []Collision   `json:"collisions,omitempty"`
	Timings    []StageTiming `json:"timings,omitempty"`
}

// NewReport returns a report with an initialised anchor count map.
func NewReport() Report {
	return Report{AnchorCounts: make(map[AnchorKind]int)}
}

// AnchorCount returns the number of anchors of the given kind.
func (r Report) AnchorCount(kind AnchorKind) int {
	return r.AnchorCounts[kind]
}

// ResinML converts the support volume to millilitres of resin.
func (r Report) ResinML() float64 {
	return r.SupportVolume / 1000.0
}

// CollisionWarnings produces human-readable warning messages for collisions.
func (r Report) CollisionWarnings() []string {
	var warnings []string
	for _, c := range r.Collisions {
		warnings = append(warnings, fmt.Sprintf(
			"Pillar %d to (%.2f, %.2f, %.2f) passes through the model at z=%.2f",
			c.PillarIndex+1, c.Tip.X(), c.Tip.Y(), c.Tip.Z(), c.HitZ,
		))
	}
	return warnings
}
