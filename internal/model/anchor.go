package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"

	"github.com/piwi3910/SupportGen/internal/geometry"
)

// AnchorKind records which analysis flagged an anchor.
type AnchorKind string

const (
	AnchorOverhang AnchorKind = "overhang"
	AnchorBridge   AnchorKind = "bridge"
	AnchorIsland   AnchorKind = "island"
	AnchorManual   AnchorKind = "manual" // Imported from a user-supplied anchor list
)

// AnchorKinds lists every kind in report order.
var AnchorKinds = []AnchorKind{AnchorIsland, AnchorOverhang, AnchorBridge, AnchorManual}

func (k AnchorKind) String() string {
	return string(k)
}

// ParseAnchorKind converts a kind name, case-sensitive, to an AnchorKind.
func ParseAnchorKind(s string) (AnchorKind, bool) {
	for _, k := range AnchorKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// SupportAnchor is a point on the model surface that needs a pillar.
type SupportAnchor struct {
	Position    mgl64.Vec3 `json:"position"`
	Kind        AnchorKind `json:"kind"`
	TipDiameter float64    `json:"tip_diameter"` // mm
	Load        float64    `json:"load"`         // Supported area estimate in mm²
	Tilt        float64    `json:"tilt"`           // Supported surface angle from horizontal, degrees
	Tier        string     `json:"tier,omitempty"` // Set when tiers are assigned per anchor
}

// Layer is one horizontal cross-section of the oriented model.
type Layer struct {
	Index      int           `json:"index"`
	Z          float64       `json:"z"`
	Regions    []orb.Polygon `json:"regions"` // First ring outer, remaining rings holes
	Degenerate bool          `json:"degenerate"`
}

// Area returns the total region area of the layer.
func (l Layer) Area() float64 {
	var a float64
	for _, r := range l.Regions {
		a += geometry.RegionArea(r)
	}
	return a
}

// Island is a layer region with no overlap with the layer below.
type Island struct {
	Layer    int       `json:"layer"`
	Z        float64   `json:"z"`
	Centroid orb.Point `json:"centroid"`
	Area     float64   `json:"area"` // mm²
}

// SupportSolid is one generated pillar.
type SupportSolid struct {
	Mesh         Mesh         `json:"-"`
	Base         mgl64.Vec3   `json:"base"` // Center of the base disc, Z = 0
	Tip          mgl64.Vec3   `json:"tip"`  // Equals the (clustered) anchor position
	TipDiameter  float64      `json:"tip_diameter"`
	BaseDiameter float64      `json:"base_diameter"`
	Height       float64      `json:"height"`
	Members      int          `json:"members"` // Anchors merged into this pillar
	Kinds        []AnchorKind `json:"kinds"`
	Load         float64      `json:"load"`
}

// Volume returns the enclosed volume of the pillar mesh.
func (s SupportSolid) Volume() float64 {
	return s.Mesh.Volume()
}

// ContactArea returns the area of the tip disc touching the model.
func (s SupportSolid) ContactArea() float64 {
	r := s.TipDiameter / 2
	return math.Pi * r * r
}
