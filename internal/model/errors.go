package model

import "fmt"

// InvalidMeshError reports an input mesh that cannot be processed:
// no faces, out-of-range indices, or zero enclosed volume.
type InvalidMeshError struct {
	Reason string
}

func (e *InvalidMeshError) Error() string {
	return "invalid mesh: " + e.Reason
}

// DegenerateLayerError reports a cross-section that could not be turned into
// closed loops. It is recoverable: the layer is skipped and slicing continues.
type DegenerateLayerError struct {
	Layer  int
	Z      float64
	Reason string
}

func (e *DegenerateLayerError) Error() string {
	return fmt.Sprintf("degenerate layer %d at z=%.4f: %s", e.Layer, e.Z, e.Reason)
}

// CombineError reports a combined mesh that failed validation.
type CombineError struct {
	Volume      float64
	ModelVolume float64
	Reason      string
}

func (e *CombineError) Error() string {
	return fmt.Sprintf("combine failed: %s (combined volume %.4f, model volume %.4f)", e.Reason, e.Volume, e.ModelVolume)
}

// ConfigurationError reports an option whose value is out of range.
// It is returned before any pipeline stage runs.
type ConfigurationError struct {
	Option string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Option, e.Value, e.Reason)
}
