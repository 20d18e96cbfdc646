package detector

import "github.com/seisgo/pipeline/pkg/buffer"

// NoopPickerModel is a placeholder PickerModel that never emits a
// pick. The original detector's picker backend loads a Keras
// EQTransformer/PhaseNet model (original_source/detector/detector/eqt.py,
// seisbench_backend.py) — no ML inference runtime exists anywhere in
// the example corpus, so this package only defines the interface
// boundary (§6, §9). A real deployment implements PickerModel as a
// client of an external inference service (e.g. a gRPC sidecar
// serving the same weights) and passes it to PickerBackend instead.
type NoopPickerModel struct {
	Samples int
}

// InputSamples implements PickerModel.
func (m NoopPickerModel) InputSamples() int {
	if m.Samples <= 0 {
		return 6000
	}
	return m.Samples
}

// Classify implements PickerModel; always returns no picks.
func (NoopPickerModel) Classify(_ buffer.AlignedWindow) ClassifyResult {
	return ClassifyResult{}
}
