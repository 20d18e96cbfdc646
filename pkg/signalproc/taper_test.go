package signalproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaperCosine_ZeroFracIsUnmodified(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}
	out := TaperCosine(y, 0)
	assert.Equal(t, y, out)
}

func TestTaperCosine_TapersEnds(t *testing.T) {
	y := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	out := TaperCosine(y, 0.2)

	assert.Less(t, out[0], 1.0)
	assert.Greater(t, out[0], 0.0)
	assert.Less(t, out[len(out)-1], 1.0)
	// interior samples untouched
	assert.Equal(t, 1.0, out[len(out)/2])
}

func TestTaperCosine_DoesNotMutateInput(t *testing.T) {
	y := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	cp := append([]float64(nil), y...)
	TaperCosine(y, 0.5)
	assert.Equal(t, cp, y)
}
