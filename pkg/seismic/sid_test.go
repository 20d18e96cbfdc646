package seismic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSID_DotForm(t *testing.T) {
	sid, ok := ParseSID("NC.KRP.--.HHZ")
	assert.True(t, ok)
	assert.Equal(t, SourceID{Net: "NC", Sta: "KRP", Loc: "--", Chan: "HHZ"}, sid)
}

func TestParseSID_UnderscoreForm(t *testing.T) {
	sid, ok := ParseSID("NC_KRP_--_H_H_Z")
	assert.True(t, ok)
	assert.Equal(t, SourceID{Net: "NC", Sta: "KRP", Loc: "--", Chan: "HHZ"}, sid)
}

func TestParseSID_FDSNPrefix(t *testing.T) {
	sid, ok := ParseSID("FDSN:NC_KRP_--_H_H_Z")
	assert.True(t, ok)
	assert.Equal(t, "NC", sid.Net)
	assert.Equal(t, "HHZ", sid.Chan)
}

// TestParseSID_LiteralScenario is spec.md §8 scenario 3, literal.
func TestParseSID_LiteralScenario(t *testing.T) {
	sid, ok := ParseSID("FDSN:XX_TEST__H_H_Z")
	require.True(t, ok)
	assert.Equal(t, SourceID{Net: "XX", Sta: "TEST", Loc: "", Chan: "HHZ"}, sid)

	_, ok = ParseSID("XX.STA..")
	assert.False(t, ok)
}

func TestParseSID_Invalid(t *testing.T) {
	cases := []string{"", "NC.KRP", "NC.KRP.--.", "NC_KRP_--"}
	for _, c := range cases {
		_, ok := ParseSID(c)
		assert.False(t, ok, "expected %q to be invalid", c)
	}
}

func TestSourceID_Station(t *testing.T) {
	sid := SourceID{Net: "NC", Sta: "KRP", Loc: "--", Chan: "HHZ"}
	assert.Equal(t, StationKey{Net: "NC", Sta: "KRP", Loc: "--"}, sid.Station())
}

func TestPick_Station(t *testing.T) {
	p := Pick{Net: "NC", Sta: "KRP", Loc: "--", Chan: "HHZ"}
	assert.Equal(t, StationKey{Net: "NC", Sta: "KRP", Loc: "--"}, p.Station())
}
