package detector

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeRecord(sourceID string, sampRate, start float64, samples []float64) []byte {
	buf := make([]byte, 0, 2+len(sourceID)+24+len(samples)*8)

	sidLen := make([]byte, 2)
	binary.BigEndian.PutUint16(sidLen, uint16(len(sourceID)))
	buf = append(buf, sidLen...)
	buf = append(buf, []byte(sourceID)...)

	hdr := make([]byte, 24)
	binary.BigEndian.PutUint64(hdr[0:8], math.Float64bits(sampRate))
	binary.BigEndian.PutUint64(hdr[8:16], math.Float64bits(start))
	binary.BigEndian.PutUint64(hdr[16:24], uint64(len(samples)))
	buf = append(buf, hdr...)

	for _, v := range samples {
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(v))
		buf = append(buf, b...)
	}
	return buf
}

func TestSimpleRecordDecoder_RoundTrips(t *testing.T) {
	body := encodeRecord("NC.KRP.--.HHZ", 100, 1000.0, []float64{1, 2, 3, 4})

	segs, err := SimpleRecordDecoder{}.Decode(body)
	require.NoError(t, err)
	require.Len(t, segs, 1)

	seg := segs[0]
	assert.Equal(t, "NC.KRP.--.HHZ", seg.SourceID)
	assert.Equal(t, 100.0, seg.SampRate)
	assert.Equal(t, 1000.0, seg.StartSeconds)
	assert.InDelta(t, 1000.0+3.0/100, seg.EndSeconds, 1e-9)
	assert.Equal(t, []float64{1, 2, 3, 4}, seg.Samples)
}

func TestSimpleRecordDecoder_TooShort(t *testing.T) {
	_, err := SimpleRecordDecoder{}.Decode([]byte{0})
	require.Error(t, err)
}

func TestSimpleRecordDecoder_TruncatedSourceID(t *testing.T) {
	body := make([]byte, 2)
	binary.BigEndian.PutUint16(body, 10)
	_, err := SimpleRecordDecoder{}.Decode(body)
	require.Error(t, err)
}

func TestSimpleRecordDecoder_InvalidSampleRate(t *testing.T) {
	body := encodeRecord("X", 0, 0, nil)
	_, err := SimpleRecordDecoder{}.Decode(body)
	require.Error(t, err)
}

func TestSimpleRecordDecoder_TruncatedPayload(t *testing.T) {
	body := encodeRecord("X", 100, 0, []float64{1, 2, 3})
	body = body[:len(body)-8] // drop the last sample's bytes
	_, err := SimpleRecordDecoder{}.Decode(body)
	require.Error(t, err)
}

func TestSimpleRecordDecoder_EmptySamples(t *testing.T) {
	body := encodeRecord("X", 100, 42.0, nil)
	segs, err := SimpleRecordDecoder{}.Decode(body)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, 42.0, segs[0].StartSeconds)
	assert.Equal(t, 42.0, segs[0].EndSeconds)
	assert.Empty(t, segs[0].Samples)
}
