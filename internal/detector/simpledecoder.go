package detector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SimpleRecordDecoder decodes the pipeline's wire framing for one
// channel's data record: a big-endian uint16 length followed by the
// SourceID bytes, a big-endian float64 sample rate and start time
// (epoch seconds), a big-endian uint64 sample count, then a big-endian
// float64 per sample. No miniSEED/SEED library exists
// anywhere in the example corpus (the original detector leans on
// pymseed, §9/DESIGN.md), so this stands in for the real miniSEED
// decode collaborator named by the Decoder interface — a production
// deployment swaps it for a CGO or pure-Go miniSEED parser without
// touching anything above the interface.
type SimpleRecordDecoder struct{}

// Decode implements Decoder.
func (SimpleRecordDecoder) Decode(body []byte) ([]DecodedSegment, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("detector: record too short (%d bytes)", len(body))
	}

	r := body
	sidLen := int(binary.BigEndian.Uint16(r[:2]))
	r = r[2:]
	if len(r) < sidLen {
		return nil, fmt.Errorf("detector: truncated source id (want %d bytes, have %d)", sidLen, len(r))
	}
	sourceID := string(r[:sidLen])
	r = r[sidLen:]

	if len(r) < 24 {
		return nil, fmt.Errorf("detector: truncated header")
	}
	sampRate := math.Float64frombits(binary.BigEndian.Uint64(r[0:8]))
	start := math.Float64frombits(binary.BigEndian.Uint64(r[8:16]))
	nSamples := int(binary.BigEndian.Uint64(r[16:24]))
	r = r[24:]

	if sampRate <= 0 {
		return nil, fmt.Errorf("detector: invalid sample rate %g", sampRate)
	}
	if len(r) < nSamples*8 {
		return nil, fmt.Errorf("detector: truncated sample payload (want %d samples, have %d bytes)", nSamples, len(r))
	}

	samples := make([]float64, nSamples)
	for i := range samples {
		samples[i] = math.Float64frombits(binary.BigEndian.Uint64(r[i*8 : i*8+8]))
	}

	end := start
	if nSamples > 0 {
		end = start + float64(nSamples-1)/sampRate
	}

	return []DecodedSegment{{
		SourceID:     sourceID,
		SampRate:     sampRate,
		StartSeconds: start,
		EndSeconds:   end,
		Samples:      samples,
	}}, nil
}
