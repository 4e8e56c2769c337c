// Package audio_convert normalizes captured audio buffers into the mono
// signed 16-bit PCM stream the speech decoder consumes.
package audio_convert

import "fmt"

// Converter folds interleaved multi-channel buffers in any supported
// encoding down to mono signed 16-bit PCM. It reuses a single output buffer
// across calls, so the returned slice is only valid until the next call.
// A Converter is not safe for concurrent use; the capture path owns one.
type Converter struct {
	out []int16
}

func NewConverter() *Converter {
	return &Converter{}
}

// ToMono16 converts one chunk to mono signed 16-bit samples. Channels are
// averaged per frame in a wide accumulator, with the quotient truncated
// toward zero; a trailing partial frame is dropped.
func (c *Converter) ToMono16(chunk Chunk) ([]int16, error) {
	if chunk.Channels <= 0 {
		return nil, fmt.Errorf("audio_convert: invalid channel count %d", chunk.Channels)
	}

	frames := chunk.Frames()
	out := c.scratch(frames)

	switch chunk.Encoding {
	case EncodingInt16:
		convertInt16(out, chunk.Int16, chunk.Channels)
	case EncodingUint16:
		convertUint16(out, chunk.Uint16, chunk.Channels)
	case EncodingFloat32:
		convertFloat32(out, chunk.Float32, chunk.Channels)
	default:
		return nil, fmt.Errorf("audio_convert: unsupported encoding %s", chunk.Encoding)
	}
	return out, nil
}

func (c *Converter) scratch(n int) []int16 {
	if cap(c.out) < n {
		c.out = make([]int16, n)
	}
	return c.out[:n]
}

func convertInt16(out, in []int16, channels int) {
	if channels == 1 {
		copy(out, in)
		return
	}
	for f := range out {
		var acc int32
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			acc += int32(in[base+ch])
		}
		out[f] = clampInt32(acc / int32(channels))
	}
}

func convertUint16(out []int16, in []uint16, channels int) {
	if channels == 1 {
		for f := range out {
			out[f] = int16(int32(in[f]) - 32768)
		}
		return
	}
	for f := range out {
		var acc int32
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			acc += int32(in[base+ch]) - 32768
		}
		out[f] = clampInt32(acc / int32(channels))
	}
}

func convertFloat32(out []int16, in []float32, channels int) {
	if channels == 1 {
		for f := range out {
			out[f] = clampFloat32(in[f] * 32767)
		}
		return
	}
	for f := range out {
		var acc float32
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			acc += in[base+ch]
		}
		avg := acc / float32(channels)
		out[f] = clampFloat32(avg * 32767)
	}
}

func clampInt32(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

func clampFloat32(v float32) int16 {
	if v != v { // NaN
		return 0
	}
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
