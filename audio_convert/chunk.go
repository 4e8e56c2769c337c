package audio_convert

import "fmt"

// Encoding identifies the sample encoding of a captured buffer.
type Encoding int

const (
	EncodingInt16 Encoding = iota
	EncodingUint16
	EncodingFloat32
)

func (e Encoding) String() string {
	switch e {
	case EncodingInt16:
		return "int16"
	case EncodingUint16:
		return "uint16"
	case EncodingFloat32:
		return "float32"
	}
	return fmt.Sprintf("encoding(%d)", int(e))
}

// ParseEncoding maps a configuration string to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "int16", "i16", "s16":
		return EncodingInt16, nil
	case "uint16", "u16":
		return EncodingUint16, nil
	case "float32", "f32":
		return EncodingFloat32, nil
	}
	return 0, fmt.Errorf("unknown sample encoding %q", s)
}

// Chunk is one captured buffer of interleaved samples. Exactly one of the
// sample slices is populated, selected by Encoding. Chunks are consumed
// immediately by the capture path and must not be retained.
type Chunk struct {
	Encoding Encoding
	Channels int

	Int16   []int16
	Uint16  []uint16
	Float32 []float32
}

// Int16Chunk wraps interleaved signed 16-bit samples.
func Int16Chunk(samples []int16, channels int) Chunk {
	return Chunk{Encoding: EncodingInt16, Channels: channels, Int16: samples}
}

// Uint16Chunk wraps interleaved unsigned 16-bit samples.
func Uint16Chunk(samples []uint16, channels int) Chunk {
	return Chunk{Encoding: EncodingUint16, Channels: channels, Uint16: samples}
}

// Float32Chunk wraps interleaved 32-bit float samples.
func Float32Chunk(samples []float32, channels int) Chunk {
	return Chunk{Encoding: EncodingFloat32, Channels: channels, Float32: samples}
}

// Len returns the number of interleaved samples in the chunk.
func (c Chunk) Len() int {
	switch c.Encoding {
	case EncodingInt16:
		return len(c.Int16)
	case EncodingUint16:
		return len(c.Uint16)
	case EncodingFloat32:
		return len(c.Float32)
	}
	return 0
}

// Frames returns the number of complete frames in the chunk. Samples of a
// trailing partial frame do not count.
func (c Chunk) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return c.Len() / c.Channels
}
