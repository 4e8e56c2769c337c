// Package voice_detection provides a lightweight spectral-flux voice
// activity detector. It does not try to be a full VAD; it only needs to
// tell "someone started talking" from "the room went quiet" well enough
// to annotate the capture stream.
package voice_detection

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

type VAD struct {
	size  int
	win   []float64
	frame []float64
	prev  []float64
}

func NewVAD(size int) *VAD {
	return &VAD{
		size:  size,
		win:   window.Hann(size),
		frame: make([]float64, size),
		prev:  make([]float64, size/2+1),
	}
}

// Flux returns the spectral flux of the frame relative to the previous
// one: the sum of per-bin magnitude increases. A sharp rise marks an
// onset of speech, a sustained fall marks its end.
func (v *VAD) Flux(samples []int16) float64 {
	n := len(samples)
	if n > v.size {
		n = v.size
	}
	for i := 0; i < n; i++ {
		v.frame[i] = float64(samples[i]) / 32768.0 * v.win[i]
	}
	for i := n; i < v.size; i++ {
		v.frame[i] = 0
	}

	spectrum := fft.FFTReal(v.frame)

	var flux float64
	for i := range v.prev {
		mag := cmplx.Abs(spectrum[i])
		if d := mag - v.prev[i]; d > 0 {
			flux += d
		}
		v.prev[i] = mag
	}

	return flux
}
