// Package vad classifies audio frames as voiced or silent from their energy
// and spectral flux.
package vad

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

type Config struct {
	// Threshold is the RMS level, as a fraction of full scale, at which a
	// frame counts as voiced.
	Threshold float64
	// FluxRatio is the jump in spectral flux over the previous frame that
	// marks an onset for frames just under the threshold.
	FluxRatio float64
}

// Detector is stateful: flux is measured against the previous frame.
type Detector struct {
	cfg      Config
	window   []float64
	previous []float64
	lastFlux float64
}

func New(frameSize int, cfg Config) *Detector {
	return &Detector{
		cfg:    cfg,
		window: window.Hann(frameSize),
	}
}

// Energy returns the RMS of samples normalised to [0, 1].
func Energy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// Flux returns the positive spectral flux of samples relative to the last
// frame passed to Flux.
func (d *Detector) Flux(samples []int16) float64 {
	if len(d.window) != len(samples) {
		d.window = window.Hann(len(samples))
		d.previous = nil
	}

	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s) / 32768 * d.window[i]
	}

	spectrum := fft.FFTReal(in)

	// the upper half mirrors the lower for real input
	magnitudes := make([]float64, len(spectrum)/2+1)
	for i := range magnitudes {
		magnitudes[i] = cmplx.Abs(spectrum[i])
	}

	var flux float64
	if d.previous != nil {
		for i, m := range magnitudes {
			if diff := m - d.previous[i]; diff > 0 {
				flux += diff
			}
		}
	}

	d.previous = magnitudes

	return flux
}

// Voiced reports whether the frame contains speech.
func (d *Detector) Voiced(samples []int16) bool {
	energy := Energy(samples)
	flux := d.Flux(samples)

	lastFlux := d.lastFlux
	d.lastFlux = flux

	if energy >= d.cfg.Threshold {
		return true
	}

	if energy < d.cfg.Threshold/2 || lastFlux == 0 || d.cfg.FluxRatio <= 0 {
		return false
	}

	return flux >= lastFlux*d.cfg.FluxRatio
}

func (d *Detector) Reset() {
	d.previous = nil
	d.lastFlux = 0
}
