package vad

import (
	"math"
	"testing"
)

func sine(n int, amplitude float64, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/16000))
	}
	return out
}

func TestEnergy(t *testing.T) {
	t.Run("silence has no energy", func(t *testing.T) {
		if e := Energy(make([]int16, 512)); e != 0 {
			t.Errorf("expected 0, got %f", e)
		}
	})

	t.Run("full scale sine is about 0.707", func(t *testing.T) {
		e := Energy(sine(1600, 1, 440))
		if math.Abs(e-0.707) > 0.01 {
			t.Errorf("expected ~0.707, got %f", e)
		}
	})

	t.Run("empty frame", func(t *testing.T) {
		if e := Energy(nil); e != 0 {
			t.Errorf("expected 0, got %f", e)
		}
	})
}

func TestDetector(t *testing.T) {
	t.Run("silence is never voiced", func(t *testing.T) {
		d := New(512, Config{Threshold: 0.015, FluxRatio: 1.75})

		for i := 0; i < 5; i++ {
			if d.Voiced(make([]int16, 512)) {
				t.Errorf("frame %d: silence detected as voice", i)
			}
		}
	})

	t.Run("loud tone is voiced", func(t *testing.T) {
		d := New(512, Config{Threshold: 0.015, FluxRatio: 1.75})

		if !d.Voiced(sine(512, 0.5, 300)) {
			t.Errorf("expected tone to be voiced")
		}
	})

	t.Run("flux rises when a tone starts after silence", func(t *testing.T) {
		d := New(512, Config{Threshold: 0.015, FluxRatio: 1.75})

		d.Flux(make([]int16, 512))
		if f := d.Flux(sine(512, 0.5, 300)); f <= 0 {
			t.Errorf("expected positive flux, got %f", f)
		}
	})
}
