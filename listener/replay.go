package listener

import (
	"context"
	"fmt"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"live-translator/logging"
	"live-translator/model"
)

type replayImpl struct {
	fileSys    afero.Fs
	path       string
	sampleRate int
	frameSize  int
	realtime   bool
	frames     chan model.Frame
}

type ReplayConfig struct {
	FileSys    afero.Fs
	Path       string
	SampleRate int
	FrameSize  int
	// Realtime paces frames at the rate a microphone would deliver them.
	Realtime bool
}

// NewReplay plays a WAV file into the pipeline as if it came from the
// microphone. Audio is downmixed and resampled to the capture format.
func NewReplay(cfg *ReplayConfig) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is empty")
	}

	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("sample rate and frame size must be positive")
	}

	return &replayImpl{
		fileSys:    cfg.FileSys,
		path:       cfg.Path,
		sampleRate: cfg.SampleRate,
		frameSize:  cfg.FrameSize,
		realtime:   cfg.Realtime,
		frames:     make(chan model.Frame, frameQueueSize),
	}, nil
}

func (r *replayImpl) Frames() <-chan model.Frame {
	return r.frames
}

func (r *replayImpl) Run(ctx context.Context) error {
	defer close(r.frames)

	samples, err := r.load()
	if err != nil {
		return &model.DeviceError{Op: "open " + r.path, Err: err}
	}

	logging.Info(logging.CategoryAudio, "replaying %s, %d samples", r.path, len(samples))

	frameDuration := time.Duration(r.frameSize) * time.Second / time.Duration(r.sampleRate)

	var tick <-chan time.Time
	if r.realtime {
		ticker := time.NewTicker(frameDuration)
		defer ticker.Stop()
		tick = ticker.C
	}

	start := time.Now()
	var seq uint64

	// a trailing partial frame is dropped like a short device read
	for off := 0; off+r.frameSize <= len(samples); off += r.frameSize {
		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				return nil
			}
		}

		seq++
		frame := model.Frame{
			Seq:      seq,
			Samples:  samples[off : off+r.frameSize],
			Captured: start.Add(time.Duration(seq-1) * frameDuration),
		}

		select {
		case r.frames <- frame:
		case <-ctx.Done():
			return nil
		}
	}

	logging.Info(logging.CategoryAudio, "replay of %s finished after %d frames", r.path, seq)

	return nil
}

func (r *replayImpl) load() ([]int16, error) {
	f, err := r.fileSys.Open(r.path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	mono := downmix(buf, int(decoder.BitDepth))

	rate := int(decoder.SampleRate)
	if rate != r.sampleRate {
		logging.Info(logging.CategoryAudio, "resampling %s from %d Hz to %d Hz", r.path, rate, r.sampleRate)
		mono = resample(mono, rate, r.sampleRate)
	}

	out := make([]int16, len(mono))
	for i, v := range mono {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int16(v * 32767)
	}

	return out, nil
}

// downmix averages interleaved channels into float samples in [-1, 1].
func downmix(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}

	if bitDepth <= 0 {
		bitDepth = 16
	}

	scale := float64(int(1) << (bitDepth - 1))

	out := make([]float64, len(buf.Data)/channels)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			v := float64(buf.Data[i*channels+c])
			if bitDepth == 8 {
				// 8-bit WAV is unsigned
				v -= 128
			}
			sum += v / scale
		}
		out[i] = sum / float64(channels)
	}

	return out
}

func resample(samples []float64, from, to int) []float64 {
	pos := 0
	source := beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}

		n := copy2(buf, samples[pos:])
		pos += n

		return n, true
	})

	resampler := beep.Resample(4, beep.SampleRate(from), beep.SampleRate(to), source)

	out := make([]float64, 0, len(samples)*to/from+1)
	buf := make([][2]float64, 512)
	for {
		n, ok := resampler.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, buf[i][0])
		}

		if !ok || n == 0 {
			break
		}
	}

	return out
}

func copy2(dst [][2]float64, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}

	for i := 0; i < n; i++ {
		dst[i] = [2]float64{src[i], src[i]}
	}

	return n
}
