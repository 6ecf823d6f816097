package listener

import (
	"context"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"live-translator/logging"
	"live-translator/model"
)

const frameQueueSize = 64

type micImpl struct {
	sampleRate int
	frameSize  int
	frames     chan model.Frame
}

type MicConfig struct {
	SampleRate int
	FrameSize  int
}

// NewMic captures mono 16-bit audio from the default input device.
func NewMic(cfg *MicConfig) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("sample rate and frame size must be positive")
	}

	return &micImpl{
		sampleRate: cfg.SampleRate,
		frameSize:  cfg.FrameSize,
		frames:     make(chan model.Frame, frameQueueSize),
	}, nil
}

func (m *micImpl) Frames() <-chan model.Frame {
	return m.frames
}

func (m *micImpl) Run(ctx context.Context) error {
	defer close(m.frames)

	err := portaudio.Initialize()
	if err != nil {
		return &model.DeviceError{Op: "initialize", Err: err}
	}

	defer func() {
		if err := portaudio.Terminate(); err != nil {
			logging.Warning(logging.CategoryAudio, "error while freeing audio: %v", err)
		}
	}()

	in := make([]int16, m.frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(in), in)
	if err != nil {
		return &model.DeviceError{Op: "open", Err: err}
	}

	defer stream.Close()

	err = stream.Start()
	if err != nil {
		return &model.DeviceError{Op: "start", Err: err}
	}

	logging.Info(logging.CategoryAudio, "listening on default input at %d Hz, %d samples per frame", m.sampleRate, m.frameSize)

	var seq uint64

	for {
		if ctx.Err() != nil {
			break
		}

		err = stream.Read()
		if errors.Is(err, portaudio.InputOverflowed) {
			// the buffer holds a partial read; never let it into the stream
			logging.Warning(logging.CategoryAudio, "input overflowed, discarding frame")
			continue
		}

		if err != nil {
			return &model.DeviceError{Op: "read", Err: err}
		}

		samples := make([]int16, len(in))
		copy(samples, in)
		seq++

		select {
		case m.frames <- model.Frame{Seq: seq, Samples: samples, Captured: time.Now()}:
		case <-ctx.Done():
		}
	}

	if err := stream.Stop(); err != nil {
		logging.Warning(logging.CategoryAudio, "error stopping stream: %v", err)
	}

	logging.Info(logging.CategoryAudio, "stopped listening after %d frames", seq)

	return nil
}
