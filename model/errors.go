package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrBackpressure marks the transient condition where the transcription queue
// is saturated and the segmenter has to coalesce audio.
var ErrBackpressure = errors.New("transcription queue saturated")

// DeviceError is fatal: the input device could not be opened or went away.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// InferenceError is scoped to a single segment and never stops the pipeline.
type InferenceError struct {
	Stage     string
	SegmentID uint64
	Err       error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s of segment %d failed: %v", e.Stage, e.SegmentID, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}
