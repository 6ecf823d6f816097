package listener

import (
	"context"

	"live-translator/model"
)

// Interface is an audio source. Run blocks until ctx is done or the device
// fails and always closes the Frames channel before returning.
type Interface interface {
	Frames() <-chan model.Frame
	Run(ctx context.Context) error
}
