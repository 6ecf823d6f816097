package ui

// Surface is anything a composed Frame can be drawn on.
type Surface interface {
	Draw(frame Frame)
}

// Controls is the part of the pipeline the keyboard can drive.
type Controls interface {
	SetPaused(paused bool)
	Paused() bool
}
