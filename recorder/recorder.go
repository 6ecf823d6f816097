// Package recorder dumps utterances to WAV files for inspecting what the
// segmenter cut.
package recorder

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"

	"live-translator/model"
)

// Interface is a tap on the chunks entering transcription.
type Interface interface {
	Save(chunk model.Chunk) error
}

type recorderImpl struct {
	fileSys afero.Fs
	dir     string
}

type Config struct {
	FileSys   afero.Fs
	Dir       string
	SessionID string
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Dir == "" || cfg.SessionID == "" {
		return nil, fmt.Errorf("dir and sessionID are required")
	}

	dir := filepath.Join(cfg.Dir, cfg.SessionID)
	if err := cfg.FileSys.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}

	return &recorderImpl{
		fileSys: cfg.FileSys,
		dir:     dir,
	}, nil
}

func (r *recorderImpl) Save(chunk model.Chunk) error {
	name := filepath.Join(r.dir, fmt.Sprintf("chunk-%06d.wav", chunk.Seq))

	waveFile, err := r.fileSys.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}

	param := wave.WriterParam{
		Out:           waveFile,
		Channel:       1,
		SampleRate:    chunk.SampleRate,
		BitsPerSample: 16,
	}

	waveWriter, err := wave.NewWriter(param)
	if err != nil {
		waveFile.Close()
		return errors.Wrapf(err, "write header of %s", name)
	}

	_, err = waveWriter.WriteSample16(chunk.Samples)
	if err != nil {
		waveWriter.Close()
		return errors.Wrapf(err, "write samples of %s", name)
	}

	return waveWriter.Close()
}

// Noop discards every chunk.
type Noop struct{}

func (Noop) Save(model.Chunk) error { return nil }
