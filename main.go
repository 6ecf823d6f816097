package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"live-translator/clients/translator"
	"live-translator/config"
	"live-translator/listener"
	"live-translator/logging"
	"live-translator/model"
	"live-translator/pipeline"
	"live-translator/presentation"
	"live-translator/recorder"
	"live-translator/speech_extraction"
	"live-translator/speech_to_text"
	"live-translator/ui"
)

func main() {
	err := run(os.Args[1:])
	if err == nil {
		return
	}

	if model.IsDeviceError(err) {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	os.Exit(1)
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	fileSys := afero.NewOsFs()

	err = logging.Init(&logging.Config{
		FileSys:   fileSys,
		Path:      cfg.LogFile,
		Level:     cfg.LogLevel,
		SessionID: sessionID,
	})
	if err != nil {
		return fmt.Errorf("error with logging.Init: %w", err)
	}
	defer logging.Shutdown()

	logging.Info(logging.CategoryApp, "session %s, %s -> %s", sessionID, cfg.SourceLanguage, cfg.TargetLanguage)

	// Load model
	whisperModel, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("error loading model: %w", err)
	}
	defer whisperModel.Close()

	sttEngine, err := speech_to_text.New(&speech_to_text.Config{
		Model:    whisperModel,
		Language: cfg.SourceLanguage,
	})
	if err != nil {
		return fmt.Errorf("error with speech_to_text.New: %w", err)
	}

	translatorClient, err := translator.NewClient(&translator.Config{
		BaseURL: cfg.TranslationURL,
		APIKey:  cfg.TranslationAPIKey,
	})
	if err != nil {
		return fmt.Errorf("error with translator.NewClient: %w", err)
	}

	source, err := newSource(cfg, fileSys)
	if err != nil {
		return err
	}

	var rec recorder.Interface = recorder.Noop{}
	if cfg.DumpDir != "" {
		rec, err = recorder.New(&recorder.Config{
			FileSys:   fileSys,
			Dir:       cfg.DumpDir,
			SessionID: sessionID,
		})
		if err != nil {
			return fmt.Errorf("error with recorder.New: %w", err)
		}
	}

	buffer := presentation.New(&presentation.Config{MaxLines: cfg.MaxLines})

	p, err := pipeline.New(&pipeline.Config{
		Source: source,
		Segmenter: &speech_extraction.Config{
			SampleRate:       cfg.SampleRate,
			FrameSize:        cfg.FrameSize,
			SilenceThreshold: cfg.SilenceThreshold,
			FluxRatio:        cfg.FluxRatio,
			EndSilence:       cfg.EndSilence,
			PreSpeech:        cfg.PreSpeech,
			MinVoiced:        cfg.MinVoiced,
			MaxChunk:         cfg.MaxChunk,
		},
		Transcriber:        sttEngine,
		Translator:         translatorClient,
		Buffer:             buffer,
		Recorder:           rec,
		SourceLanguage:     cfg.SourceLanguage,
		TargetLanguage:     cfg.TargetLanguage,
		QueueSize:          cfg.QueueSize,
		TranslationWorkers: cfg.TranslationWorkers,
		TranslationBacklog: cfg.TranslationBacklog,
		TranslationTimeout: cfg.TranslationTimeout,
	})
	if err != nil {
		return fmt.Errorf("error with pipeline.New: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("error opening terminal: %w", err)
	}

	if err := screen.Init(); err != nil {
		return fmt.Errorf("error opening terminal: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop, err := ui.NewLoop(&ui.LoopConfig{
		Screen:         screen,
		Buffer:         buffer,
		Controls:       p,
		Stats:          p.Stats(),
		Interval:       cfg.RenderInterval,
		OnQuit:         stop,
		SampleRate:     cfg.SampleRate,
		SourceLanguage: cfg.SourceLanguage,
		TargetLanguage: cfg.TargetLanguage,
	})
	if err != nil {
		return fmt.Errorf("error with ui.NewLoop: %w", err)
	}

	// the UI outlives ctx so the drain after a quit stays on screen
	uiCtx, stopUI := context.WithCancel(context.Background())
	defer stopUI()

	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		loop.Run(uiCtx)
	}()

	err = p.Run(ctx)

	if err == nil && ctx.Err() == nil {
		// a replayed file ran out; keep the results on screen until the user quits
		logging.Info(logging.CategoryApp, "source finished, press q to quit")
		<-ctx.Done()
	}

	stopUI()
	<-uiDone

	if err != nil {
		return err
	}

	logging.Info(logging.CategoryApp, "shut down cleanly")

	return nil
}

func newSource(cfg *config.Config, fileSys afero.Fs) (listener.Interface, error) {
	if cfg.Input != "" {
		source, err := listener.NewReplay(&listener.ReplayConfig{
			FileSys:    fileSys,
			Path:       cfg.Input,
			SampleRate: cfg.SampleRate,
			FrameSize:  cfg.FrameSize,
			Realtime:   true,
		})
		if err != nil {
			return nil, fmt.Errorf("error with listener.NewReplay: %w", err)
		}
		return source, nil
	}

	source, err := listener.NewMic(&listener.MicConfig{
		SampleRate: cfg.SampleRate,
		FrameSize:  cfg.FrameSize,
	})
	if err != nil {
		return nil, fmt.Errorf("error with listener.NewMic: %w", err)
	}

	return source, nil
}
