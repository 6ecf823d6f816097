package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"live-translator/clients/translator"
	"live-translator/logging"
	"live-translator/model"
	"live-translator/queue"
)

var errBacklogOverflow = errors.New("translation backlog overflow")

// translationStage submits final segments in arrival order and lets up to
// workers translations run at once, so results may complete in any order.
type translationStage struct {
	client     translator.Interface
	sourceLang string
	targetLang string
	workers    int
	backlog    int
	timeout    time.Duration
	stats      *Stats
}

func (s *translationStage) run(in <-chan model.TranscriptSegment, out chan<- model.TranslationSegment) {
	var (
		wg      sync.WaitGroup
		waiting = queue.New[model.TranscriptSegment]()
		slots   = make(chan struct{}, s.workers)
	)

	defer func() {
		wg.Wait()
		close(out)
		logging.Info(logging.CategoryTranslate, "translation drained")
	}()

	for in != nil || !waiting.IsEmpty() {
		// only offer a slot when something is waiting for one
		var acquire chan struct{}
		if !waiting.IsEmpty() {
			acquire = slots
		}

		select {
		case seg, ok := <-in:
			if !ok {
				in = nil
				continue
			}

			waiting.Enqueue(seg)
			s.stats.TranslationsQueued.Store(int64(waiting.Len()))

			if waiting.Len() > s.backlog {
				oldest, _ := waiting.Dequeue()
				s.stats.TranslationsQueued.Store(int64(waiting.Len()))
				s.stats.TranslationErrors.Add(1)

				logging.Warning(logging.CategoryTranslate, "backlog above %d, skipping segment %d", s.backlog, oldest.ID)

				out <- model.TranslationSegment{
					SegmentID: oldest.ID,
					Complete:  true,
					Err:       &model.InferenceError{Stage: "translation", SegmentID: oldest.ID, Err: errBacklogOverflow},
				}
			}

		case acquire <- struct{}{}:
			seg, _ := waiting.Dequeue()
			s.stats.TranslationsQueued.Store(int64(waiting.Len()))

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-slots }()

				out <- s.translate(seg, out)
			}()
		}
	}
}

func (s *translationStage) translate(seg model.TranscriptSegment, out chan<- model.TranslationSegment) (result model.TranslationSegment) {
	result = model.TranslationSegment{SegmentID: seg.ID, Complete: true}

	s.stats.Translating.Add(1)
	defer s.stats.Translating.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			result.Text = ""
			result.Err = &model.InferenceError{Stage: "translation", SegmentID: seg.ID, Err: fmt.Errorf("panic: %v", r)}
		}

		if result.Err != nil {
			s.stats.TranslationErrors.Add(1)
			logging.Error(logging.CategoryTranslate, "%v", result.Err)
		}
	}()

	// shutdown does not cancel a translation that already started
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()

	text, err := s.client.Translate(ctx, seg.Text, s.sourceLang, s.targetLang, func(partial string) {
		out <- model.TranslationSegment{SegmentID: seg.ID, Text: partial}
	})
	if err != nil {
		result.Err = &model.InferenceError{Stage: "translation", SegmentID: seg.ID, Err: err}
		return result
	}

	logging.Debug(logging.CategoryTranslate, "segment %d translated in %v", seg.ID, time.Since(started))

	result.Text = text

	return result
}
