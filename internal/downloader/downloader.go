// Package downloader runs the sequential chapter pipeline: reconstruct,
// persist, wait, and finally compile.
package downloader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/brogergvhs/novelpiad/internal/chapters"
	"github.com/brogergvhs/novelpiad/internal/providers"
	"github.com/brogergvhs/novelpiad/internal/providers/novelpia"
	"github.com/brogergvhs/novelpiad/internal/storage"
)

type Reconstructor interface {
	Reconstruct(ctx context.Context, ch providers.Chapter) (novelpia.Outcome, error)
}

type Store interface {
	SaveChapter(ch chapters.Chapter, content string, isError bool) error
	Compile(novelID string, chs []chapters.Chapter) (storage.CompileReport, error)
}

type Logger interface {
	Debugf(string, ...any)
	Infof(string, ...any)
	Warnf(string, ...any)
}

type EventKind int

const (
	EventStarted EventKind = iota
	EventSaved
	EventFailed
	EventCompiled
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventSaved:
		return "saved"
	case EventFailed:
		return "failed"
	case EventCompiled:
		return "compiled"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event reports progress. Index is the 0-based position of Chapter in the
// batch; Compiled is only set on EventCompiled.
type Event struct {
	Kind     EventKind
	Index    int
	Total    int
	Chapter  chapters.Chapter
	Images   int
	Err      error
	Compiled *storage.CompileReport
}

type Summary struct {
	Saved    int
	Failed   int
	Images   int
	Compiled storage.CompileReport
	// Failures combines every chapter-scoped error of the run.
	Failures error
}

type Pipeline struct {
	rec   Reconstructor
	store Store
	delay time.Duration
	log   Logger
}

func New(rec Reconstructor, store Store, delay time.Duration, log Logger) *Pipeline {
	if delay < 0 {
		delay = 0
	}
	return &Pipeline{rec: rec, store: store, delay: delay, log: log}
}

// Run processes chs in the given order and compiles the result. Chapter
// failures are persisted as placeholders and do not stop the batch;
// storage errors and cancellation do. events, if non-nil, is closed when
// Run returns.
func (p *Pipeline) Run(ctx context.Context, novelID string, chs []chapters.Chapter, events chan<- Event) (Summary, error) {
	if events != nil {
		defer close(events)
	}
	emit := func(ev Event) {
		if events != nil {
			ev.Total = len(chs)
			events <- ev
		}
	}

	var sum Summary

	for i, ch := range chs {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("stopped before %s: %w", ch, err)
		}

		emit(Event{Kind: EventStarted, Index: i, Chapter: ch})
		p.log.Infof("Processing chapter %d: %s", ch.Number, ch.Title)

		out, err := p.rec.Reconstruct(ctx, ch.Chapter)
		if err != nil {
			return sum, fmt.Errorf("chapter %d: %w", ch.Number, err)
		}

		if err := p.store.SaveChapter(ch, out.Content(), !out.OK()); err != nil {
			return sum, fmt.Errorf("save chapter %d: %w", ch.Number, err)
		}

		if out.OK() {
			sum.Saved++
			sum.Images += len(out.Doc.Images)
			emit(Event{Kind: EventSaved, Index: i, Chapter: ch, Images: len(out.Doc.Images)})
		} else {
			sum.Failed++
			sum.Failures = multierr.Append(sum.Failures, fmt.Errorf("chapter %d: %w", ch.Number, out.Err))
			p.log.Warnf("Chapter %d failed (%s): %v", ch.Number, out.Kind, out.Err)
			emit(Event{Kind: EventFailed, Index: i, Chapter: ch, Err: out.Err})
		}

		if i < len(chs)-1 {
			if err := p.wait(ctx); err != nil {
				return sum, fmt.Errorf("stopped after %s: %w", ch, err)
			}
		}
	}

	report, err := p.store.Compile(novelID, chs)
	if err != nil {
		return sum, fmt.Errorf("compile: %w", err)
	}
	sum.Compiled = report
	emit(Event{Kind: EventCompiled, Index: len(chs), Compiled: &report})

	return sum, nil
}

func (p *Pipeline) wait(ctx context.Context) error {
	if p.delay == 0 {
		return nil
	}

	p.log.Debugf("Waiting %s before next chapter", p.delay)
	t := time.NewTimer(p.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
