package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/brogergvhs/novelpiad/internal/chapters"
	"github.com/brogergvhs/novelpiad/internal/providers"
	"github.com/brogergvhs/novelpiad/internal/providers/novelpia"
	"github.com/brogergvhs/novelpiad/internal/storage"
	"github.com/brogergvhs/novelpiad/internal/ui"
)

type scriptedReconstructor struct {
	failures map[string]error
	fatal    map[string]error
	calls    []string
	onCall   func(id string)
}

func (s *scriptedReconstructor) Reconstruct(_ context.Context, ch providers.Chapter) (novelpia.Outcome, error) {
	s.calls = append(s.calls, ch.ID)
	if s.onCall != nil {
		s.onCall(ch.ID)
	}
	if err := s.fatal[ch.ID]; err != nil {
		return novelpia.Outcome{}, err
	}
	if err := s.failures[ch.ID]; err != nil {
		return novelpia.Outcome{Chapter: ch, Kind: providers.KindOf(err), Err: err}, nil
	}

	header := chapters.Chapter{Chapter: ch}.Header()
	return novelpia.Outcome{
		Chapter: ch,
		Doc:     &novelpia.Document{Chapter: ch, Text: header + "\n\nbody " + ch.ID + "\n"},
	}, nil
}

func batch(numbers ...int) []chapters.Chapter {
	out := make([]chapters.Chapter, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, chapters.Chapter{Chapter: providers.Chapter{
			ID:     string(rune('a' + n - 1)),
			Title:  "Part " + string(rune('A'+n-1)),
			Number: n,
		}})
	}
	return out
}

func collect(events <-chan Event) func() []Event {
	done := make(chan []Event)
	go func() {
		var got []Event
		for ev := range events {
			got = append(got, ev)
		}
		done <- got
	}()
	return func() []Event { return <-done }
}

func TestRunContinuesPastChapterFailure(t *testing.T) {
	root := t.TempDir()
	store := storage.New(root, ui.NewNopLogger())
	rec := &scriptedReconstructor{failures: map[string]error{
		"b": providers.NewError(providers.KindNetwork, "chapter b", errors.New("HTTP 500")),
	}}

	events := make(chan Event)
	wait := collect(events)

	sum, err := New(rec, store, 0, ui.NewNopLogger()).Run(context.Background(), "99", batch(3, 2, 1), events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := wait()

	if strings.Join(rec.calls, "") != "cba" {
		t.Errorf("chapters should be fetched in caller order, got %v", rec.calls)
	}
	if sum.Saved != 2 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if errs := multierr.Errors(sum.Failures); len(errs) != 1 || !errors.Is(errs[0], providers.ErrNetwork) {
		t.Errorf("failures = %v", sum.Failures)
	}

	placeholder, err := os.ReadFile(filepath.Join(root, storage.ChaptersDir, "ERROR_0002_Part B.txt"))
	if err != nil {
		t.Fatalf("placeholder missing: %v", err)
	}
	if !strings.HasPrefix(string(placeholder), "Chapter 2: Part B\n\nError: ") {
		t.Errorf("placeholder = %q", placeholder)
	}

	compiled, err := os.ReadFile(filepath.Join(root, "99_complete.txt"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(compiled)
	if !strings.HasPrefix(text, "Chapter 1: Part A") || strings.Index(text, "Chapter 2") > strings.Index(text, "Chapter 3") {
		t.Errorf("compiled output not in chapter order:\n%s", text)
	}

	var kinds []string
	for _, ev := range got {
		kinds = append(kinds, ev.Kind.String())
	}
	want := "started saved started failed started saved compiled"
	if strings.Join(kinds, " ") != want {
		t.Errorf("events = %v, want %s", kinds, want)
	}
	if last := got[len(got)-1]; last.Compiled == nil || len(last.Compiled.Errors) != 1 {
		t.Errorf("compiled event = %+v", last)
	}
}

func TestRunStopsOnFatalError(t *testing.T) {
	store := storage.New(t.TempDir(), ui.NewNopLogger())
	boom := errors.New("disk full")
	rec := &scriptedReconstructor{fatal: map[string]error{"a": boom}}

	_, err := New(rec, store, 0, ui.NewNopLogger()).Run(context.Background(), "1", batch(1, 2), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("batch should stop after fatal error, calls = %v", rec.calls)
	}
}

func TestRunHonorsCancellationBetweenChapters(t *testing.T) {
	root := t.TempDir()
	store := storage.New(root, ui.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &scriptedReconstructor{onCall: func(id string) {
		if id == "a" {
			cancel()
		}
	}}

	start := time.Now()
	_, err := New(rec, store, time.Minute, ui.NewNopLogger()).Run(ctx, "1", batch(1, 2, 3), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("delay should be interrupted by cancellation")
	}
	if len(rec.calls) != 1 {
		t.Errorf("calls = %v", rec.calls)
	}

	// the chapter in flight when cancel arrived is still saved
	if _, err := os.Stat(filepath.Join(root, storage.ChaptersDir, "0001_Part A.txt")); err != nil {
		t.Errorf("first chapter should be saved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "1_complete.txt")); !os.IsNotExist(err) {
		t.Error("cancelled run should not compile")
	}
}

func TestRunDelaysBetweenChaptersOnly(t *testing.T) {
	store := storage.New(t.TempDir(), ui.NewNopLogger())
	rec := &scriptedReconstructor{}

	start := time.Now()
	if _, err := New(rec, store, 30*time.Millisecond, ui.NewNopLogger()).Run(context.Background(), "1", batch(1, 2, 3), nil); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("expected two delays, run took %s", elapsed)
	}
}
