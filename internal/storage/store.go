// Package storage persists chapter documents and cover images under a
// download folder and compiles them into a single novel file.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/brogergvhs/novelpiad/internal/chapters"
	"github.com/brogergvhs/novelpiad/internal/providers"
)

const (
	ChaptersDir = "chapters"
	ImagesDir   = "images"
)

var ErrNothingToCompile = errors.New("no chapter files found for compilation")

type Logger interface {
	Infof(string, ...any)
	Warnf(string, ...any)
}

type Store struct {
	root string
	log  Logger
}

func New(root string, log Logger) *Store {
	return &Store{root: root, log: log}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) ChapterPath(ch chapters.Chapter, isError bool) string {
	name := ch.FileName()
	if isError {
		name = ch.ErrorFileName()
	}
	return filepath.Join(s.root, ChaptersDir, name)
}

func (s *Store) ImagePath(name string) string {
	return filepath.Join(s.root, ImagesDir, name)
}

func (s *Store) CompiledPath(novelID string) string {
	return filepath.Join(s.root, novelID+"_complete.txt")
}

// SaveChapter writes content for ch, overwriting an earlier attempt. A
// successful save also drops a stale error placeholder of the same chapter;
// an error save leaves a previously downloaded file alone.
func (s *Store) SaveChapter(ch chapters.Chapter, content string, isError bool) error {
	path := s.ChapterPath(ch, isError)
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return fmt.Errorf("save chapter %d: %w", ch.Number, err)
	}

	if !isError {
		stale := s.ChapterPath(ch, true)
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale placeholder for chapter %d: %w", ch.Number, err)
		}
	}

	return nil
}

func (s *Store) SaveImage(name string, data []byte) error {
	if err := writeFileAtomic(s.ImagePath(name), data); err != nil {
		return fmt.Errorf("save image %s: %w", name, err)
	}
	return nil
}

type CompileReport struct {
	Path     string
	Included []int
	Missing  []int
	Errors   []int
}

// Compile concatenates the stored documents of chs in ascending chapter
// number, separated by a blank line. When both files exist for a chapter
// the error placeholder wins. Missing chapters are skipped with a warning.
func (s *Store) Compile(novelID string, chs []chapters.Chapter) (CompileReport, error) {
	sorted := make([]chapters.Chapter, len(chs))
	copy(sorted, chs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	rpt := CompileReport{Path: s.CompiledPath(novelID)}
	parts := make([]string, 0, len(sorted))
	seen := map[int]bool{}

	for _, ch := range sorted {
		if seen[ch.Number] {
			continue
		}
		seen[ch.Number] = true

		data, isError, err := s.readChapter(ch)
		if os.IsNotExist(err) {
			s.log.Warnf("Chapter file not found: %s", s.ChapterPath(ch, false))
			rpt.Missing = append(rpt.Missing, ch.Number)
			continue
		}
		if err != nil {
			return rpt, fmt.Errorf("read chapter %d: %w", ch.Number, err)
		}

		if isError {
			rpt.Errors = append(rpt.Errors, ch.Number)
		}
		rpt.Included = append(rpt.Included, ch.Number)
		parts = append(parts, string(data))
	}

	if len(parts) == 0 {
		return rpt, ErrNothingToCompile
	}

	if err := writeFileAtomic(rpt.Path, []byte(strings.Join(parts, "\n\n"))); err != nil {
		return rpt, fmt.Errorf("write compiled novel: %w", err)
	}

	s.log.Infof("Compiled %d chapters into %s", len(rpt.Included), rpt.Path)
	return rpt, nil
}

func (s *Store) readChapter(ch chapters.Chapter) ([]byte, bool, error) {
	data, err := os.ReadFile(s.ChapterPath(ch, true))
	if err == nil {
		return data, true, nil
	}
	if !os.IsNotExist(err) {
		return nil, true, err
	}

	data, err = os.ReadFile(s.ChapterPath(ch, false))
	return data, false, err
}

var reChapterFile = regexp.MustCompile(`^(?:` + chapters.ErrorPrefix + `)?(\d{4,})_(.*)\.txt$`)

// ScanChapters rebuilds chapter descriptors from the files in the chapters
// directory. Titles come back sanitized and ids are unknown.
func (s *Store) ScanChapters() ([]chapters.Chapter, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, ChaptersDir))
	if err != nil {
		return nil, err
	}

	byNumber := map[int]chapters.Chapter{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		m := reChapterFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}

		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}

		// a plain file name carries the same title as its placeholder
		if _, ok := byNumber[n]; ok && strings.HasPrefix(e.Name(), chapters.ErrorPrefix) {
			continue
		}
		byNumber[n] = chapters.Chapter{Chapter: providers.Chapter{Title: m[2], Number: n}}
	}

	out := make([]chapters.Chapter, 0, len(byNumber))
	for _, c := range byNumber {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	return out, nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".novelpiad-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	_, err = f.Write(data)
	err = multierr.Append(err, f.Close())
	if err != nil {
		return err
	}

	if err = os.Chmod(tmp, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
