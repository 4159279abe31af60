package chapters

import (
	"fmt"
	"strings"

	"github.com/brogergvhs/novelpiad/internal/providers"
)

// ErrorPrefix marks a chapter file that holds a failure placeholder instead
// of content.
const ErrorPrefix = "ERROR_"

type Chapter struct {
	providers.Chapter
}

func Wrap(all []providers.Chapter) []Chapter {
	out := make([]Chapter, len(all))
	for i, c := range all {
		out[i] = Chapter{Chapter: c}
	}
	return out
}

var unsafeChars = strings.NewReplacer(
	`\`, "", "/", "", "*", "", "?", "", ":", "",
	`"`, "", "<", "", ">", "", "|", "",
)

// Sanitize removes characters that are not allowed in file names on common
// file systems. Everything else, including spaces, is kept.
func Sanitize(s string) string {
	return unsafeChars.Replace(s)
}

func (c Chapter) FileName() string {
	return fmt.Sprintf("%04d_%s.txt", c.Number, Sanitize(c.Title))
}

func (c Chapter) ErrorFileName() string {
	return ErrorPrefix + c.FileName()
}

func (c Chapter) Header() string {
	return fmt.Sprintf("Chapter %d: %s", c.Number, c.Title)
}

func (c Chapter) CoverFileName() string {
	return CoverFileName(c.Number)
}

func CoverFileName(number int) string {
	return fmt.Sprintf("chapter_%d_cover.jpg", number)
}

func (c Chapter) String() string {
	return fmt.Sprintf("%04d - %s", c.Number, c.Title)
}
