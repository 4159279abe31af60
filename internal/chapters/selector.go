package chapters

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter picks chapters by number. Only one of chapter, rng and list is
// applied, in that order of precedence; with none set all chapters are
// returned. The result follows the order of all, except for list which
// follows the caller's order.
func Filter(all []Chapter, chapter, rng, list string) ([]Chapter, error) {
	switch {
	case chapter != "":
		n, err := atoi(chapter)
		if err != nil {
			return nil, fmt.Errorf("invalid chapter %q", chapter)
		}
		if c, ok := byNumber(all, n); ok {
			return []Chapter{c}, nil
		}
		return nil, fmt.Errorf("chapter %d not found", n)
	case rng != "":
		return FilterRange(all, rng)
	case list != "":
		return FilterList(all, list)
	}

	return all, nil
}

func FilterRange(all []Chapter, rng string) ([]Chapter, error) {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid range %q, expected start-end", rng)
	}

	start, err1 := atoi(parts[0])
	end, err2 := atoi(parts[1])
	if err1 != nil || err2 != nil || start <= 0 || start > end {
		return nil, fmt.Errorf("invalid range %q", rng)
	}

	var out []Chapter
	for _, c := range all {
		if c.Number >= start && c.Number <= end {
			out = append(out, c)
		}
	}

	return out, nil
}

func FilterList(all []Chapter, list string) ([]Chapter, error) {
	var out []Chapter
	seen := map[int]bool{}

	for p := range strings.SplitSeq(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		n, err := atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid chapter number %q in list", p)
		}
		if seen[n] {
			continue
		}
		seen[n] = true

		if c, ok := byNumber(all, n); ok {
			out = append(out, c)
		}
	}

	return out, nil
}

func byNumber(all []Chapter, n int) (Chapter, bool) {
	for _, c := range all {
		if c.Number == n {
			return c, true
		}
	}
	return Chapter{}, false
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
