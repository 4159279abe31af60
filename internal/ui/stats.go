package ui

import "sync/atomic"

type Stats struct {
	Chapters      atomic.Int64
	FailedChapter atomic.Int64
	Images        atomic.Int64
	ImageBytes    atomic.Int64
}
