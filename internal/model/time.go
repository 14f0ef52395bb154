package model

import "time"

// Wire formats for bucket dates and message times. Both are
// fixed-width and zero-padded so that the ranker's lexicographic
// comparison of composite keys is chronologically correct.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// DateOf formats t as a bucket date.
func DateOf(t time.Time) string { return t.Format(DateLayout) }

// TimeOf formats t as a message time-of-day.
func TimeOf(t time.Time) string { return t.Format(TimeLayout) }
