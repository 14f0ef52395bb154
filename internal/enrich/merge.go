// Package enrich merges asynchronous enrichment results — speech
// transcripts, steganographically hidden text — into already-rendered
// timelines without loss or duplication.
package enrich

import "github.com/veil-im/veil/internal/model"

// Field names an enrichment slot on a message.
type Field string

const (
	FieldRecognizedText Field = "recognizedText"
	FieldHiddenText     Field = "hiddenText"
)

// Result reports what a merge did. Found is false when no message
// matched (an EnrichmentMiss — logged by the caller, never surfaced).
// Changed is false when the field already held the value, making
// repeated merges value-level no-ops.
type Result struct {
	Found   bool
	Changed bool
}

// Merge scans the timeline's day buckets from most recent to oldest,
// and within each bucket from last message to first, for the first
// message satisfying match, and sets the enrichment field on it in
// place. Best-effort: a miss is reported, never an error.
func Merge(tl model.Timeline, match func(model.Message) bool, field Field, value string) Result {
	for bi := len(tl) - 1; bi >= 0; bi-- {
		msgs := tl[bi].Messages
		for mi := len(msgs) - 1; mi >= 0; mi-- {
			if !match(msgs[mi]) {
				continue
			}
			switch field {
			case FieldRecognizedText:
				if msgs[mi].RecognizedText == value {
					return Result{Found: true}
				}
				msgs[mi].RecognizedText = value
			case FieldHiddenText:
				if msgs[mi].HiddenText == value {
					return Result{Found: true}
				}
				msgs[mi].HiddenText = value
			default:
				return Result{}
			}
			return Result{Found: true, Changed: true}
		}
	}
	return Result{}
}

// ContentIs matches a message by exact content string, the classic
// reference-by-content contract (e.g. "audio:rec1.wav").
func ContentIs(content string) func(model.Message) bool {
	return func(m model.Message) bool { return m.Content == content }
}

// MessageIs matches a message by its unique id.
func MessageIs(id string) func(model.Message) bool {
	return func(m model.Message) bool { return m.ID == id }
}
