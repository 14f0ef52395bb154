package enrich

import "github.com/veil-im/veil/internal/model"

// Candidate is a stego-named image message still awaiting decode.
type Candidate struct {
	MessageID string
	Ref       string
}

// StegoCandidates collects the messages in tl that reference a
// stego-named image and carry no hidden text yet. Decode is lazy:
// the engine runs this per render pass over the active timeline and
// skips anything already in flight.
func StegoCandidates(tl model.Timeline) []Candidate {
	var out []Candidate
	for _, bucket := range tl {
		for _, m := range bucket.Messages {
			if m.HiddenText != "" || !model.IsStegoImage(m.Content) {
				continue
			}
			ref, _ := model.ImageRef(m.Content)
			out = append(out, Candidate{MessageID: m.ID, Ref: ref})
		}
	}
	return out
}
