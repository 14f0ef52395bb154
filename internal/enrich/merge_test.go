package enrich

import (
	"reflect"
	"testing"

	"github.com/veil-im/veil/internal/model"
)

func timelineWithAudio() model.Timeline {
	return model.Timeline{
		{Date: "2024-06-01", Messages: []model.Message{
			{ID: "a", Sender: model.SenderUser, Content: "hello", Time: "09:00:00"},
			{ID: "b", Sender: model.SenderUser, Content: "audio:rec1.wav", Time: "09:01:00"},
		}},
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	tl := timelineWithAudio()

	first := Merge(tl, ContentIs("audio:rec1.wav"), FieldRecognizedText, "hello")
	if !first.Found || !first.Changed {
		t.Fatalf("first merge = %+v, want found and changed", first)
	}
	after := tl.Clone()

	second := Merge(tl, ContentIs("audio:rec1.wav"), FieldRecognizedText, "hello")
	if !second.Found || second.Changed {
		t.Fatalf("second merge = %+v, want found but unchanged", second)
	}
	if !reflect.DeepEqual(tl, after) {
		t.Errorf("repeated merge mutated the timeline:\n got %+v\nwant %+v", tl, after)
	}
	if tl[0].Messages[1].RecognizedText != "hello" {
		t.Errorf("recognizedText = %q, want hello", tl[0].Messages[1].RecognizedText)
	}
}

func TestMergePicksNewestMatch(t *testing.T) {
	tl := model.Timeline{
		{Date: "2024-06-01", Messages: []model.Message{
			{ID: "old", Content: "audio:rec.wav"},
		}},
		{Date: "2024-06-02", Messages: []model.Message{
			{ID: "newer", Content: "audio:rec.wav"},
			{ID: "newest", Content: "audio:rec.wav"},
		}},
	}

	Merge(tl, ContentIs("audio:rec.wav"), FieldRecognizedText, "text")

	if tl[1].Messages[1].RecognizedText != "text" {
		t.Error("newest matching message was not enriched")
	}
	if tl[0].Messages[0].RecognizedText != "" || tl[1].Messages[0].RecognizedText != "" {
		t.Error("older matches must stay untouched")
	}
}

func TestMergeMissLeavesTimelineIntact(t *testing.T) {
	tl := timelineWithAudio()
	before := tl.Clone()

	res := Merge(tl, ContentIs("audio:gone.wav"), FieldRecognizedText, "x")
	if res.Found || res.Changed {
		t.Errorf("miss reported %+v, want neither found nor changed", res)
	}
	if !reflect.DeepEqual(tl, before) {
		t.Error("miss mutated the timeline")
	}
}

func TestMergeByMessageID(t *testing.T) {
	tl := timelineWithAudio()

	res := Merge(tl, MessageIs("a"), FieldHiddenText, "secret")
	if !res.Found || !res.Changed {
		t.Fatalf("merge by id = %+v", res)
	}
	if tl[0].Messages[0].HiddenText != "secret" {
		t.Errorf("hiddenText = %q, want secret", tl[0].Messages[0].HiddenText)
	}
}

func TestStegoCandidates(t *testing.T) {
	tl := model.Timeline{
		{Date: "2024-06-01", Messages: []model.Message{
			{ID: "1", Content: "plain text"},
			{ID: "2", Content: "image:1_170_stego.png"},
			{ID: "3", Content: "image:1_171.png"}, // not stego-named
			{ID: "4", Content: "image:1_172_stego.png", HiddenText: "done"},
		}},
	}

	got := StegoCandidates(tl)
	if len(got) != 1 || got[0].MessageID != "2" || got[0].Ref != "1_170_stego.png" {
		t.Errorf("candidates = %+v, want only message 2", got)
	}
}
