package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/veil-im/veil/internal/model"
)

// Timeline renders one conversation: day buckets in order, messages in
// arrival order, enrichment shown as indented sub-lines under the
// message that owns it.
type Timeline struct {
	*tview.TextView
	contactName string
}

// NewTimeline creates the conversation view.
func NewTimeline() *Timeline {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Conversation ")

	return &Timeline{TextView: tv}
}

// SetContactName updates the view title.
func (t *Timeline) SetContactName(name string) {
	t.contactName = name
	t.SetTitle(fmt.Sprintf(" %s ", name))
}

// Update redraws the whole timeline from a view snapshot.
func (t *Timeline) Update(tl model.Timeline) {
	t.Clear()

	for _, bucket := range tl {
		_, _ = fmt.Fprintf(t, "[::d]―――― %s ――――[-:-:-]\n\n", bucket.Date)
		for _, m := range bucket.Messages {
			t.writeMessage(m)
		}
	}

	t.ScrollToEnd()
}

func (t *Timeline) writeMessage(m model.Message) {
	sender := t.contactName
	if m.Sender == model.SenderUser {
		sender = "You"
	}
	_, _ = fmt.Fprintf(t, "[::b]%s[-:-:-] [::d]%s[-:-:-]\n", tview.Escape(sender), m.Time)
	_, _ = fmt.Fprintf(t, "%s\n", tview.Escape(sanitizeForTerminal(bodyText(m.Content))))

	if m.RecognizedText != "" {
		_, _ = fmt.Fprintf(t, "  [yellow]♪ %s[-]\n", tview.Escape(sanitizeForTerminal(m.RecognizedText)))
	}
	if m.HiddenText != "" {
		_, _ = fmt.Fprintf(t, "  [aqua]⚿ %s[-]\n", tview.Escape(sanitizeForTerminal(m.HiddenText)))
	}
	_, _ = fmt.Fprint(t, "\n")
}

// bodyText renders asset references as labelled markers.
func bodyText(content string) string {
	if ref, ok := model.ImageRef(content); ok {
		return "[image] " + ref
	}
	if ref, ok := model.AudioRef(content); ok {
		return "[audio] " + ref
	}
	return content
}
