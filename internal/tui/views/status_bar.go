package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the session name, engine state and transient
// flash notices.
type StatusBar struct {
	*tview.TextView
	session string
	state   string
	flash   string
}

// NewStatusBar creates the status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetSession updates the session name display.
func (sb *StatusBar) SetSession(name string) {
	sb.session = name
	sb.render()
}

// SetState updates the engine state display.
func (sb *StatusBar) SetState(state string) {
	sb.state = state
	sb.render()
}

// SetFlash sets a temporary notice, empty to clear.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	state := sb.state
	switch state {
	case "READY":
		state = "[green]" + state + "[-]"
	case "DEGRADED", "ERROR":
		state = "[red]" + state + "[-]"
	case "RELOADING", "LOADING":
		state = "[yellow]" + state + "[-]"
	}

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s", sb.session, state, time.Now().Format("15:04"))
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", tview.Escape(sb.flash))
	}

	_, _ = fmt.Fprint(sb, line)
}
