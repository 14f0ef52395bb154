package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Composer is the input line for the active conversation. Plain text
// sends a message; "/image <path>" and "/hide <path> <text>" send
// images, the latter with embedded hidden text.
type Composer struct {
	*tview.InputField
	onSend func(text string)
}

// NewComposer creates the composer.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)

	c := &Composer{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && c.onSend != nil {
			text := c.GetText()
			if text != "" {
				c.onSend(text)
				c.SetText("")
			}
		}
	})

	return c
}

// SetOnSend sets the callback when input is submitted.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}
