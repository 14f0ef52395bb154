package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/veil-im/veil/internal/model"
)

// ContactList is the ranked contact table: most recent conversation
// first, unread badge next to the name.
type ContactList struct {
	*tview.Table
	contacts   []model.Contact
	selectedFn func() (int, int)
}

// NewContactList creates the contact table.
func NewContactList() *ContactList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Contacts ")

	cl := &ContactList{Table: table}
	cl.selectedFn = table.GetSelection
	return cl
}

// Update refreshes the table. Contacts arrive already ranked; the view
// never reorders them.
func (cl *ContactList) Update(contacts []model.Contact, unread map[model.ContactID]int) {
	row, col := cl.selectedFn()
	cl.contacts = contacts
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" Name").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 2, tview.NewTableCell(" Activity").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, c := range contacts {
		name := c.Name
		if n := unread[c.ID]; n > 0 {
			name = fmt.Sprintf("* %s (%d)", name, n)
		}
		if c.Presence == model.PresenceOnline {
			name = "[green]●[-] " + name
		} else {
			name = "[gray]○[-] " + name
		}

		cl.SetCell(i+1, 0, tview.NewTableCell(" "+name).SetMaxWidth(30).SetExpansion(1))
		cl.SetCell(i+1, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(previewText(c.Preview)))).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(i+1, 2, tview.NewTableCell(" "+c.LastActivity).SetMaxWidth(20))
	}

	if row > 0 && row <= len(contacts) {
		cl.Select(row, col)
	}
}

// Selected returns the contact under the cursor.
func (cl *ContactList) Selected() (model.Contact, bool) {
	row, _ := cl.selectedFn()
	idx := row - 1 // header
	if idx >= 0 && idx < len(cl.contacts) {
		return cl.contacts[idx], true
	}
	return model.Contact{}, false
}

// previewText compresses asset references into a short marker so the
// table column stays readable.
func previewText(content string) string {
	if _, ok := model.ImageRef(content); ok {
		return "[image]"
	}
	if _, ok := model.AudioRef(content); ok {
		return "[audio]"
	}
	return content
}
