// Package tui is the terminal render surface. It owns no conversation
// state: every redraw pulls a fresh snapshot from the engine, and bus
// events tell it when one is worth pulling.
package tui

import (
	"context"
	"encoding/base64"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/veil-im/veil/internal/bus"
	"github.com/veil-im/veil/internal/engine"
	"github.com/veil-im/veil/internal/model"
	"github.com/veil-im/veil/internal/tui/views"
)

const flashTTL = 5 * time.Second

// App is the TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	engine    *engine.Engine
	bus       *bus.Bus
	log       *zap.Logger
	flash     *Flash
	statusBar *views.StatusBar
	contacts  *views.ContactList
	timeline  *views.Timeline
	composer  *views.Composer

	activeID model.ContactID

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application over a started engine.
func NewApp(e *engine.Engine, b *bus.Bus, log *zap.Logger, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		engine:    e,
		bus:       b,
		log:       log,
		flash:     &Flash{},
		statusBar: views.NewStatusBar(),
		contacts:  views.NewContactList(),
		timeline:  views.NewTimeline(),
		composer:  views.NewComposer(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetSession(sessionName)
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.contacts.SetSelectedFunc(func(row, col int) {
		if c, ok := a.contacts.Selected(); ok {
			a.openConversation(c)
		}
	})
	a.composer.SetOnSend(a.submit)
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.timeline, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	a.pages.AddPage("contacts", a.contacts, true, true)
	a.pages.AddPage("chat", chatFlex, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape && currentPage == "chat" {
			a.pages.SwitchToPage("contacts")
			a.app.SetFocus(a.contacts)
			return nil
		}

		// Let text input widgets handle all keys normally.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}

		if event.Key() == tcell.KeyRune {
			switch {
			case event.Rune() == 'q':
				a.app.Stop()
				return nil
			case currentPage == "chat" && event.Rune() == 'i':
				a.app.SetFocus(a.composer.InputField)
				return nil
			case currentPage == "chat" && event.Rune() == 'r':
				a.engine.ToggleRecording()
				return nil
			}
		}

		return event
	})
}

// openConversation activates a contact; the engine marks it read and
// publishes the render event that redraws the timeline.
func (a *App) openConversation(c model.Contact) {
	a.activeID = c.ID
	a.timeline.SetContactName(c.Name)
	a.engine.ActivateContact(c.ID)
	a.pages.SwitchToPage("chat")
	a.app.SetFocus(a.composer.InputField)
}

// submit routes composer input: "/image <path>" sends an image,
// "/hide <path> <text>" embeds hidden text first, anything else is a
// plain text message.
func (a *App) submit(text string) {
	if a.activeID == 0 {
		return
	}
	switch {
	case strings.HasPrefix(text, "/image "):
		a.sendImage(strings.TrimSpace(strings.TrimPrefix(text, "/image ")), "")
	case strings.HasPrefix(text, "/hide "):
		rest := strings.TrimSpace(strings.TrimPrefix(text, "/hide "))
		path, hidden, ok := strings.Cut(rest, " ")
		if !ok || hidden == "" {
			a.flashNow("usage: /hide <path> <text>")
			return
		}
		a.sendImage(path, hidden)
	default:
		a.engine.SendText(a.activeID, text)
	}
}

func (a *App) sendImage(path, hidden string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		a.log.Warn("read image", zap.Error(err))
		a.flashNow("could not read " + path)
		return
	}
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	if hidden == "" {
		a.engine.SendImage(a.activeID, url)
	} else {
		a.engine.SendHiddenImage(a.activeID, url, hidden)
	}
}

func (a *App) flashNow(msg string) {
	a.flash.Set(msg, flashTTL)
	a.statusBar.SetFlash(a.flash.Get())
}

// Run draws the initial state and blocks until the TUI exits.
func (a *App) Run() error {
	a.refresh()
	go a.eventLoop()
	return a.app.Run()
}

// eventLoop turns bus events into redraws. Render events carry no
// data; the refresh pulls a consistent snapshot from the engine.
func (a *App) eventLoop() {
	renderSub := a.bus.Subscribe("render.", 32)
	defer renderSub.Cancel()
	sessionSub := a.bus.Subscribe("session.", 32)
	defer sessionSub.Cancel()

	for {
		select {
		case <-renderSub.C:
			a.app.QueueUpdateDraw(a.refresh)
		case evt := <-sessionSub.C:
			if evt.Kind == "session.flash" {
				if msg, ok := evt.Payload.(string); ok {
					a.flash.Set(msg, flashTTL)
				}
			}
			a.app.QueueUpdateDraw(a.refresh)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) refresh() {
	v := a.engine.View()
	a.contacts.Update(v.Contacts, v.Unread)
	if v.Active != 0 && v.Active == a.activeID {
		a.timeline.Update(v.Timeline)
	}
	a.statusBar.SetState(string(v.Status))
	a.statusBar.SetFlash(a.flash.Get())
}

// Stop shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
