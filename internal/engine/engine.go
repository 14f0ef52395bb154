// Package engine runs the conversation session: it owns the in-memory
// ledger, serializes every mutation on a single run loop, persists
// optimistically and reconciles against the backing store after a
// fixed delay. Render surfaces observe it through bus events and the
// View snapshot; they never touch engine state directly.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/veil-im/veil/internal/bus"
	"github.com/veil-im/veil/internal/capability"
	"github.com/veil-im/veil/internal/enrich"
	"github.com/veil-im/veil/internal/ledger"
	"github.com/veil-im/veil/internal/model"
	"github.com/veil-im/veil/internal/status"
)

// Store is the persistence contract the engine needs: one
// authoritative read, one whole-store write.
type Store interface {
	Load(ctx context.Context) (*model.Snapshot, error)
	Persist(ctx context.Context, timelines map[model.ContactID]model.Timeline) error
}

// Config holds the reconciliation timers.
type Config struct {
	ReloadDelay     time.Duration
	TranscribeDelay time.Duration
}

// Engine owns all mutable session state. Public methods may be called
// from any goroutine; each posts a job onto the run loop, which is the
// only goroutine that touches the ledger and contact list.
type Engine struct {
	store   Store
	media   *capability.MediaStore
	caps    capability.Set
	bus     *bus.Bus
	machine *status.Machine
	log     *zap.Logger
	cfg     Config

	ledger    *ledger.Ledger
	contacts  []model.Contact
	active    model.ContactID
	decoding  map[string]struct{} // message ids with a decode in flight
	recording bool

	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan func()
	done   chan struct{}
}

// New wires an engine; Start performs the initial load.
func New(st Store, media *capability.MediaStore, caps capability.Set, b *bus.Bus, machine *status.Machine, log *zap.Logger, cfg Config) *Engine {
	if cfg.ReloadDelay <= 0 {
		cfg.ReloadDelay = 500 * time.Millisecond
	}
	if cfg.TranscribeDelay <= 0 {
		cfg.TranscribeDelay = 500 * time.Millisecond
	}
	return &Engine{
		store:    st,
		media:    media,
		caps:     caps,
		bus:      b,
		machine:  machine,
		log:      log,
		cfg:      cfg,
		ledger:   ledger.New(),
		decoding: make(map[string]struct{}),
		jobs:     make(chan func(), 64),
		done:     make(chan struct{}),
	}
}

// Start performs the initial authoritative load and starts the run
// loop. A failed initial load is fatal: the session ends in Error.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)
	if err := e.machine.Transition(status.Loading); err != nil {
		e.cancel()
		close(e.done)
		return err
	}

	snap, err := e.store.Load(e.ctx)
	if err != nil {
		_ = e.machine.Transition(status.Error)
		e.cancel()
		close(e.done)
		return fmt.Errorf("initial load: %w", err)
	}
	e.adopt(snap)
	if err := e.machine.Transition(status.Ready); err != nil {
		e.cancel()
		close(e.done)
		return err
	}

	go e.loop()
	e.renderContacts()
	e.log.Info("session ready",
		zap.Int("contacts", len(snap.Contacts)),
		zap.Int("timelines", len(snap.Timelines)))
	return nil
}

// Stop cancels the run loop and waits for it to drain.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
}

func (e *Engine) loop() {
	defer close(e.done)
	for {
		select {
		case job := <-e.jobs:
			job()
		case <-e.ctx.Done():
			return
		}
	}
}

// post hands a job to the run loop; dropped once the engine stops.
func (e *Engine) post(job func()) {
	select {
	case e.jobs <- job:
	case <-e.ctx.Done():
	}
}

// adopt replaces all in-memory state with a loaded snapshot.
func (e *Engine) adopt(snap *model.Snapshot) {
	e.ledger.ReplaceAll(snap.Timelines)
	e.contacts = snap.Contacts
	e.rank()
}

func (e *Engine) rank() {
	ledger.Rank(e.contacts, e.ledger.Timelines())
}

// SendText appends an outgoing text message to the contact's timeline,
// renders immediately, writes the store through and schedules the
// reconciliation reload. Sends to offline contacts are refused with a
// flash notice, never an error.
func (e *Engine) SendText(contactID model.ContactID, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	e.post(func() {
		if !e.requireOnline(contactID) {
			return
		}
		e.appendLocal(contactID, text)
	})
}

// SendImage stores the image given as a base64 data URL in the session
// media directory and appends a message referencing it.
func (e *Engine) SendImage(contactID model.ContactID, imageDataURL string) {
	e.post(func() {
		if !e.requireOnline(contactID) {
			return
		}
		name, err := e.media.SaveImage(contactID, imageDataURL, time.Now())
		if err != nil {
			e.log.Error("save image", zap.Error(err))
			e.flash("could not save image")
			return
		}
		e.appendLocal(contactID, model.ImagePrefix+name)
	})
}

// SendHiddenImage embeds hidden text into the image via the stego
// codec, then appends a message referencing the encoded asset. Without
// the codec the send degrades to a flash notice.
func (e *Engine) SendHiddenImage(contactID model.ContactID, imageDataURL, hidden string) {
	e.post(func() {
		if !e.requireOnline(contactID) {
			return
		}
		if e.caps.Stego == nil {
			e.log.Warn("hidden image send without stego codec")
			e.flash("hiding text in images is not available")
			return
		}
		err := e.caps.Stego.Encode(e.ctx, strconv.FormatInt(int64(contactID), 10), imageDataURL, hidden,
			func(resultRef string) {
				e.post(func() {
					if resultRef == "" {
						e.flash("could not hide text in image")
						return
					}
					e.appendLocal(contactID, model.ImagePrefix+resultRef)
				})
			})
		if err != nil {
			e.log.Warn("stego encode", zap.Error(err))
			e.flash("hiding text in images is not available")
		}
	})
}

// ActivateContact switches the active conversation and marks every
// contact-sent message in it read, as one atomic local operation. A
// changed read flag is written back without a reload.
func (e *Engine) ActivateContact(contactID model.ContactID) {
	e.post(func() {
		e.active = contactID
		if e.ledger.MarkContactRead(contactID) {
			e.renderContacts()
			e.persist()
		}
		e.renderTimeline()
	})
}

// ToggleRecording starts or stops audio capture. The recording itself
// arrives later through RecordingFinished; without the capability the
// toggle degrades to a flash notice.
func (e *Engine) ToggleRecording() {
	e.post(func() {
		if e.caps.Recorder == nil {
			e.flash("audio capture is not available")
			return
		}
		if e.recording {
			if err := e.caps.Recorder.Stop(e.ctx); err != nil {
				e.log.Warn("stop recording", zap.Error(err))
			}
			e.recording = false
			e.flash("recording stopped")
			return
		}
		if err := e.caps.Recorder.Start(e.ctx); err != nil {
			e.log.Warn("start recording", zap.Error(err))
			e.flash("audio capture is not available")
			return
		}
		e.recording = true
		e.flash("recording")
	})
}

// RecordingFinished is the capture device's completion signal. The
// recording is appended to the active conversation as an audio
// message; after the transcribe delay the transcript is merged into
// it. An empty transcript falls back to the transcriber capability.
func (e *Engine) RecordingFinished(audioRef, transcript string) {
	e.post(func() {
		contactID := e.active
		if contactID == 0 {
			e.log.Warn("recording finished with no active conversation", zap.String("audio", audioRef))
			return
		}
		content := model.AudioPrefix + audioRef
		e.appendLocal(contactID, content)
		e.scheduleTranscript(contactID, content, transcript)
	})
}

// appendLocal is the optimistic write path shared by every send: the
// message is visible immediately and written through, but becomes
// authoritative only after the next reload.
func (e *Engine) appendLocal(contactID model.ContactID, content string) {
	now := time.Now()
	e.ledger.Append(contactID, model.SenderUser, content, model.TimeOf(now), model.DateOf(now), true)
	e.rank()
	e.renderContacts()
	e.renderTimeline()
	e.persist()
	e.scheduleReload()
}

// requireOnline enforces the send precondition. Runs on the loop.
func (e *Engine) requireOnline(contactID model.ContactID) bool {
	for i := range e.contacts {
		if e.contacts[i].ID != contactID {
			continue
		}
		if e.contacts[i].Presence == model.PresenceOnline {
			return true
		}
		e.log.Info("send refused, contact offline", zap.Int64("contact", int64(contactID)))
		e.flash(fmt.Sprintf("%s is offline, message not delivered", e.contacts[i].Name))
		return false
	}
	e.log.Warn("send to unknown contact", zap.Int64("contact", int64(contactID)))
	e.flash("unknown contact")
	return false
}

func (e *Engine) scheduleTranscript(contactID model.ContactID, content, transcript string) {
	apply := func(text string) {
		if text == "" {
			return
		}
		e.post(func() {
			e.mergeEnrichment(contactID, enrich.ContentIs(content), enrich.FieldRecognizedText, text)
		})
	}
	if transcript != "" {
		time.AfterFunc(e.cfg.TranscribeDelay, func() { apply(transcript) })
		return
	}
	if e.caps.Transcriber == nil {
		return
	}
	ref, _ := model.AudioRef(content)
	if err := e.caps.Transcriber.Recognize(e.ctx, ref, apply); err != nil {
		e.log.Warn("speech recognition", zap.Error(err))
	}
}

// mergeEnrichment applies one enrichment result. A miss is logged and
// dropped; a value change is written back and re-rendered. Runs on the
// loop.
func (e *Engine) mergeEnrichment(contactID model.ContactID, match func(model.Message) bool, field enrich.Field, value string) {
	res := enrich.Merge(e.ledger.Get(contactID), match, field, value)
	if !res.Found {
		e.log.Debug("enrichment target not found",
			zap.Int64("contact", int64(contactID)),
			zap.String("field", string(field)))
		return
	}
	if res.Changed {
		e.persist()
	}
	if contactID == e.active {
		e.renderTimeline()
	}
}

// decodePass starts a decode for every stego-named image in the
// timeline that has no hidden text yet and none in flight. Runs on the
// loop, after each timeline render.
func (e *Engine) decodePass(contactID model.ContactID) {
	if e.caps.Stego == nil {
		return
	}
	for _, cand := range enrich.StegoCandidates(e.ledger.Get(contactID)) {
		if _, busy := e.decoding[cand.MessageID]; busy {
			continue
		}
		e.decoding[cand.MessageID] = struct{}{}
		msgID := cand.MessageID
		err := e.caps.Stego.Decode(e.ctx, cand.Ref, func(text string) {
			e.post(func() {
				delete(e.decoding, msgID)
				if text == "" {
					return
				}
				e.mergeEnrichment(contactID, enrich.MessageIs(msgID), enrich.FieldHiddenText, text)
			})
		})
		if err != nil {
			delete(e.decoding, msgID)
			e.log.Warn("stego decode", zap.String("asset", cand.Ref), zap.Error(err))
		}
	}
}

func (e *Engine) renderContacts() {
	e.bus.Publish(bus.NewEvent("render.contacts", nil))
}

func (e *Engine) renderTimeline() {
	e.bus.Publish(bus.NewEvent("render.timeline", e.active))
	e.decodePass(e.active)
}

func (e *Engine) flash(msg string) {
	e.bus.Publish(bus.NewEvent("session.flash", msg))
}
