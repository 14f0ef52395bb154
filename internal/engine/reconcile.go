package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/veil-im/veil/internal/status"
)

// persist writes the ledger through before the loop continues, so a
// reload timer armed afterwards can only observe the settled store.
// Failures are logged, never surfaced: the ledger stays the optimistic
// truth until a reload succeeds.
func (e *Engine) persist() {
	if err := e.store.Persist(e.ctx, e.ledger.Timelines()); err != nil {
		e.log.Warn("persist", zap.Error(err))
	}
}

// scheduleReload arms the reconciliation timer. The reload itself runs
// as a loop job, so it serializes with every other mutation; a timer
// firing after shutdown finds the context cancelled and is dropped.
func (e *Engine) scheduleReload() {
	time.AfterFunc(e.cfg.ReloadDelay, func() {
		e.post(e.reload)
	})
}

// reload performs one reconciliation: read the authoritative snapshot
// and replace all in-memory timelines wholesale. On failure the last
// good state is kept and the session degrades instead of erroring.
func (e *Engine) reload() {
	if err := e.machine.Transition(status.Reloading); err != nil {
		e.log.Debug("reload state", zap.Error(err))
	}

	snap, err := e.store.Load(e.ctx)
	if err != nil {
		e.log.Error("reload failed, keeping last good state", zap.Error(err))
		_ = e.machine.Transition(status.Degraded)
		return
	}

	e.adopt(snap)
	_ = e.machine.Transition(status.Ready)
	e.renderContacts()
	e.renderTimeline()
}
