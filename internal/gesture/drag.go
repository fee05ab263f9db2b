package gesture

import (
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/pkg/core"
)

// DragRotate sets the bearing from horizontal pointer movement. The bearing
// is the raw horizontal distance in pixels from where the drag started, read
// as degrees; it is not added to the bearing the drag started from.
type DragRotate struct {
	handler
	deps   Dependencies
	target string

	active bool
	startX float64
	moveID dispatcher.ListenerID
	upID   dispatcher.ListenerID
}

// NewDragRotate creates a disabled drag handler. Only pointer-downs on target
// start a drag; an empty target accepts any pointer-down.
func NewDragRotate(deps Dependencies, target string) *DragRotate {
	d := &DragRotate{deps: deps.withDefaults(), target: target}
	d.bus = deps.Bus
	d.listen(core.InputPointerDown, d.onDown)
	return d
}

// Disable stops listening and abandons any drag in progress.
func (d *DragRotate) Disable() {
	d.handler.Disable()
	d.end()
}

// Active reports whether a drag is in progress.
func (d *DragRotate) Active() bool {
	return d.active
}

func (d *DragRotate) onDown(e dispatcher.Event) {
	ev, ok := e.Payload.(core.PointerEvent)
	if !ok || !d.enabled || (d.target != "" && ev.Target != d.target) {
		return
	}
	if !d.deps.Guard.Acquire(SourceDrag) {
		return
	}

	d.detach()
	d.active = true
	d.startX = ev.Position.X
	d.moveID = d.bus.On(core.InputPointerMove, d.onMove, dispatcher.Logged())
	d.upID = d.bus.On(core.InputPointerUp, d.onUp, dispatcher.Once(), dispatcher.Logged())
}

func (d *DragRotate) onMove(e dispatcher.Event) {
	ev, ok := e.Payload.(core.PointerEvent)
	if !ok || !d.active {
		return
	}
	if !d.deps.Guard.Touch(SourceDrag) {
		d.end()
		return
	}
	d.deps.Rotator.SetBearing(ev.Position.X - d.startX)
}

func (d *DragRotate) onUp(dispatcher.Event) {
	d.end()
}

func (d *DragRotate) end() {
	if !d.active {
		return
	}
	d.detach()
	d.active = false
	d.deps.Guard.Release(SourceDrag)
}

func (d *DragRotate) detach() {
	if d.moveID != 0 {
		d.bus.Off(core.InputPointerMove, d.moveID)
		d.moveID = 0
	}
	if d.upID != 0 {
		d.bus.Off(core.InputPointerUp, d.upID)
		d.upID = 0
	}
}
