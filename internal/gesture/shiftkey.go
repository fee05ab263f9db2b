package gesture

import (
	"github.com/OCAP2/maprotate/internal/dispatcher"
	"github.com/OCAP2/maprotate/pkg/core"
)

// ShiftKeyStep is the bearing change per wheel tick, in degrees.
const ShiftKeyStep = 5.0

// ShiftKeyRotate rotates on shift+wheel. While shift is held it suspends the
// wheel zoom so the same ticks do not also zoom.
type ShiftKeyRotate struct {
	handler
	deps      Dependencies
	wheelZoom Toggle
	suspended bool
}

// NewShiftKeyRotate creates a disabled shift+wheel handler. wheelZoom may be nil.
func NewShiftKeyRotate(deps Dependencies, wheelZoom Toggle) *ShiftKeyRotate {
	s := &ShiftKeyRotate{deps: deps.withDefaults(), wheelZoom: wheelZoom}
	s.bus = deps.Bus
	s.listen(core.InputWheel, s.onWheel)
	return s
}

// Disable stops listening and hands the wheel back to zooming.
func (s *ShiftKeyRotate) Disable() {
	s.handler.Disable()
	s.resume()
}

func (s *ShiftKeyRotate) onWheel(e dispatcher.Event) {
	ev, ok := e.Payload.(core.WheelEvent)
	if !ok || !s.enabled {
		return
	}
	if !ev.ShiftKey {
		s.resume()
		return
	}

	if s.wheelZoom != nil && s.wheelZoom.Enabled() {
		s.wheelZoom.Disable()
		s.suspended = true
	}
	if ev.DeltaY == 0 || !s.deps.Guard.Acquire(SourceShiftKey) {
		return
	}
	defer s.deps.Guard.Release(SourceShiftKey)

	step := ShiftKeyStep
	if ev.DeltaY < 0 {
		step = -step
	}
	s.deps.Rotator.SetBearing(s.deps.Rotator.Bearing() + step)
}

func (s *ShiftKeyRotate) resume() {
	if s.suspended {
		s.wheelZoom.Enable()
		s.suspended = false
	}
}
