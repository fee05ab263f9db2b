package basemap

import "github.com/OCAP2/maprotate/internal/queue"

// FrameID identifies a pending frame callback.
type FrameID queue.Ticket

// Frames is the animation frame scheduler. Callbacks requested between two
// Flush calls run together on the next Flush.
type Frames struct {
	pending *queue.Queue[func()]
}

// NewFrames creates an empty scheduler.
func NewFrames() *Frames {
	return &Frames{pending: queue.New[func()]()}
}

// Request schedules fn for the next frame.
func (f *Frames) Request(fn func()) FrameID {
	return FrameID(f.pending.Push(fn))
}

// Cancel drops a pending callback. Zero and already-run ids are ignored.
func (f *Frames) Cancel(id FrameID) {
	if id == 0 {
		return
	}
	f.pending.Cancel(queue.Ticket(id))
}

// Pending returns the number of callbacks waiting for the next frame.
func (f *Frames) Pending() int {
	return f.pending.Len()
}

// Flush runs one frame and returns how many callbacks ran.
func (f *Frames) Flush() int {
	fns := f.pending.Drain()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
