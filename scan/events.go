package scan

// observers is an ordered set of callbacks that can each be cancelled.
type observers[T any] struct {
	nextID    uint32
	callbacks []observer[T]
}

type observer[T any] struct {
	id uint32
	fn func(T)
}

func (o *observers[T]) add(fn func(T)) (cancel func()) {
	o.nextID++
	id := o.nextID
	o.callbacks = append(o.callbacks, observer[T]{id: id, fn: fn})

	return func() {
		for i, c := range o.callbacks {
			if c.id == id {
				o.callbacks = append(o.callbacks[:i], o.callbacks[i+1:]...)
				return
			}
		}
	}
}

func (o *observers[T]) notify(v T) {
	callbacks := make([]observer[T], len(o.callbacks))
	copy(callbacks, o.callbacks)

	for _, c := range callbacks {
		c.fn(v)
	}
}

func (o *observers[T]) len() int {
	return len(o.callbacks)
}

// HapticReason describes what triggered a haptic pulse.
type HapticReason string

const (
	HapticSnapToPlane    HapticReason = "snap_to_plane"
	HapticSnapToSide     HapticReason = "snap_to_side"
	HapticSnapToCenter   HapticReason = "snap_to_center"
	HapticSnapToRotation HapticReason = "snap_to_rotation"
)

// HapticFeedback is the interface that plays haptic pulses on the tracking
// device.
type HapticFeedback interface {
	PlayHapticFeedback(reason HapticReason)
}

// HapticFunc is a function that implements HapticFeedback.
type HapticFunc func(HapticReason)

func (f HapticFunc) PlayHapticFeedback(reason HapticReason) {
	f(reason)
}

func playHapticFeedback(h HapticFeedback, c Config, reason HapticReason) {
	if h == nil || c.DisableHapticFeedback {
		return
	}
	h.PlayHapticFeedback(reason)
	instrumentHapticFeedback(reason)
}
