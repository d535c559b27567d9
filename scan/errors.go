package scan

const (
	// ErrTypeInvalidStateTransition is the error type returned when a scan is
	// asked to move to a state it can't reach from its current one.
	ErrTypeInvalidStateTransition = "invalid_state_transition"

	// ErrTypeBoundingBoxMissing is the error type returned by operations that
	// need a placed bounding box.
	ErrTypeBoundingBoxMissing = "bounding_box_missing"
)
