package scan

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// State is the phase of a scan.
type State int

const (
	StateReady State = iota
	StateDefineBoundingBox
	StateScanning
	StateAdjustingOrigin
)

var stateNames = map[State]string{
	StateReady:             "ready",
	StateDefineBoundingBox: "define_bounding_box",
	StateScanning:          "scanning",
	StateAdjustingOrigin:   "adjusting_origin",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseState returns the state with the given name.
func ParseState(v string) (State, error) {
	for s, name := range stateNames {
		if name == v {
			return s, nil
		}
	}
	return StateReady, errors.New("unknown scan state").
		WithType(ErrTypeInvalidStateTransition).
		WithTag("state", v)
}

// canTransition reports whether a scan can go from one state to another.
func canTransition(from, to State) bool {
	if to == StateReady {
		return true
	}

	switch from {
	case StateReady:
		return to == StateDefineBoundingBox
	case StateDefineBoundingBox:
		return to == StateScanning
	case StateScanning:
		return to == StateAdjustingOrigin || to == StateDefineBoundingBox
	case StateAdjustingOrigin:
		return to == StateScanning || to == StateDefineBoundingBox
	default:
		return false
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
