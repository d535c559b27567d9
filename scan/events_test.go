package scan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	var o observers[int]
	var calls []string

	cancelA := o.add(func(v int) {
		calls = append(calls, "a")
	})
	o.add(func(v int) {
		calls = append(calls, "b")
	})
	require.Equal(t, 2, o.len())

	o.notify(1)
	require.Equal(t, []string{"a", "b"}, calls)

	cancelA()
	cancelA()
	require.Equal(t, 1, o.len())

	o.notify(2)
	require.Equal(t, []string{"a", "b", "b"}, calls)
}

func TestObserversCancelDuringNotify(t *testing.T) {
	var o observers[int]
	var calls int

	var cancel func()
	cancel = o.add(func(int) {
		calls++
		cancel()
	})
	o.add(func(int) {
		calls++
	})

	o.notify(0)
	require.Equal(t, 2, calls)
	require.Equal(t, 1, o.len())
}

func TestPlayHapticFeedback(t *testing.T) {
	var reasons []HapticReason
	h := HapticFunc(func(r HapticReason) {
		reasons = append(reasons, r)
	})

	playHapticFeedback(h, DefaultConfig(), HapticSnapToSide)
	playHapticFeedback(nil, DefaultConfig(), HapticSnapToSide)

	c := DefaultConfig()
	c.DisableHapticFeedback = true
	playHapticFeedback(h, c, HapticSnapToCenter)

	require.Equal(t, []HapticReason{HapticSnapToSide}, reasons)
}
