package clock

import (
	"sync"
	"time"
)

// Clock abstracts the current time so that tests can control it.
type Clock interface {
	Now() time.Time
}

var (
	current   Clock = systemClock{}
	currentMu sync.RWMutex
)

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// FrozenClock always returns the same instant.
type FrozenClock struct {
	now time.Time
}

func (c *FrozenClock) Now() time.Time {
	return c.now
}

// Now is the same as time.Now() except when the clock is frozen.
func Now() time.Time {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current.Now()
}

// FreezeAt stops the time at the given instant until Unfreeze is called.
func FreezeAt(now time.Time) *FrozenClock {
	frozen := &FrozenClock{now: now}
	use(frozen)
	return frozen
}

// Freeze stops the time at the current instant.
func Freeze() *FrozenClock {
	return FreezeAt(time.Now())
}

func Unfreeze() {
	use(systemClock{})
}

func use(c Clock) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = c
}
