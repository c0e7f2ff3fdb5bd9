package service

import "time"

// clock is an injectable time source. Services fall back to the system clock
// so production wiring stays trivial; tests pin it.
type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
