// Package window is the session clock gate: a pure function deciding whether
// an instant falls inside a session's voting window. All comparisons are in
// UTC; callers must not mix in local time.
package window

import (
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
)

type State int

const (
	NotStarted State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateAt reports the session's window state at the given instant.
// On the voting date itself the window bounds are inclusive: now == StartTime
// and now == EndTime are both Open.
func StateAt(s domain.Session, now time.Time) State {
	now = now.UTC()

	ny, nm, nd := now.Date()
	vy, vm, vd := s.VotingDate.UTC().Date()

	nowDay := ny*10000 + int(nm)*100 + nd
	voteDay := vy*10000 + int(vm)*100 + vd

	switch {
	case nowDay < voteDay:
		return NotStarted
	case nowDay > voteDay:
		return Closed
	}

	tod := domain.TimeOfDayOf(now)
	switch {
	case tod < s.StartTime:
		return NotStarted
	case tod > s.EndTime:
		return Closed
	default:
		return Open
	}
}
