package booking

import "errors"

// Status is the booking lifecycle state. Created as WAITING, moved to
// APPROVED or REJECTED by the item owner, never back to WAITING.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// State is the listing filter: temporal classifications evaluated against
// "now" plus two direct status filters.
type State string

const (
	StateAll      State = "ALL"
	StateCurrent  State = "CURRENT"
	StatePast     State = "PAST"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

var ErrUnknownState = errors.New("unknown booking state")

func ParseState(raw string) (State, error) {
	switch State(raw) {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return State(raw), nil
	default:
		return "", ErrUnknownState
	}
}

func (s State) String() string {
	return string(s)
}
