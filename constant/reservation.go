package constant

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCommitted ReservationStatus = "committed"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCommitted || s == ReservationStatusReleased || s == ReservationStatusExpired
}

func (s ReservationStatus) Valid() bool {
	return s == ReservationStatusActive || s.IsTerminal()
}

const (
	DefaultHoldDuration   = 15 * time.Minute
	DefaultSweepInterval  = 5 * time.Minute
	DefaultSweepBatchSize = 500
)
