// Package authz evaluates room-level access policy for a matched identity.
package authz

import "time"

// Reason is the structured outcome code of an authorization check.
// Denials are normal outcomes, never errors.
type Reason string

const (
	ReasonNoRoom         Reason = "NO_ROOM"
	ReasonNoAccessRecord Reason = "NO_ROOM_ACCESS_RECORD"
	ReasonAccessDenied   Reason = "ROOM_ACCESS_DENIED"
	ReasonBeforeAllowed  Reason = "BEFORE_ALLOWED_TIME"
	ReasonAfterAllowed   Reason = "AFTER_ALLOWED_TIME"
	ReasonAuthorized     Reason = "AUTHORIZED"
)

// TimeOfDay is a wall-clock time within a day, local timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the offset from midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// At extracts the TimeOfDay from a timestamp.
func At(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Policy is the access rule for one (identity, room) pair. The store
// guarantees at most one policy per pair. Nil window bounds mean
// unrestricted on that side.
type Policy struct {
	Allowed     bool
	AllowedFrom *TimeOfDay
	AllowedTo   *TimeOfDay
}

// Outcome is the transient result of one authorization check.
type Outcome struct {
	Granted bool
	Reason  Reason
}

// Authorizer evaluates policies against a clock. The zero value uses
// time.Now; tests inject a fixed clock.
type Authorizer struct {
	Now func() time.Time
}

// Authorize applies the deny-by-default policy evaluation:
// no room, no policy record, or allowed=false all deny; an allowed policy
// is further constrained by the optional time-of-day window.
//
// A window with AllowedTo before AllowedFrom wraps past midnight
// (e.g. 22:00-06:00 covers late evening and early morning); outside a
// wrapped window the reason is AFTER_ALLOWED_TIME.
func (a *Authorizer) Authorize(hasRoom bool, policy *Policy) Outcome {
	if !hasRoom {
		return Outcome{Granted: false, Reason: ReasonNoRoom}
	}
	if policy == nil {
		return Outcome{Granted: false, Reason: ReasonNoAccessRecord}
	}
	if !policy.Allowed {
		return Outcome{Granted: false, Reason: ReasonAccessDenied}
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	minute := At(now().Local()).Minutes()

	from, to := policy.AllowedFrom, policy.AllowedTo
	switch {
	case from != nil && to != nil && to.Minutes() < from.Minutes():
		// Wrapped window: inside means after from or before to.
		if minute < from.Minutes() && minute > to.Minutes() {
			return Outcome{Granted: false, Reason: ReasonAfterAllowed}
		}
	default:
		if from != nil && minute < from.Minutes() {
			return Outcome{Granted: false, Reason: ReasonBeforeAllowed}
		}
		if to != nil && minute > to.Minutes() {
			return Outcome{Granted: false, Reason: ReasonAfterAllowed}
		}
	}

	return Outcome{Granted: true, Reason: ReasonAuthorized}
}
